package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/menuqr/menuqr/pkg/api"
	"github.com/menuqr/menuqr/pkg/auth/token"
)

// HTTPStatusFromError maps an APIError code to the corresponding HTTP
// status code.
func HTTPStatusFromError(apiErr *api.APIError) int {
	switch apiErr.Code {
	case api.ErrorCodeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorCodeInvalidCredentials,
		api.ErrorCodeUnauthenticated,
		api.ErrorCodeTokenExpired,
		api.ErrorCodeTokenInvalid,
		api.ErrorCodeTokenNotYetValid,
		api.ErrorCodeTenantUnresolved:
		return http.StatusUnauthorized
	case api.ErrorCodeTenantMismatch:
		return http.StatusForbidden
	case api.ErrorCodeNotFound:
		return http.StatusNotFound
	case api.ErrorCodeDuplicateRegistration:
		return http.StatusConflict
	case api.ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes the uniform failure envelope {success:false, message},
// deriving the HTTP status from the error code.
func WriteError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteJSON(w, HTTPStatusFromError(apiErr), api.Envelope{
		Success: false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}

// TokenError translates a token verification failure into its API error.
// Raw library errors never reach the wire.
func TokenError(err error) *api.APIError {
	switch {
	case errors.Is(err, token.ErrExpired):
		return &api.APIError{Code: api.ErrorCodeTokenExpired, Message: "session expired"}
	case errors.Is(err, token.ErrNotYetValid):
		return &api.APIError{Code: api.ErrorCodeTokenNotYetValid, Message: "token not yet valid"}
	case errors.Is(err, token.ErrMalformed):
		return &api.APIError{Code: api.ErrorCodeTokenInvalid, Message: "invalid session token"}
	default:
		return &api.APIError{Code: api.ErrorCodeTokenInvalid, Message: "invalid session token"}
	}
}
