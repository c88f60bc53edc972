package api

import "fmt"

// ErrorCode identifies the category of an API error. Codes are part of
// the wire contract and must stay stable.
type ErrorCode string

const (
	ErrorCodeInvalidRequest        ErrorCode = "invalid_request"
	ErrorCodeInvalidCredentials    ErrorCode = "invalid_credentials"
	ErrorCodeDuplicateRegistration ErrorCode = "duplicate_registration"
	ErrorCodeUnauthenticated       ErrorCode = "unauthenticated"
	ErrorCodeTokenExpired          ErrorCode = "token_expired"
	ErrorCodeTokenInvalid          ErrorCode = "token_invalid"
	ErrorCodeTokenNotYetValid      ErrorCode = "token_not_yet_valid"
	ErrorCodeTenantMismatch        ErrorCode = "tenant_mismatch"
	ErrorCodeTenantUnresolved      ErrorCode = "tenant_unresolved"
	ErrorCodeNotFound              ErrorCode = "not_found"
	ErrorCodeTooManyRequests       ErrorCode = "too_many_requests"
	ErrorCodeServerError           ErrorCode = "server_error"
)

// APIError is a structured error carrying a stable code and a
// user-presentable message. It never wraps raw library errors; callers
// translate at the boundary where the underlying failure occurs.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequestError creates an APIError for malformed or incomplete input.
func NewInvalidRequestError(message string) *APIError {
	return &APIError{Code: ErrorCodeInvalidRequest, Message: message}
}

// NewInvalidCredentialsError creates the APIError returned for any failed
// login. The message is deliberately uniform so it does not reveal whether
// the email or the password was wrong.
func NewInvalidCredentialsError() *APIError {
	return &APIError{Code: ErrorCodeInvalidCredentials, Message: "invalid email or password"}
}

// NewDuplicateRegistrationError creates an APIError for re-registration of
// an already-registered email.
func NewDuplicateRegistrationError() *APIError {
	return &APIError{Code: ErrorCodeDuplicateRegistration, Message: "email is already registered"}
}

// NewUnauthenticatedError creates an APIError for requests with no usable
// credentials.
func NewUnauthenticatedError() *APIError {
	return &APIError{Code: ErrorCodeUnauthenticated, Message: "authentication required"}
}

// NewTenantMismatchError creates an APIError for an authenticated caller
// targeting another tenant's resource.
func NewTenantMismatchError() *APIError {
	return &APIError{Code: ErrorCodeTenantMismatch, Message: "access to this restaurant is denied"}
}

// NewTenantUnresolvedError creates an APIError for a verified token whose
// tenant cannot be resolved to a live restaurant record.
func NewTenantUnresolvedError() *APIError {
	return &APIError{Code: ErrorCodeTenantUnresolved, Message: "restaurant account not found"}
}

// NewNotFoundError creates an APIError for missing resources.
func NewNotFoundError(message string) *APIError {
	return &APIError{Code: ErrorCodeNotFound, Message: message}
}

// NewServerError creates an APIError for internal failures. The message
// must not leak secrets or internal state.
func NewServerError() *APIError {
	return &APIError{Code: ErrorCodeServerError, Message: "internal server error"}
}
