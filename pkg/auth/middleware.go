package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/menuqr/menuqr/pkg/api"
	"github.com/menuqr/menuqr/pkg/auth/session"
	"github.com/menuqr/menuqr/pkg/auth/token"
	"github.com/menuqr/menuqr/pkg/debug"
	"github.com/menuqr/menuqr/pkg/observability"
	"github.com/menuqr/menuqr/pkg/storage"
)

// TokenVerifier validates a session token and returns its claims.
// Implemented by *token.Service.
type TokenVerifier interface {
	Verify(tokenStr string) (*token.Claims, error)
}

// TenantResolver looks up the live restaurant a token is bound to.
// Implemented by every storage.Store.
type TenantResolver interface {
	GetRestaurantByID(ctx context.Context, id string) (*storage.Restaurant, error)
}

// Middleware creates the tenant isolation guard. Per request it extracts
// the session token, verifies it, resolves the embedded tenant to a live
// restaurant record, and injects identity and tenant into the context.
// Any failed step terminates the request with a structured 401; guard
// failures are never retried.
func Middleware(verifier TokenVerifier, transport *session.Transport, resolver TenantResolver, bypassEndpoints []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Public endpoints skip the guard entirely.
			if bypassed(r.URL.Path, bypassEndpoints) {
				next.ServeHTTP(w, r)
				return
			}

			// Unauthenticated -> TokenPresent.
			tok := transport.AccessToken(r)
			if tok == "" {
				observability.TenantRejectionsTotal.WithLabelValues("missing_token").Inc()
				writeGuardError(w, http.StatusUnauthorized, api.NewUnauthenticatedError())
				return
			}

			// TokenPresent -> TokenVerified.
			claims, err := verifier.Verify(tok)
			if err != nil {
				slog.Warn("token verification failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				apiErr, reason := verificationError(err)
				observability.TokenVerificationsTotal.WithLabelValues(reason).Inc()
				observability.TenantRejectionsTotal.WithLabelValues(reason).Inc()
				writeGuardError(w, http.StatusUnauthorized, apiErr)
				return
			}
			observability.TokenVerificationsTotal.WithLabelValues("success").Inc()

			identity := &Identity{
				UserID:       claims.UserID,
				Email:        claims.Email,
				Role:         claims.Role,
				RestaurantID: claims.RestaurantID,
				SessionID:    claims.SessionID,
			}
			if identity.UserID == "" {
				slog.Error("verified token carries empty user id")
				writeGuardError(w, http.StatusInternalServerError, api.NewServerError())
				return
			}

			ctx := SetIdentity(r.Context(), identity)

			// TokenVerified -> TenantResolved. A token without a tenant
			// yields an identity without tenant context; tenant-scoped
			// routes reject it via RequireTenant.
			if claims.RestaurantID != "" {
				restaurant, err := resolver.GetRestaurantByID(r.Context(), claims.RestaurantID)
				if err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						observability.TenantRejectionsTotal.WithLabelValues("tenant_unresolved").Inc()
						writeGuardError(w, http.StatusUnauthorized, api.NewTenantUnresolvedError())
						return
					}
					slog.Error("tenant lookup failed", "restaurant_id", claims.RestaurantID, "error", err)
					writeGuardError(w, http.StatusInternalServerError, api.NewServerError())
					return
				}
				ctx = storage.SetTenant(ctx, restaurant.ID)
			}

			debug.Log("auth", "request authorized",
				"user_id", identity.UserID,
				"session_id", identity.SessionID,
				"path", r.URL.Path,
			)

			// TenantResolved -> Authorized.
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant wraps a handler whose route carries an {id} path value
// naming a tenant. The path tenant must equal the token-derived tenant
// in the context: a caller without tenant context gets a 401, a caller
// bound to a different tenant gets a 403 and never sees foreign data.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := storage.GetTenant(r.Context())
		if tenantID == "" {
			observability.TenantRejectionsTotal.WithLabelValues("tenant_unresolved").Inc()
			writeGuardError(w, http.StatusUnauthorized, api.NewTenantUnresolvedError())
			return
		}

		if target := r.PathValue("id"); target != "" && target != tenantID {
			slog.Warn("cross-tenant access rejected",
				"tenant_id", tenantID,
				"target_id", target,
				"path", r.URL.Path,
			)
			observability.TenantRejectionsTotal.WithLabelValues("tenant_mismatch").Inc()
			writeGuardError(w, http.StatusForbidden, api.NewTenantMismatchError())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// DefaultBypassEndpoints lists endpoints that skip the guard. Entries
// ending in "/" match by prefix (the public menu surface has variable
// paths).
var DefaultBypassEndpoints = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/public/",
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/refresh",
	"/api/auth/logout",
	"/api/auth/clear-session",
}

// bypassed reports whether the path matches the bypass list. The lists
// are short; a linear scan is fine.
func bypassed(path string, bypass []string) bool {
	for _, ep := range bypass {
		if ep == path {
			return true
		}
		if strings.HasSuffix(ep, "/") && strings.HasPrefix(path, ep) {
			return true
		}
	}
	return false
}

// verificationError maps a token verification failure to its API error
// and metric label.
func verificationError(err error) (*api.APIError, string) {
	switch {
	case errors.Is(err, token.ErrExpired):
		return &api.APIError{Code: api.ErrorCodeTokenExpired, Message: "session expired"}, "token_expired"
	case errors.Is(err, token.ErrNotYetValid):
		return &api.APIError{Code: api.ErrorCodeTokenNotYetValid, Message: "token not yet valid"}, "token_not_yet_valid"
	case errors.Is(err, token.ErrMalformed):
		return &api.APIError{Code: api.ErrorCodeTokenInvalid, Message: "invalid session token"}, "token_invalid"
	default:
		return &api.APIError{Code: api.ErrorCodeTokenInvalid, Message: "invalid session token"}, "verification_failed"
	}
}

// writeGuardError writes the uniform failure envelope. The guard cannot
// use pkg/transport helpers without an import cycle.
func writeGuardError(w http.ResponseWriter, status int, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Envelope{
		Success: false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}
