package auth

import "errors"

// Identity represents an authenticated caller, built from the verified
// claim set of a session token.
type Identity struct {
	// UserID is the unique user identifier (required, non-empty).
	UserID string

	// Email is the login email, stored lowercase.
	Email string

	// Role is the caller's role ("owner" or "staff").
	Role string

	// RestaurantID is the tenant the token is bound to. Empty for users
	// without a restaurant.
	RestaurantID string

	// SessionID identifies the login session the token belongs to.
	SessionID string
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)
