package api

import "time"

// Role values carried in session tokens.
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// User is the public view of a user record. The password hash never
// appears here.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"`
}

// Restaurant is the public view of a tenant record.
type Restaurant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Envelope is the uniform response body of every auth endpoint:
// {success, token?, user?, message?}. Failures set Success=false and
// Message; Code carries the machine-readable taxonomy entry.
type Envelope struct {
	Success    bool        `json:"success"`
	Token      string      `json:"token,omitempty"`
	User       *User       `json:"user,omitempty"`
	Restaurant *Restaurant `json:"restaurant,omitempty"`
	Code       ErrorCode   `json:"code,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// RegisterRequest is the payload of POST /api/auth/register. The
// restaurant name is optional; when present a tenant record is created
// in the same flow and bound to the issued token.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RestaurantName string `json:"restaurant_name,omitempty"`
}

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRestaurantRequest is the payload of PATCH /api/restaurant.
// The slug is immutable once published and deliberately absent here.
type UpdateRestaurantRequest struct {
	Name string `json:"name"`
}
