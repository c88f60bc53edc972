package storage

import (
	"context"
	"time"
)

// User is the identity record. Users are created at registration and
// never hard-deleted.
type User struct {
	ID           string
	Email        string // stored lowercase, unique
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Restaurant is the tenant record. The slug is the public lookup key of
// the published menu and must resolve to exactly one live restaurant.
// Deletion is soft: DeletedAt is set and the row stays.
type Restaurant struct {
	ID        string
	OwnerID   string
	Name      string
	Slug      string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Store is the persistence contract shared by the memory and postgres
// implementations.
//
// Tenant-scoped mutations (UpdateRestaurantName, DeleteRestaurant)
// additionally honor the tenant identifier in the context: when one is
// set, a mismatching target behaves as ErrNotFound so a caller can never
// mutate a foreign tenant's row.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	CreateRestaurant(ctx context.Context, r *Restaurant) error
	GetRestaurantByID(ctx context.Context, id string) (*Restaurant, error)
	GetRestaurantBySlug(ctx context.Context, slug string) (*Restaurant, error)
	GetRestaurantByOwner(ctx context.Context, ownerID string) (*Restaurant, error)
	UpdateRestaurantName(ctx context.Context, id, name string) error
	DeleteRestaurant(ctx context.Context, id string) error

	Close()
}
