package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a user or restaurant does not exist
	// or the restaurant has been soft-deleted.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when a user with the given email
	// already exists. The existing record is left untouched.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateSlug is returned when a live restaurant already owns
	// the given slug.
	ErrDuplicateSlug = errors.New("slug already taken")
)
