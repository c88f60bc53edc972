// Package memory provides an in-memory implementation of storage.Store
// for testing and lightweight deployments. Records are lost when the
// process restarts.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/menuqr/menuqr/pkg/storage"
)

// Store is an in-memory storage.Store guarded by a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*storage.User       // by id
	usersByMail map[string]string              // lowercase email -> id
	restaurants map[string]*storage.Restaurant // by id
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:       make(map[string]*storage.User),
		usersByMail: make(map[string]string),
		restaurants: make(map[string]*storage.Restaurant),
	}
}

// CreateUser inserts a user. Returns ErrDuplicateEmail when the email is
// already registered; the existing record is not modified.
func (s *Store) CreateUser(_ context.Context, user *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByMail[user.Email]; exists {
		return storage.ErrDuplicateEmail
	}

	u := *user
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = &u
	s.usersByMail[u.Email] = u.ID
	return nil
}

// GetUserByEmail retrieves a user by lowercase email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByMail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(_ context.Context, id string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// CreateRestaurant inserts a restaurant. Returns ErrDuplicateSlug when a
// live restaurant already owns the slug.
func (s *Store) CreateRestaurant(_ context.Context, r *storage.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.restaurants {
		if existing.DeletedAt == nil && existing.Slug == r.Slug {
			return storage.ErrDuplicateSlug
		}
	}

	copied := *r
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	s.restaurants[copied.ID] = &copied
	return nil
}

// GetRestaurantByID retrieves a live restaurant by id.
func (s *Store) GetRestaurantByID(_ context.Context, id string) (*storage.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.restaurants[id]
	if !ok || r.DeletedAt != nil {
		return nil, storage.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

// GetRestaurantBySlug retrieves a live restaurant by its public slug.
func (s *Store) GetRestaurantBySlug(_ context.Context, slug string) (*storage.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.restaurants {
		if r.DeletedAt == nil && r.Slug == slug {
			copied := *r
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetRestaurantByOwner retrieves the live restaurant owned by the user.
func (s *Store) GetRestaurantByOwner(_ context.Context, ownerID string) (*storage.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.restaurants {
		if r.DeletedAt == nil && r.OwnerID == ownerID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

// UpdateRestaurantName renames a live restaurant. When a tenant is set in
// the context, a mismatching id behaves as ErrNotFound.
func (s *Store) UpdateRestaurantName(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tenantID := storage.GetTenant(ctx); tenantID != "" && tenantID != id {
		return storage.ErrNotFound
	}

	r, ok := s.restaurants[id]
	if !ok || r.DeletedAt != nil {
		return storage.ErrNotFound
	}
	r.Name = name
	return nil
}

// DeleteRestaurant soft-deletes a restaurant, freeing its slug for reuse.
func (s *Store) DeleteRestaurant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tenantID := storage.GetTenant(ctx); tenantID != "" && tenantID != id {
		return storage.ErrNotFound
	}

	r, ok := s.restaurants[id]
	if !ok || r.DeletedAt != nil {
		return storage.ErrNotFound
	}
	now := time.Now().UTC()
	r.DeletedAt = &now
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() {}
