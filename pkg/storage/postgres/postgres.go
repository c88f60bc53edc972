// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and embedded SQL files for schema
// migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuqr/menuqr/pkg/debug"
	"github.com/menuqr/menuqr/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// CreateUser inserts a user. A unique violation on the email index maps
// to ErrDuplicateEmail and leaves the existing row untouched.
func (s *Store) CreateUser(ctx context.Context, user *storage.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Email, user.PasswordHash, user.Role, createdAt)

	if err != nil {
		if isUniqueViolation(err, "users_email") {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by lowercase email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return s.getUser(ctx, "lower(email) = lower($1)", email)
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*storage.User, error) {
	var u storage.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE `+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return &u, nil
}

// CreateRestaurant inserts a restaurant. A unique violation on the live
// slug index maps to ErrDuplicateSlug.
func (s *Store) CreateRestaurant(ctx context.Context, r *storage.Restaurant) error {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO restaurants (id, owner_id, name, slug, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.OwnerID, r.Name, r.Slug, createdAt)

	if err != nil {
		if isUniqueViolation(err, "restaurants_slug") {
			return storage.ErrDuplicateSlug
		}
		return fmt.Errorf("inserting restaurant: %w", err)
	}

	return nil
}

// GetRestaurantByID retrieves a live restaurant by id.
func (s *Store) GetRestaurantByID(ctx context.Context, id string) (*storage.Restaurant, error) {
	return s.getRestaurant(ctx, "id = $1", id)
}

// GetRestaurantBySlug retrieves a live restaurant by its public slug.
func (s *Store) GetRestaurantBySlug(ctx context.Context, slug string) (*storage.Restaurant, error) {
	return s.getRestaurant(ctx, "slug = $1", slug)
}

// GetRestaurantByOwner retrieves the live restaurant owned by the user.
func (s *Store) GetRestaurantByOwner(ctx context.Context, ownerID string) (*storage.Restaurant, error) {
	return s.getRestaurant(ctx, "owner_id = $1", ownerID)
}

func (s *Store) getRestaurant(ctx context.Context, where string, arg any) (*storage.Restaurant, error) {
	var r storage.Restaurant
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, slug, created_at, deleted_at
		FROM restaurants
		WHERE deleted_at IS NULL AND `+where,
		arg,
	).Scan(&r.ID, &r.OwnerID, &r.Name, &r.Slug, &r.CreatedAt, &r.DeletedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying restaurant: %w", err)
	}

	return &r, nil
}

// UpdateRestaurantName renames a live restaurant. When a tenant is set in
// the context, the update is additionally fenced to that tenant's row.
func (s *Store) UpdateRestaurantName(ctx context.Context, id, name string) error {
	query := `UPDATE restaurants SET name = $1 WHERE id = $2 AND deleted_at IS NULL`
	args := []any{name, id}

	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND id = $3"
		args = append(args, tenantID)
		debug.Log("storage", "update fenced to tenant", "restaurant_id", id, "tenant_id", tenantID)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteRestaurant soft-deletes a restaurant, freeing its slug for reuse.
// Tenant-fenced like UpdateRestaurantName.
func (s *Store) DeleteRestaurant(ctx context.Context, id string) error {
	query := `UPDATE restaurants SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`
	args := []any{id}

	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND id = $2"
		args = append(args, tenantID)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Ping checks database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// isUniqueViolation checks for a PostgreSQL unique violation (23505) on a
// constraint whose name contains the given fragment.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, constraint)
}
