package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/menuqr/menuqr/pkg/storage"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if Docker is not available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	// Verify podman is running.
	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("menuqr_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// createOwner inserts a user with a unique email and returns it.
func createOwner(t *testing.T, store *Store) *storage.User {
	t.Helper()
	user := &storage.User{
		ID:           uuid.NewString(),
		Email:        fmt.Sprintf("owner-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "$2a$10$fakehash",
		Role:         "owner",
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func TestPostgres_CreateAndGetUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := createOwner(t, store)

	got, err := store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID = %q, want %q", got.ID, user.ID)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, user.PasswordHash)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("Email = %q, want %q", byID.Email, user.Email)
	}
}

func TestPostgres_DuplicateEmail(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	first := createOwner(t, store)

	second := &storage.User{ID: uuid.NewString(), Email: first.Email, PasswordHash: "h2", Role: "owner"}
	if err := store.CreateUser(ctx, second); !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	// Case-insensitive: the unique index is on lower(email).
	upper := &storage.User{ID: uuid.NewString(), Email: strings.ToUpper(first.Email), PasswordHash: "h3", Role: "owner"}
	if err := store.CreateUser(ctx, upper); !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail for case variant, got %v", err)
	}

	// The original record is unchanged.
	got, err := store.GetUserByEmail(ctx, first.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.PasswordHash != first.PasswordHash {
		t.Errorf("PasswordHash = %q, want original", got.PasswordHash)
	}
}

func TestPostgres_GetUserNotFound(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_RestaurantLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	owner := createOwner(t, store)

	r := &storage.Restaurant{
		ID:      uuid.NewString(),
		OwnerID: owner.ID,
		Name:    "Trattoria",
		Slug:    "trattoria-" + uniqueSuffix(),
	}
	if err := store.CreateRestaurant(ctx, r); err != nil {
		t.Fatalf("CreateRestaurant failed: %v", err)
	}

	bySlug, err := store.GetRestaurantBySlug(ctx, r.Slug)
	if err != nil {
		t.Fatalf("GetRestaurantBySlug failed: %v", err)
	}
	if bySlug.ID != r.ID {
		t.Errorf("ID = %q, want %q", bySlug.ID, r.ID)
	}

	byOwner, err := store.GetRestaurantByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetRestaurantByOwner failed: %v", err)
	}
	if byOwner.ID != r.ID {
		t.Errorf("ID = %q, want %q", byOwner.ID, r.ID)
	}

	if err := store.UpdateRestaurantName(ctx, r.ID, "Trattoria Nuova"); err != nil {
		t.Fatalf("UpdateRestaurantName failed: %v", err)
	}
	renamed, err := store.GetRestaurantByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRestaurantByID failed: %v", err)
	}
	if renamed.Name != "Trattoria Nuova" {
		t.Errorf("Name = %q, want Trattoria Nuova", renamed.Name)
	}
	if renamed.Slug != r.Slug {
		t.Errorf("Slug changed on rename: %q", renamed.Slug)
	}
}

func TestPostgres_SoftDeleteFreesSlug(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	slug := "reuse-" + uniqueSuffix()

	first := &storage.Restaurant{ID: uuid.NewString(), OwnerID: createOwner(t, store).ID, Name: "First", Slug: slug}
	if err := store.CreateRestaurant(ctx, first); err != nil {
		t.Fatalf("CreateRestaurant failed: %v", err)
	}

	// Live duplicate is rejected.
	dup := &storage.Restaurant{ID: uuid.NewString(), OwnerID: createOwner(t, store).ID, Name: "Second", Slug: slug}
	if err := store.CreateRestaurant(ctx, dup); !errors.Is(err, storage.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	if err := store.DeleteRestaurant(ctx, first.ID); err != nil {
		t.Fatalf("DeleteRestaurant failed: %v", err)
	}
	if _, err := store.GetRestaurantBySlug(ctx, slug); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// The partial unique index only covers live rows.
	if err := store.CreateRestaurant(ctx, dup); err != nil {
		t.Errorf("slug not freed after soft delete: %v", err)
	}
}

func TestPostgres_TenantFencing(t *testing.T) {
	store := setupTestDB(t)

	r := &storage.Restaurant{ID: uuid.NewString(), OwnerID: createOwner(t, store).ID, Name: "Mine", Slug: "mine-" + uniqueSuffix()}
	if err := store.CreateRestaurant(context.Background(), r); err != nil {
		t.Fatalf("CreateRestaurant failed: %v", err)
	}

	foreign := storage.SetTenant(context.Background(), uuid.NewString())
	if err := store.UpdateRestaurantName(foreign, r.ID, "Hijacked"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-tenant update: expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteRestaurant(foreign, r.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-tenant delete: expected ErrNotFound, got %v", err)
	}

	own := storage.SetTenant(context.Background(), r.ID)
	if err := store.UpdateRestaurantName(own, r.ID, "Renamed"); err != nil {
		t.Errorf("own-tenant update failed: %v", err)
	}
}

func TestPostgres_Ping(t *testing.T) {
	store := setupTestDB(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
