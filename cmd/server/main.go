// Command server runs the QR menu platform API.
//
// Configuration is layered: built-in defaults, an optional YAML config
// file (-config flag, MENUQR_CONFIG, ./config.yaml, or
// /etc/menuqr/config.yaml), then MENUQR_* environment overrides:
//
//	MENUQR_PORT       - Listen port (default: 8080)
//	MENUQR_STORAGE    - Storage type: "memory" or "postgres" (default: "memory")
//	MENUQR_DSN        - PostgreSQL connection string
//	MENUQR_SECRET     - Token signing secret (required)
//	MENUQR_MODE       - "production" or "development" (default: "development")
//	MENUQR_DEBUG      - Debug categories (e.g. "auth,storage" or "all")
//	MENUQR_LOG_LEVEL  - Log level (debug, info, warn, error, trace)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/menuqr/menuqr/pkg/auth"
	"github.com/menuqr/menuqr/pkg/auth/session"
	"github.com/menuqr/menuqr/pkg/auth/token"
	"github.com/menuqr/menuqr/pkg/config"
	"github.com/menuqr/menuqr/pkg/debug"
	"github.com/menuqr/menuqr/pkg/storage"
	"github.com/menuqr/menuqr/pkg/storage/memory"
	"github.com/menuqr/menuqr/pkg/storage/postgres"
	"github.com/menuqr/menuqr/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	ctx := context.Background()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	tokens, err := token.New(token.Config{
		Secret:     []byte(cfg.Auth.Secret),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	sessions := session.NewTransport(cfg.Auth.Production())

	var limiter auth.RateLimiter
	if cfg.Auth.LoginRatePerMinute > 0 {
		limiter = auth.NewInProcessLimiter(cfg.Auth.LoginRatePerMinute)
		slog.Info("login throttling enabled", "per_minute", cfg.Auth.LoginRatePerMinute)
	}

	handler := transport.NewHandler(store, tokens, sessions, limiter)
	guard := auth.Middleware(tokens, sessions, store, auth.DefaultBypassEndpoints)

	srv := transport.NewServer(handler, guard, store,
		transport.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transport.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transport.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transport.WithMetrics(cfg.Observability.Metrics.Enabled, cfg.Observability.Metrics.Path),
	)

	slog.Info("configuration loaded",
		"storage", cfg.Storage.Type,
		"mode", cfg.Auth.Mode,
		"issuer", cfg.Auth.Issuer,
	)

	return srv.ListenAndServe()
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	}
}
