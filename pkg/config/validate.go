package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	// The token service cannot run without a signing secret.
	if c.Auth.Secret == "" && c.Auth.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.secret or auth.secret_file is required"))
	}

	// auth.mode must be a known value.
	switch c.Auth.Mode {
	case ModeProduction, ModeDevelopment:
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be %q or %q, got %q", ModeProduction, ModeDevelopment, c.Auth.Mode))
	}

	// Token lifetimes must be positive.
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.access_ttl must be > 0, got %s", c.Auth.AccessTTL))
	}
	if c.Auth.RefreshTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.refresh_ttl must be > 0, got %s", c.Auth.RefreshTTL))
	}

	return errors.Join(errs...)
}
