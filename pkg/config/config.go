// Package config provides unified configuration for the QR menu platform.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (MENUQR_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// The result is constructed once at startup and treated as immutable:
// the signing secret and the deployment mode are threaded through
// explicitly, never read from the environment at call sites.
package config

import "time"

// Deployment modes. The mode drives the Secure attribute of session
// cookies; it must be "production" on any publicly reachable deployment.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// Config holds all configuration for the platform server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Debug         DebugConfig         `yaml:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds token service and session transport settings.
type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	Issuer     string        `yaml:"issuer"`      // default: "qr-menu-platform"
	Audience   string        `yaml:"audience"`    // default: "qr-menu-users"
	AccessTTL  time.Duration `yaml:"access_ttl"`  // default: 168h (7 days)
	RefreshTTL time.Duration `yaml:"refresh_ttl"` // default: 720h (30 days)

	// Mode is the deployment mode: "production" or "development".
	Mode string `yaml:"mode"`

	// LoginRatePerMinute throttles credential attempts per email.
	// 0 disables throttling (the token service itself never limits
	// concurrent logins).
	LoginRatePerMinute int `yaml:"login_rate_per_minute"`
}

// Production reports whether the deployment mode is production.
func (a AuthConfig) Production() bool {
	return a.Mode == ModeProduction
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// DebugConfig holds debug logging settings (see pkg/debug).
type DebugConfig struct {
	Categories string `yaml:"categories"`
	Level      string `yaml:"level"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Issuer:     "qr-menu-platform",
			Audience:   "qr-menu-users",
			AccessTTL:  7 * 24 * time.Hour,
			RefreshTTL: 30 * 24 * time.Hour,
			Mode:       ModeDevelopment,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
