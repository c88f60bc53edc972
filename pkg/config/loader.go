package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, MENUQR_CONFIG env, ./config.yaml, /etc/menuqr/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. MENUQR_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/menuqr/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check MENUQR_CONFIG env var.
	if envPath := os.Getenv("MENUQR_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/menuqr/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MENUQR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MENUQR_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("MENUQR_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("MENUQR_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("MENUQR_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("MENUQR_ACCESS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.AccessTTL = d
		}
	}
	if v := os.Getenv("MENUQR_REFRESH_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.RefreshTTL = d
		}
	}
	if v := os.Getenv("MENUQR_DEBUG"); v != "" {
		cfg.Debug.Categories = v
	}
	if v := os.Getenv("MENUQR_LOG_LEVEL"); v != "" {
		cfg.Debug.Level = v
	}
}

// resolveFileReferences loads values for fields with a _file variant.
// An explicit inline value wins over its _file counterpart.
func resolveFileReferences(cfg *Config) error {
	if cfg.Auth.Secret == "" && cfg.Auth.SecretFile != "" {
		v, err := readFileValue(cfg.Auth.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.secret_file: %w", err)
		}
		cfg.Auth.Secret = v
	}

	if cfg.Storage.Postgres.DSN == "" && cfg.Storage.Postgres.DSNFile != "" {
		v, err := readFileValue(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = v
	}

	return nil
}

// readFileValue reads a single-value file, trimming surrounding whitespace.
func readFileValue(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
