package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %q, want memory", cfg.Storage.Type)
	}
	if cfg.Auth.Issuer != "qr-menu-platform" {
		t.Errorf("issuer = %q", cfg.Auth.Issuer)
	}
	if cfg.Auth.Audience != "qr-menu-users" {
		t.Errorf("audience = %q", cfg.Auth.Audience)
	}
	if cfg.Auth.AccessTTL != 7*24*time.Hour {
		t.Errorf("access ttl = %s, want 168h", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 30*24*time.Hour {
		t.Errorf("refresh ttl = %s, want 720h", cfg.Auth.RefreshTTL)
	}
	if cfg.Auth.Production() {
		t.Error("default mode must not be production")
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("metrics must default to enabled")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
storage:
  type: postgres
  postgres:
    dsn: postgres://test@localhost/menuqr
auth:
  secret: yaml-secret
  mode: production
  access_ttl: 24h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Type != "postgres" {
		t.Errorf("storage type = %q, want postgres", cfg.Storage.Type)
	}
	if cfg.Auth.Secret != "yaml-secret" {
		t.Errorf("secret = %q", cfg.Auth.Secret)
	}
	if !cfg.Auth.Production() {
		t.Error("mode = development, want production")
	}
	if cfg.Auth.AccessTTL != 24*time.Hour {
		t.Errorf("access ttl = %s, want 24h", cfg.Auth.AccessTTL)
	}
	// Unset fields keep their defaults.
	if cfg.Auth.RefreshTTL != 30*24*time.Hour {
		t.Errorf("refresh ttl = %s, want default", cfg.Auth.RefreshTTL)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\nauth:\n  secret: file-secret\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("MENUQR_PORT", "7070")
	t.Setenv("MENUQR_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("secret = %q, want env override", cfg.Auth.Secret)
	}
}

func TestSecretFileReference(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret")
	if err := os.WriteFile(secretPath, []byte("  file-held-secret\n"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("auth:\n  secret_file: "+secretPath+"\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Secret != "file-held-secret" {
		t.Errorf("secret = %q, want trimmed file content", cfg.Auth.Secret)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.Auth.Secret = "s"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.Secret = "" }, "auth.secret"},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "redis" }, "storage.type"},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = "postgres" }, "storage.postgres.dsn"},
		{"unknown mode", func(c *Config) { c.Auth.Mode = "staging" }, "auth.mode"},
		{"zero access ttl", func(c *Config) { c.Auth.AccessTTL = 0 }, "auth.access_ttl"},
		{"negative refresh ttl", func(c *Config) { c.Auth.RefreshTTL = -time.Hour }, "auth.refresh_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
