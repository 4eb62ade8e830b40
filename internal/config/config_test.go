package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
port: 9090
db_driver: pgx
db_dsn: postgres://localhost/salonmate
jwt_secret: `+testSecret+`
access_token_ttl: 5m
publish_interval: 30s
cors_origins:
  - https://app.salonmate.kr
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 || cfg.DBDriver != DriverPostgres {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.PublishInterval != 30*time.Second {
		t.Errorf("durations not parsed: %v %v", cfg.AccessTokenTTL, cfg.PublishInterval)
	}
	if cfg.RefreshTokenTTL != Default().RefreshTokenTTL {
		t.Errorf("unset keys should keep defaults, got %v", cfg.RefreshTokenTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.salonmate.kr" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "AI_PROVIDER_URL=https://ai.example.com/v1\n")
	t.Setenv("AI_PROVIDER_URL", "")
	os.Unsetenv("AI_PROVIDER_URL")

	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AIProviderURL != "https://ai.example.com/v1" {
		t.Errorf("expected value from .env, got %q", cfg.AIProviderURL)
	}

	if _, err := Load("", filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":             "7070",
		"JWT_SECRET":       testSecret,
		"AI_TIMEOUT":       "3s",
		"CORS_ORIGINS":     "http://a.test, http://b.test ,",
		"DB_DRIVER":        "sqlite",
		"PUBLISH_INTERVAL": "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}
	if cfg.Port != 7070 || cfg.AITimeout != 3*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.PublishInterval != time.Minute {
		t.Errorf("empty env value should not override, got %v", cfg.PublishInterval)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "http://a.test|http://b.test" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}

	bad := Default()
	env = map[string]string{"AI_TIMEOUT": "soon"}
	if err := bad.applyEnv(lookup); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "jwt_secret"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "db_driver"},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }, "db_dsn"},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "access_token_ttl"},
		{"negative refresh ttl", func(c *Config) { c.RefreshTokenTTL = -time.Second }, "refresh_token_ttl"},
		{"zero publish interval", func(c *Config) { c.PublishInterval = 0 }, "publish_interval"},
		{"bad port", func(c *Config) { c.Port = 0 }, "port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.JWTSecret = testSecret
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
