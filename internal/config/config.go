// Package config loads the server configuration from an optional YAML file,
// an optional .env file and environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// MinJWTSecretLength is the shortest accepted signing secret.
const MinJWTSecretLength = 32

// Config holds the settings of the API server.
type Config struct {
	Port int `yaml:"port"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`

	// IngestAPIKey guards the review ingestion RPC. Empty disables it.
	IngestAPIKey string `yaml:"ingest_api_key"`

	// AIProviderURL selects the HTTP generator. Empty falls back to
	// template replies.
	AIProviderURL string        `yaml:"ai_provider_url"`
	AIAPIKey      string        `yaml:"ai_api_key"`
	AITimeout     time.Duration `yaml:"ai_timeout"`

	PublishInterval time.Duration `yaml:"publish_interval"`

	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:            8080,
		DBDriver:        DriverSQLite,
		DBDSN:           "./data/salonmate.db",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		AITimeout:       20 * time.Second,
		PublishInterval: time.Minute,
		CORSOrigins:     []string{"*"},
		LogLevel:        "info",
	}
}

// Load builds the configuration. path names an optional YAML file; a
// missing file is not an error when path is empty. envFile names an optional
// dotenv file that is ignored when absent.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if envFile != "" {
		// Variables already set in the environment win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	str("DB_DRIVER", &c.DBDriver)
	str("DB_DSN", &c.DBDSN)
	str("JWT_SECRET", &c.JWTSecret)
	str("INGEST_API_KEY", &c.IngestAPIKey)
	str("AI_PROVIDER_URL", &c.AIProviderURL)
	str("AI_API_KEY", &c.AIAPIKey)
	str("LOG_LEVEL", &c.LogLevel)

	for key, dst := range map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &c.RefreshTokenTTL,
		"AI_TIMEOUT":        &c.AITimeout,
		"PUBLISH_INTERVAL":  &c.PublishInterval,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
	return nil
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	case c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres:
		return fmt.Errorf("db_driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	case c.DBDSN == "":
		return errors.New("db_dsn is required")
	case len(c.JWTSecret) < MinJWTSecretLength:
		return fmt.Errorf("jwt_secret must be at least %d characters", MinJWTSecretLength)
	case c.AccessTokenTTL <= 0:
		return errors.New("access_token_ttl must be positive")
	case c.RefreshTokenTTL <= 0:
		return errors.New("refresh_token_ttl must be positive")
	case c.AITimeout <= 0:
		return errors.New("ai_timeout must be positive")
	case c.PublishInterval <= 0:
		return errors.New("publish_interval must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
