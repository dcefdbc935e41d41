package config

import (
	"encoding/base64"
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/TravelmateGo/pkg/config"
)

// defaultJWTSecret is the development-only signing secret (base64 of
// "travelmate-development-signing-secret-do-not-ship").
const defaultJWTSecret = "dHJhdmVsbWF0ZS1kZXZlbG9wbWVudC1zaWduaW5nLXNlY3JldC1kby1ub3Qtc2hpcA=="

// Config holds all configuration for the member service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"MEMBER_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"travelmate"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"travelmate_secret"`
	PostgresDB   string `env:"MEMBER_DB_NAME" envDefault:"member_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT. The secret is base64-encoded key material, decoded at startup.
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"dHJhdmVsbWF0ZS1kZXZlbG9wbWVudC1zaWduaW5nLXNlY3JldC1kby1ub3Qtc2hpcA=="`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Refresh rotation lock
	RefreshLockTTL time.Duration `env:"REFRESH_LOCK_TTL" envDefault:"5s"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load member config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	decoded, err := base64.StdEncoding.DecodeString(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET must be valid base64: %w", err)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(decoded) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must decode to at least 32 bytes, got %d", len(decoded))
		}
	}

	if cfg.JWTAccessExpiry <= 0 || cfg.JWTRefreshExpiry <= 0 {
		return nil, fmt.Errorf("token expiries must be positive")
	}
	if cfg.JWTRefreshExpiry <= cfg.JWTAccessExpiry {
		return nil, fmt.Errorf("refresh expiry (%s) must exceed access expiry (%s)", cfg.JWTRefreshExpiry, cfg.JWTAccessExpiry)
	}
	if cfg.RefreshLockTTL <= 0 {
		return nil, fmt.Errorf("refresh lock TTL must be positive")
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
