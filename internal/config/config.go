// Package config loads and validates app config from env and an optional .env file using Viper.
// Config is built once in main and passed down explicitly; nothing below cmd/ reads the environment.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 240 * time.Hour

	// EnvProduction is the APP_ENV value that turns on secure cookies and hides error details.
	EnvProduction = "production"

	minProductionSecretLen = 32
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN. Empty selects the in-memory user store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DBConnectAttempts bounds the startup connection retries.
	DBConnectAttempts int `mapstructure:"DB_CONNECT_ATTEMPTS"`
	// AccessTokenSecret signs access tokens. Must differ from RefreshTokenSecret.
	AccessTokenSecret string `mapstructure:"ACCESS_TOKEN_SECRET"`
	// RefreshTokenSecret signs refresh tokens.
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	// AccessTokenTTL is the access token lifetime (e.g. "15m").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "240h").
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// JWTIssuer is the iss claim stamped on and required of every token.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment. "production" sets Secure on cookies
	// and strips error details from responses.
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// CORSOrigin is the allowed browser origin; empty disables CORS headers.
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`

	// OTLPEndpoint is the OpenTelemetry collector (host:port or URL). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("ACCESS_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_TOKEN_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "240h") // 10d
	v.SetDefault("JWT_ISSUER", "streamline-auth")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGIN", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "streamline-auth")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and normalises BcryptCost.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.IsProduction() && (len(c.AccessTokenSecret) < minProductionSecretLen || len(c.RefreshTokenSecret) < minProductionSecretLen) {
		return errors.New("config: token secrets must be at least 32 bytes when APP_ENV=production")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.DBConnectAttempts <= 0 {
		c.DBConnectAttempts = 1
	}
	return nil
}

// IsProduction reports whether APP_ENV selects production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), EnvProduction)
}

// AccessTTL parses AccessTokenTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseTTL(c.AccessTokenTTL, defaultAccessTTL)
}

// RefreshTTL parses RefreshTokenTTL as a time.Duration. Returns 240h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseTTL(c.RefreshTokenTTL, defaultRefreshTTL)
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
