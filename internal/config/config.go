// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Store backends selectable via STORE_BACKEND.
const (
	// BackendMemory keeps all state in process memory. Credentials and
	// revocations do not survive a restart; intended for development and
	// tests only.
	BackendMemory = "memory"

	// BackendDurable persists credentials in MariaDB and challenges plus
	// revocations in Redis.
	BackendDurable = "durable"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for CORS origin checks.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// StoreBackend selects where stores live: "memory" or "durable".
	StoreBackend string

	// Database holds MariaDB connection settings (durable backend only).
	Database DatabaseConfig

	// Redis holds Redis connection settings (durable backend only).
	Redis RedisConfig

	// Auth holds token and challenge settings.
	Auth AuthConfig

	// SMTP holds outbound email settings for 2FA code delivery.
	SMTP SMTPConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "keywarden").
	User string

	// Password is the MariaDB password (default: "keywarden").
	Password string

	// Name is the database name (default: "keywarden").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN() to
// safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds token signing and challenge settings.
type AuthConfig struct {
	// TokenSecret is the HMAC key for session token signing (32+ bytes).
	TokenSecret string

	// TokenTTL is how long a session token is valid after issuance.
	TokenTTL time.Duration

	// ChallengeTTL is how long a two-factor challenge stays verifiable.
	ChallengeTTL time.Duration

	// RevocationGrace is added to a revocation entry's lifetime on top of
	// the revoked token's remaining validity, absorbing clock skew between
	// the service and the store. An entry must never expire before the
	// token it bans.
	RevocationGrace time.Duration
}

// SMTPConfig holds outbound mail settings. When Host is empty the service
// falls back to a log-only mailer (development).
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string

	// Encryption is the transport mode: "starttls" (default), "ssl", or "none".
	Encryption string
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:          getEnv("ENV", "development"),
		Port:         getEnvInt("PORT", 8080),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:     getEnv("LOG_LEVEL", "debug"),
		StoreBackend: getEnv("STORE_BACKEND", BackendMemory),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "keywarden"),
			Password:        getEnv("DB_PASSWORD", "keywarden"),
			Name:            getEnv("DB_NAME", "keywarden"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			TokenSecret:     getEnv("TOKEN_SECRET", ""),
			TokenTTL:        getEnvDuration("TOKEN_TTL", 10*time.Minute),
			ChallengeTTL:    getEnvDuration("CHALLENGE_TTL", 10*time.Minute),
			RevocationGrace: getEnvDuration("REVOCATION_GRACE", time.Minute),
		},

		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromName:    getEnv("SMTP_FROM_NAME", "Keywarden"),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "no-reply@localhost"),
			Encryption:  getEnv("SMTP_ENCRYPTION", "starttls"),
		},
	}

	if cfg.StoreBackend != BackendMemory && cfg.StoreBackend != BackendDurable {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q",
			BackendMemory, BackendDurable, cfg.StoreBackend)
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.TokenSecret == "" {
			return nil, fmt.Errorf("TOKEN_SECRET is required in production")
		}
		if len(cfg.Auth.TokenSecret) < 32 {
			return nil, fmt.Errorf("TOKEN_SECRET must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.TokenSecret == "" {
		cfg.Auth.TokenSecret = "dev-token-secret-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "10m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
