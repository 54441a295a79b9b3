package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStoreMemory  = "memory"
	SessionStoreMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server        ServerConfig
	Backend       BackendConfig
	Session       SessionConfig
	MongoDB       MongoDBConfig
	Notifications NotificationsConfig
	Currency      CurrencyConfig
	Timezone      string
	LogLevel      string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// BackendConfig points at the salon REST API, the record of truth for sales and stock.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig selects where the session token is persisted.
type SessionConfig struct {
	Store string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// NotificationsConfig holds the polling schedule of the notification feed.
type NotificationsConfig struct {
	PollSchedule string
}

// CurrencyConfig holds display currency settings.
type CurrencyConfig struct {
	Base            string
	RefreshSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env files are acceptable when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("BACKEND_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Backend: BackendConfig{
			BaseURL: os.Getenv("BACKEND_BASE_URL"),
			Timeout: timeout,
		},
		Session: SessionConfig{
			Store: strings.ToLower(getenvWithDefault("SESSION_STORE", SessionStoreMemory)),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "salonpos"),
		},
		Notifications: NotificationsConfig{
			PollSchedule: getenvWithDefault("NOTIFICATIONS_POLL_SCHEDULE", "@every 30s"),
		},
		Currency: CurrencyConfig{
			Base:            strings.ToUpper(getenvWithDefault("CURRENCY_BASE", "XOF")),
			RefreshSchedule: getenvWithDefault("CURRENCY_REFRESH_SCHEDULE", "@every 1h"),
		},
		Timezone: getenvWithDefault("TIMEZONE", "Africa/Dakar"),
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL must be provided")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided when SESSION_STORE=mongodb")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}

	if c.Notifications.PollSchedule == "" {
		return errors.New("NOTIFICATIONS_POLL_SCHEDULE must not be empty")
	}

	if c.Currency.Base == "" {
		return errors.New("CURRENCY_BASE must not be empty")
	}
	if c.Currency.RefreshSchedule == "" {
		return errors.New("CURRENCY_REFRESH_SCHEDULE must not be empty")
	}

	if c.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
