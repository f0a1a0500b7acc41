// Package config handles loading and managing application configuration.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Order database and Redis
	Store StoreConfig

	// FitStack Core API configuration
	Core CoreConfig

	// Mercado Pago configuration
	MercadoPago MercadoPagoConfig

	// Security settings
	Security SecurityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"

	// PublicBaseURL is the customer-facing site the gateway redirects back
	// to; APIBaseURL is this service's externally reachable address, used
	// for the webhook notification URL.
	PublicBaseURL string
	APIBaseURL    string
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	// DatabaseURL is the Postgres DSN. Empty falls back to a local SQLite
	// file for development.
	DatabaseURL string
	RedisURL    string
}

// CoreConfig holds FitStack Core API configuration.
type CoreConfig struct {
	BaseURL string
	APIKey  string
}

// MercadoPagoConfig holds payment gateway configuration.
type MercadoPagoConfig struct {
	AccessToken   string
	WebhookSecret string
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	AdminAPIKey string
}

// Load reads configuration from environment variables, honoring a local
// .env file when present. Returns a Config struct with all settings populated.
func Load() *Config {
	// Ignore error if .env file doesn't exist
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			GinMode:       getEnv("GIN_MODE", "debug"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "https://fitstackapp.com"),
			APIBaseURL:    getEnv("API_BASE_URL", "https://api.fitstackapp.com/orders"),
		},
		Store: StoreConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Core: CoreConfig{
			BaseURL: getEnv("FITSTACK_CORE_URL", "http://localhost:8000"),
			APIKey:  getEnv("FITSTACK_CORE_API_KEY", ""),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:   getEnv("MP_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("MP_WEBHOOK_SECRET", ""),
		},
		Security: SecurityConfig{
			AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		},
	}
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
