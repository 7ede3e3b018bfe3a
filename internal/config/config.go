package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string

	// Redis (optional, enables per-contract distributed locks)
	RedisURL string

	// JWT
	JWTSecret string

	// Bcrypt hash of the API key accepted on internal endpoints
	APIKeyHash string

	// Storage
	StoragePath string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// Recognition
	BusinessTimezone       string
	Location               *time.Location
	VATRate                decimal.Decimal
	DefaultCurrency        string
	RecognitionInterval    time.Duration
	RecognitionConcurrency int
	RecognitionLockTTL     time.Duration
	RecognitionRunOnStart  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		Environment:            getEnv("ENVIRONMENT", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		APIKeyHash:             getEnv("API_KEY_HASH", ""),
		StoragePath:            getEnv("STORAGE_PATH", "./storage"),
		WorkerCount:            getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:         getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:              getEnv("SENTRY_DSN", ""),
		BusinessTimezone:       getEnv("BUSINESS_TIMEZONE", "Asia/Dubai"),
		DefaultCurrency:        strings.ToUpper(getEnv("DEFAULT_CURRENCY", "AED")),
		RecognitionInterval:    getEnvAsDuration("RECOGNITION_INTERVAL", 24*time.Hour),
		RecognitionConcurrency: getEnvAsInt("RECOGNITION_CONCURRENCY", 1),
		RecognitionLockTTL:     getEnvAsDuration("RECOGNITION_LOCK_TTL", 5*time.Minute),
		RecognitionRunOnStart:  getEnvAsBool("RECOGNITION_RUN_ON_START", false),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}
	cfg.Location = loc

	vatRate, err := decimal.NewFromString(getEnv("VAT_RATE", "0.05"))
	if err != nil {
		return nil, fmt.Errorf("invalid VAT_RATE: %w", err)
	}
	if vatRate.IsNegative() || vatRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("VAT_RATE must be in [0, 1), got %s", vatRate)
	}
	cfg.VATRate = vatRate

	if len(cfg.DefaultCurrency) != 3 {
		return nil, fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", cfg.DefaultCurrency)
	}

	if cfg.RecognitionConcurrency < 1 {
		cfg.RecognitionConcurrency = 1
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as boolean
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration reads an environment variable as a Go duration ("24h", "90s")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
