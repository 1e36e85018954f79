package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Messaging MessagingConfig
	Matching  MatchingConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MessagingConfig holds configuration for the external messaging service
// that provides conversation channels between families and agencies.
type MessagingConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// MatchingConfig holds tunables for the matching engine.
type MatchingConfig struct {
	// CandidateLimit is the default storage page size per matching run.
	CandidateLimit int
	// WorkerCount bounds concurrent persistence/provisioning per run.
	WorkerCount int
	// FallbackLocation is used when a patient record has no city/state.
	FallbackLocation string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "carematch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Messaging: MessagingConfig{
			BaseURL:        getEnv("MESSAGING_BASE_URL", "http://localhost:9090"),
			APIKey:         getEnv("MESSAGING_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("MESSAGING_TIMEOUT_SECONDS", 10),
		},
		Matching: MatchingConfig{
			CandidateLimit:   getEnvAsInt("MATCHING_CANDIDATE_LIMIT", 50),
			WorkerCount:      getEnvAsInt("MATCHING_WORKER_COUNT", 8),
			FallbackLocation: getEnv("MATCHING_FALLBACK_LOCATION", "Los Angeles, CA"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "carematch"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultServiceAliases maps intake-form service slugs to the catalog slugs
// agencies rate and price against. Injected into the requirements resolver so
// tests can override it.
func DefaultServiceAliases() map[string]string {
	return map[string]string{
		"medication-reminders": "medication-management",
		"mobility-support":     "mobility-assistance",
		"transfers":            "transfer-assistance",
		"personal-hygiene":     "bathing-dressing",
		"meal-prep":            "meal-preparation",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
