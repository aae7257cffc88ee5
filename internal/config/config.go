package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Cache backend names accepted by CACHE_BACKEND
const (
	BackendRedis    = "redis"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds all application configurations
// All sensitive values are loaded from .env
type Config struct {
	// Server Configuration
	Environment string
	ServerPort  string

	// Cache backend selection: redis (default), memory, or postgres
	CacheBackend string

	// Redis configuration. The endpoint and auth token match what managed
	// caches hand out; TLS is required whenever an auth token is in play.
	RedisEndpoint    string
	RedisPort        string
	RedisAuthToken   string
	RedisDB          int
	RedisTLS         bool
	CacheKeyPrefix   string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration

	// DB configuration (postgres cache backend only)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Application settings
	SessionTTL           time.Duration // Conversation lifetime between touches
	RateLimitMaxRequests int           // Per-identity budget per window
	RateLimitWindow      time.Duration // Fixed window size
	RateLimitPerMinute   int           // Local per-IP edge limit
	EnableAuthentication bool          // Enable API key authentication
	APIKey               string        // API key for protected endpoints
}

// LoadConfig loads configuration from environment variables
// Returns error if required environment variables are missing
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Server defaults
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "8081"),

		CacheBackend: getEnv("CACHE_BACKEND", BackendRedis),

		// Redis configuration
		RedisEndpoint:    getEnv("REDIS_ENDPOINT", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisAuthToken:   getEnv("REDIS_AUTH_TOKEN", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		CacheKeyPrefix:   getEnv("CACHE_KEY_PREFIX", ""),
		ConnectTimeout:   time.Duration(getEnvAsInt("CACHE_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
		OperationTimeout: time.Duration(getEnvAsInt("CACHE_OP_TIMEOUT_SECONDS", 5)) * time.Second,

		// Database configuration (postgres backend)
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "sessioncache"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Application settings
		SessionTTL:           time.Duration(getEnvAsInt("SESSION_TTL_SECONDS", 300)) * time.Second,
		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:      time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		RateLimitPerMinute:   getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		EnableAuthentication: getEnvAsBool("ENABLE_AUTHENTICATION", false),
		APIKey:               getEnv("API_KEY", ""),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendRedis, BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("CACHE_BACKEND must be redis, memory, or postgres, got %q", c.CacheBackend)
	}

	// Managed Redis with an auth token refuses plaintext connections
	if c.RedisAuthToken != "" && !c.RedisTLS {
		return fmt.Errorf("REDIS_TLS must be enabled when REDIS_AUTH_TOKEN is set")
	}

	// Validate database password in production
	if c.Environment == "production" && c.CacheBackend == BackendPostgres && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}

	if c.RateLimitMaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimitMaxRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive")
	}

	// Validate API key if authentication is enabled
	if c.EnableAuthentication && c.APIKey == "" {
		return fmt.Errorf("API_KEY is required when ENABLE_AUTHENTICATION is true")
	}

	return nil
}

// RedisAddr joins the endpoint and port into a dialable address
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisEndpoint, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions for reading environment variables

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as boolean or returns default
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
