package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so a test starts from the
// documented defaults regardless of the machine it runs on.
func clearEnv(t *testing.T) {
	keys := []string{
		"ENVIRONMENT", "SERVER_PORT", "CACHE_BACKEND",
		"REDIS_ENDPOINT", "REDIS_PORT", "REDIS_AUTH_TOKEN", "REDIS_DB", "REDIS_TLS",
		"CACHE_KEY_PREFIX", "CACHE_CONNECT_TIMEOUT_SECONDS", "CACHE_OP_TIMEOUT_SECONDS",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
		"SESSION_TTL_SECONDS", "RATE_LIMIT_MAX_REQUESTS", "RATE_LIMIT_WINDOW_SECONDS",
		"RATE_LIMIT_PER_MINUTE", "ENABLE_AUTHENTICATION", "API_KEY",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8081", cfg.ServerPort)
	assert.Equal(t, BackendRedis, cfg.CacheBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.False(t, cfg.RedisTLS)
	assert.Empty(t, cfg.CacheKeyPrefix)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.OperationTimeout)
	assert.Equal(t, 300*time.Second, cfg.SessionTTL)
	assert.Equal(t, 100, cfg.RateLimitMaxRequests)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	assert.False(t, cfg.EnableAuthentication)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("REDIS_ENDPOINT", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_AUTH_TOKEN", "s3cret")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CACHE_KEY_PREFIX", "svc:")
	t.Setenv("SESSION_TTL_SECONDS", "600")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, BackendMemory, cfg.CacheBackend)
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
	assert.Equal(t, "s3cret", cfg.RedisAuthToken)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, "svc:", cfg.CacheKeyPrefix)
	assert.Equal(t, 600*time.Second, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.RateLimitMaxRequests)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
}

func TestLoadConfig_InvalidBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_BACKEND", "mongodb")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_BACKEND")
}

func TestLoadConfig_AuthTokenRequiresTLS(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_AUTH_TOKEN", "s3cret")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_TLS")
}

func TestLoadConfig_AuthenticationRequiresKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENABLE_AUTHENTICATION", "true")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestLoadConfig_ProductionPostgresRequiresPassword(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CACHE_BACKEND", "postgres")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoadConfig_RejectsNonPositiveLimits(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "-5")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_MAX_REQUESTS")
}
