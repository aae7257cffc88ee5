package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithTTL atomically increments a counter and applies the expiry only on
// the call that creates it, so a window's TTL is never extended by later
// increments. KEYS[1] = counter key, ARGV[1] = amount, ARGV[2] = ttl in
// milliseconds (0 leaves the key without expiry).
var incrWithTTL = redis.NewScript(`
local count = redis.call("INCRBY", KEYS[1], ARGV[1])
if count == tonumber(ARGV[1]) and tonumber(ARGV[2]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return count
`)

// RedisOptions holds connection parameters for a Redis-compatible server
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// TLS enables in-transit encryption, required by managed caches that
	// authenticate with auth tokens
	TLS bool

	// KeyPrefix namespaces every key to avoid collisions with other
	// applications sharing the server. Empty applies no prefix.
	KeyPrefix string

	DialTimeout time.Duration
	OpTimeout   time.Duration
}

// RedisStore implements Store using a Redis-compatible server
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store and verifies the connection
// with a ping. Returns an error if the server cannot be reached, so callers
// can fall back to a degraded client.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	ropts := &redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.OpTimeout,
		WriteTimeout: opts.OpTimeout,
		PoolSize:     10, // Connection pool size
		MinIdleConns: 5,  // Minimum idle connections
		// Command retries are disabled: a retried INCRBY after an
		// ambiguous failure would double-count.
		MaxRetries: -1,
	}
	if opts.TLS {
		ropts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(ropts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: opts.KeyPrefix}, nil
}

// Get retrieves the raw payload for a key
// Absent keys return ok=false, not an error
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefixKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classifyRedisErr(err)
	}

	return val, true, nil
}

// Set stores a payload with TTL
// Uses SET with expiry so write and expiry apply atomically
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefixKey(key), value, ttl).Err(); err != nil {
		return classifyRedisErr(err)
	}

	return nil
}

// Delete removes a key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefixKey(key)).Err(); err != nil {
		return classifyRedisErr(err)
	}

	return nil
}

// IncrBy atomically increments a counter, applying ttl only when this call
// creates the counter. The script keeps increment and expiry in one round
// trip so two racing creators cannot leave the counter without an expiry.
func (s *RedisStore) IncrBy(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	count, err := incrWithTTL.Run(ctx, s.client, []string{s.prefixKey(key)}, amount, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, classifyRedisErr(err)
	}

	return count, nil
}

// Ping verifies the server is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return classifyRedisErr(err)
	}

	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// prefixKey adds the namespace prefix to avoid key collisions
func (s *RedisStore) prefixKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + key
}

// classifyRedisErr maps a go-redis error into the package taxonomy.
// Timeouts are checked first because a deadline error may also satisfy
// net.Error; server replies map to protocol errors; everything else is a
// connection-level failure.
func classifyRedisErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return wrapError(ErrOperationTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapError(ErrOperationTimeout, err)
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return wrapError(ErrProtocol, err)
	}

	return wrapError(ErrConnectionUnavailable, err)
}
