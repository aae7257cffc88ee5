package cache

import (
	"context"
	"time"
)

// Store is the raw key-value transport beneath the client.
// This abstraction allows swapping backends (Redis, in-memory, SQL) without
// touching the fail-open and serialization logic above it. Implementations
// must be safe for concurrent use and must return errors classified into the
// package taxonomy.
type Store interface {
	// Get retrieves the raw payload for a key. ok is false when the key
	// does not exist; absence is not an error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set writes a payload with the given expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// IncrBy adds amount to the integer counter at key and returns the new
	// value. The call that creates the counter applies ttl; subsequent
	// increments leave the existing expiry untouched.
	IncrBy(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error)

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
