package cache

import (
	"context"
	"encoding/json"
	"time"

	"session-cache/internal/observe"
)

// DefaultOpTimeout bounds a single cache round trip when the caller's
// context carries no tighter deadline.
const DefaultOpTimeout = 5 * time.Second

// Client provides fail-open access to the shared cache. Values are encoded
// as JSON. Every operation catches connection, timeout, protocol, and
// serialization failures, reports them to the observer, and returns the
// documented miss or no-op outcome instead of an error, so a cache outage
// degrades callers rather than failing them.
//
// A Client constructed with a nil store is degraded: every operation is a
// silent no-op for the life of the process. This mirrors a process that
// could not reach the cache at startup and will get a fresh chance on the
// next construction.
type Client struct {
	store     Store
	observer  observe.Observer
	opTimeout time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithObserver routes outcome notifications to o instead of discarding them
func WithObserver(o observe.Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithTimeout sets the per-operation time budget. Zero disables the
// client-side deadline, leaving only the store's socket timeouts.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.opTimeout = d
	}
}

// NewClient creates a cache client on top of store. Pass a nil store to get
// a degraded client that no-ops every operation.
func NewClient(store Store, opts ...Option) *Client {
	c := &Client{
		store:     store,
		observer:  observe.Nop{},
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewRedisClient dials Redis and returns a client over it. Connection
// failure never surfaces as an error: it is reported once through the
// observer and the returned client is degraded, so a process keeps serving
// without its cache.
func NewRedisClient(ropts RedisOptions, opts ...Option) *Client {
	store, err := NewRedisStore(ropts)
	if err != nil {
		c := NewClient(nil, opts...)
		c.observer.OnCacheError("connect", "", wrapError(ErrConnectionUnavailable, err))
		return c
	}

	return NewClient(store, opts...)
}

// Degraded reports whether the client has no backing store
func (c *Client) Degraded() bool {
	return c.store == nil
}

// Get retrieves the value at key and decodes it into dest, which must be a
// pointer. Returns false when the key does not exist, the client is
// degraded, the remote call errors, or the payload fails to decode; dest is
// left untouched in all of those cases except a partial decode.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.store == nil {
		return false
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	payload, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.observer.OnCacheError("get", key, err)
		c.observer.OnCacheMiss(key)
		return false
	}
	if !ok {
		c.observer.OnCacheMiss(key)
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		// A poisoned payload reads as a miss, never as a failure
		c.observer.OnCacheError("get", key, wrapError(ErrSerialization, err))
		c.observer.OnCacheMiss(key)
		return false
	}

	c.observer.OnCacheHit(key)
	return true
}

// Set encodes value as JSON and writes it with the given expiry. Returns
// true only on a confirmed write.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	if c.store == nil {
		return false
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.observer.OnCacheError("set", key, wrapError(ErrSerialization, err))
		return false
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.store.Set(ctx, key, payload, ttl); err != nil {
		c.observer.OnCacheError("set", key, err)
		return false
	}

	return true
}

// Delete removes key best-effort. Returns true when the key is gone,
// including when it never existed; false only on failure.
func (c *Client) Delete(ctx context.Context, key string) bool {
	if c.store == nil {
		return false
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.store.Delete(ctx, key); err != nil {
		c.observer.OnCacheError("delete", key, err)
		return false
	}

	return true
}

// Increment atomically adds amount to the counter at key, creating it if
// absent, and returns the new value. When the call creates the counter and
// ttl is positive, the counter expires after ttl; later increments never
// extend the window. Returns ok=false when the client is degraded or the
// remote call errors.
func (c *Client) Increment(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, bool) {
	if c.store == nil {
		return 0, false
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	count, err := c.store.IncrBy(ctx, key, amount, ttl)
	if err != nil {
		c.observer.OnCacheError("increment", key, err)
		return 0, false
	}

	return count, true
}

// Ping probes the backing store. Unlike the data operations it returns the
// classified error, because health checks want the cause rather than a
// fail-open outcome.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return ErrConnectionUnavailable
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	return c.store.Ping(ctx)
}

// Close releases the backing store connection
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// opContext bounds an operation with the client-side timeout
func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}
