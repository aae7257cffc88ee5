package observe

// Observer receives outcome notifications from the cache client and the
// rate limiter. Callbacks run inline on the request path, so implementations
// must be safe for concurrent use and must not block. The notified operation
// has already resolved to its fail-open outcome; observers cannot change it.
type Observer interface {
	// OnCacheHit reports a read that found a usable value.
	OnCacheHit(key string)

	// OnCacheMiss reports a read that found nothing. This covers genuine
	// absence as well as fail-open misses after a remote error or an
	// undecodable payload. A degraded client notifies nothing; it makes
	// no remote calls to report on.
	OnCacheMiss(key string)

	// OnCacheError reports an operation that failed against the backing
	// store. op is the client operation name (connect, get, set, delete,
	// increment); connect carries an empty key.
	OnCacheError(op, key string, err error)

	// OnRateLimited reports an identity that exceeded its request budget
	// within the current window.
	OnRateLimited(identity string, count int64, limit int)
}

// Nop is an Observer that ignores every notification.
type Nop struct{}

var _ Observer = Nop{}

func (Nop) OnCacheHit(key string)                                 {}
func (Nop) OnCacheMiss(key string)                                {}
func (Nop) OnCacheError(op, key string, err error)                {}
func (Nop) OnRateLimited(identity string, count int64, limit int) {}

// Multi fans every notification out to each observer in order.
type Multi []Observer

var _ Observer = Multi{}

func (m Multi) OnCacheHit(key string) {
	for _, o := range m {
		o.OnCacheHit(key)
	}
}

func (m Multi) OnCacheMiss(key string) {
	for _, o := range m {
		o.OnCacheMiss(key)
	}
}

func (m Multi) OnCacheError(op, key string, err error) {
	for _, o := range m {
		o.OnCacheError(op, key, err)
	}
}

func (m Multi) OnRateLimited(identity string, count int64, limit int) {
	for _, o := range m {
		o.OnRateLimited(identity, count, limit)
	}
}
