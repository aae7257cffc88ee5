package ratelimit

import (
	"context"
	"time"

	"session-cache/internal/cache"
	"session-cache/internal/observe"
	"session-cache/pkg/logger"
)

// Default budget applied when the caller does not configure one
const (
	DefaultMaxRequests = 100
	DefaultWindow      = 60 * time.Second
)

// counter keys share the cache namespace with session data
const keyPrefix = "ratelimit:"

// Limiter applies per-identity admission control on top of the cache
// client's increment primitive.
//
// The algorithm is a fixed-window counter, not a token bucket despite the
// name rate limiting usually suggests: an identity's counter expires a full
// window after its first increment, so bursts of up to the limit are
// admitted at the start of every window and the count resets hard at the
// boundary. Callers that need smoothed admission need a different
// algorithm, not a bigger limit.
//
// When the cache is unavailable the limiter fails open and admits the
// request; rate-limiting accuracy is sacrificed for availability of the
// protected resource.
type Limiter struct {
	client   *cache.Client
	log      *logger.Logger
	observer observe.Observer
}

// NewLimiter creates a limiter over the given cache client
func NewLimiter(client *cache.Client, log *logger.Logger, obs observe.Observer) *Limiter {
	if obs == nil {
		obs = observe.Nop{}
	}
	return &Limiter{
		client:   client,
		log:      log,
		observer: obs,
	}
}

// IsAllowed reports whether identity may proceed, admitting at most
// maxRequests per fixed window. The first call of a window creates the
// counter with the window as its expiry; every call increments it. Counts
// above the limit are rejected and reported to the observer with the
// observed count.
func (l *Limiter) IsAllowed(ctx context.Context, identity string, maxRequests int, window time.Duration) bool {
	count, ok := l.client.Increment(ctx, keyPrefix+identity, 1, window)
	if !ok {
		// Fail open when the cache cannot answer
		l.log.Warn("Rate limiting unavailable, allowing request", "identity", identity)
		return true
	}

	if count > int64(maxRequests) {
		l.observer.OnRateLimited(identity, count, maxRequests)
		return false
	}

	return true
}
