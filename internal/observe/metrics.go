package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits counts reads that returned a usable value.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_cache_hits_total",
			Help: "Total number of cache reads that found a value",
		},
	)

	// cacheMisses counts reads that returned absent, including fail-open misses.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_cache_misses_total",
			Help: "Total number of cache reads that found nothing",
		},
	)

	// cacheErrors counts failed operations by operation name.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_cache_errors_total",
			Help: "Total number of cache operations that failed",
		},
		[]string{"operation"},
	)

	// rateLimited counts requests rejected by the rate limiter.
	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_cache_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// Metrics is an Observer that records outcomes as Prometheus counters on the
// default registry. Keys and identities are deliberately not used as labels
// to keep cardinality bounded.
type Metrics struct{}

var _ Observer = Metrics{}

// NewMetrics creates a Prometheus-backed observer
func NewMetrics() Metrics {
	return Metrics{}
}

func (Metrics) OnCacheHit(key string) {
	cacheHits.Inc()
}

func (Metrics) OnCacheMiss(key string) {
	cacheMisses.Inc()
}

func (Metrics) OnCacheError(op, key string, err error) {
	cacheErrors.WithLabelValues(op).Inc()
}

func (Metrics) OnRateLimited(identity string, count int64, limit int) {
	rateLimited.Inc()
}
