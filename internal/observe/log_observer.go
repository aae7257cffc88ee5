package observe

import (
	"session-cache/pkg/logger"
)

// LogObserver forwards cache and rate-limit outcomes to the shared logger.
// Hits and misses log at debug level to keep steady-state noise down; errors
// and rate-limit events are warnings.
type LogObserver struct {
	log *logger.Logger
}

var _ Observer = (*LogObserver)(nil)

// NewLogObserver creates an observer backed by the given logger
func NewLogObserver(log *logger.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnCacheHit(key string) {
	o.log.Debug("Cache hit", "key", key)
}

func (o *LogObserver) OnCacheMiss(key string) {
	o.log.Debug("Cache miss", "key", key)
}

func (o *LogObserver) OnCacheError(op, key string, err error) {
	o.log.Warn("Cache operation failed", "operation", op, "key", key, "error", err)
}

func (o *LogObserver) OnRateLimited(identity string, count int64, limit int) {
	o.log.Warn("Rate limit exceeded", "identity", identity, "count", count, "limit", limit)
}
