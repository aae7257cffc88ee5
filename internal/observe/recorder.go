package observe

import (
	"sync"
)

// ErrorEvent is a recorded OnCacheError notification
type ErrorEvent struct {
	Op  string
	Key string
	Err error
}

// RateLimitEvent is a recorded OnRateLimited notification
type RateLimitEvent struct {
	Identity string
	Count    int64
	Limit    int
}

// Recorder is an Observer that captures notifications in memory, for tests
// and offline inspection. Safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	hits        []string
	misses      []string
	errors      []ErrorEvent
	rateLimited []RateLimitEvent
}

var _ Observer = (*Recorder)(nil)

func (r *Recorder) OnCacheHit(key string) {
	r.mu.Lock()
	r.hits = append(r.hits, key)
	r.mu.Unlock()
}

func (r *Recorder) OnCacheMiss(key string) {
	r.mu.Lock()
	r.misses = append(r.misses, key)
	r.mu.Unlock()
}

func (r *Recorder) OnCacheError(op, key string, err error) {
	r.mu.Lock()
	r.errors = append(r.errors, ErrorEvent{Op: op, Key: key, Err: err})
	r.mu.Unlock()
}

func (r *Recorder) OnRateLimited(identity string, count int64, limit int) {
	r.mu.Lock()
	r.rateLimited = append(r.rateLimited, RateLimitEvent{Identity: identity, Count: count, Limit: limit})
	r.mu.Unlock()
}

// Hits returns the recorded hit keys
func (r *Recorder) Hits() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.hits...)
}

// Misses returns the recorded miss keys
func (r *Recorder) Misses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.misses...)
}

// Errors returns the recorded error events
func (r *Recorder) Errors() []ErrorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ErrorEvent(nil), r.errors...)
}

// RateLimited returns the recorded rate-limit events
func (r *Recorder) RateLimited() []RateLimitEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RateLimitEvent(nil), r.rateLimited...)
}
