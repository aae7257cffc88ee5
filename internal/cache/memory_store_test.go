package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a controllable time source for expiry tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	err := store.Set(ctx, "greeting", []byte(`{"hello":"world"}`), time.Minute)
	assert.NoError(t, err)

	value, ok, err := store.Get(ctx, "greeting")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"hello":"world"}`), value)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore(nil)

	value, ok, err := store.Get(context.Background(), "never-written")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemoryStore_Expiry(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	err := store.Set(ctx, "short-lived", []byte("v"), 10*time.Second)
	assert.NoError(t, err)

	clock.Advance(9 * time.Second)
	_, ok, _ := store.Get(ctx, "short-lived")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok, _ = store.Get(ctx, "short-lived")
	assert.False(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	_ = store.Set(ctx, "doomed", []byte("v"), time.Minute)

	err := store.Delete(ctx, "doomed")
	assert.NoError(t, err)

	_, ok, _ := store.Get(ctx, "doomed")
	assert.False(t, ok)

	// Deleting an absent key is not an error
	assert.NoError(t, store.Delete(ctx, "doomed"))
}

func TestMemoryStore_SetCopiesValue(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	payload := []byte("original")
	_ = store.Set(ctx, "k", payload, time.Minute)
	payload[0] = 'X'

	value, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("original"), value)
}

func TestMemoryStore_IncrBy_Sequential(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		count, err := store.IncrBy(ctx, "counter", 1, time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, want, count)
	}
}

func TestMemoryStore_IncrBy_FixedWindow(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	count, err := store.IncrBy(ctx, "window", 1, 10*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Later increments must not extend the window
	clock.Advance(6 * time.Second)
	count, _ = store.IncrBy(ctx, "window", 1, 10*time.Second)
	assert.Equal(t, int64(2), count)

	// 11s after creation the window has expired even though the second
	// increment was only 5s ago
	clock.Advance(5 * time.Second)
	count, _ = store.IncrBy(ctx, "window", 1, 10*time.Second)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_IncrBy_NonInteger(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	_ = store.Set(ctx, "text", []byte("not-a-number"), time.Minute)

	_, err := store.IncrBy(ctx, "text", 1, time.Minute)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestMemoryStore_IncrBy_Concurrent(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	results := make(chan int64, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := store.IncrBy(ctx, "race", 1, time.Minute)
			assert.NoError(t, err)
			results <- count
		}()
	}
	wg.Wait()
	close(results)

	// Both racers must observe strictly increasing values, no lost updates
	seen := map[int64]bool{}
	for count := range results {
		seen[count] = true
	}
	assert.True(t, seen[1])
	assert.True(t, seen[2])
}
