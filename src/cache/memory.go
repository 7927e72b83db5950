package cache

import (
	"context"
	"sync"
	"time"

	"crypto-indices/src/models"
)

// DefaultTTL is the freshness window of a computed payload.
const DefaultTTL = 120 * time.Second

// Clock returns the current time; tests inject a fake one.
type Clock func() time.Time

type memoryEntry struct {
	payload  *models.MIndicesPayload
	storedAt time.Time
}

// MemoryCache is a process-local, mutex-guarded payload cache keyed by time
// period. Entries expire lazily: a stale entry is evicted by the read that
// finds it, there is no background sweeper.
type MemoryCache struct {
	ttl   time.Duration
	now   Clock
	mu    sync.Mutex
	items map[models.MTimePeriod]memoryEntry
}

// -----------------------------------------------------------------------------

func NewMemoryCache(ttl time.Duration, clock Clock) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{
		ttl:   ttl,
		now:   clock,
		items: make(map[models.MTimePeriod]memoryEntry),
	}
}

// -----------------------------------------------------------------------------

// Get is a hit only while the entry's age is strictly below the TTL.
func (mc *MemoryCache) Get(_ context.Context, period models.MTimePeriod) (*models.MIndicesPayload, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.items[period]
	if !ok {
		return nil, false
	}

	if mc.now().Sub(entry.storedAt) >= mc.ttl {
		delete(mc.items, period)
		return nil, false
	}
	return entry.payload, true
}

// -----------------------------------------------------------------------------

func (mc *MemoryCache) Set(_ context.Context, period models.MTimePeriod, payload *models.MIndicesPayload) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.items[period] = memoryEntry{payload: payload, storedAt: mc.now()}
	return nil
}

// -----------------------------------------------------------------------------

func (mc *MemoryCache) Invalidate(_ context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.items = make(map[models.MTimePeriod]memoryEntry)
	return nil
}

// -----------------------------------------------------------------------------

// Len reports stored entries, stale ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}
