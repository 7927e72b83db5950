package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCacheTTLBoundary(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(DefaultTTL, clock.Now)

	payload := &models.MIndicesPayload{LastUpdated: "x"}
	require.NoError(t, mc.Set(ctx, models.PeriodDaily, payload))

	clock.Advance(119 * time.Second)
	got, ok := mc.Get(ctx, models.PeriodDaily)
	require.True(t, ok)
	assert.Same(t, payload, got)

	clock.Advance(2 * time.Second)
	_, ok = mc.Get(ctx, models.PeriodDaily)
	assert.False(t, ok)
	assert.Zero(t, mc.Len(), "stale entry is evicted on read")
}

func TestMemoryCacheExactTTLIsStale(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	mc := NewMemoryCache(10*time.Second, clock.Now)

	require.NoError(t, mc.Set(ctx, models.PeriodYear, &models.MIndicesPayload{}))
	clock.Advance(10 * time.Second)

	_, ok := mc.Get(ctx, models.PeriodYear)
	assert.False(t, ok)
}

func TestMemoryCacheKeyedByPeriod(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(0, nil)

	daily := &models.MIndicesPayload{LastUpdated: "daily"}
	require.NoError(t, mc.Set(ctx, models.PeriodDaily, daily))

	_, ok := mc.Get(ctx, models.PeriodYear)
	assert.False(t, ok)

	got, ok := mc.Get(ctx, models.PeriodDaily)
	require.True(t, ok)
	assert.Equal(t, "daily", got.LastUpdated)

	// Last writer wins
	newer := &models.MIndicesPayload{LastUpdated: "newer"}
	require.NoError(t, mc.Set(ctx, models.PeriodDaily, newer))
	got, _ = mc.Get(ctx, models.PeriodDaily)
	assert.Same(t, newer, got)
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(time.Minute, nil)

	for _, p := range models.AllPeriods() {
		require.NoError(t, mc.Set(ctx, p, &models.MIndicesPayload{}))
	}
	assert.Equal(t, 4, mc.Len())

	require.NoError(t, mc.Invalidate(ctx))
	assert.Zero(t, mc.Len())
	_, ok := mc.Get(ctx, models.PeriodDaily)
	assert.False(t, ok)
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := models.AllPeriods()[i%4]
			_ = mc.Set(ctx, p, &models.MIndicesPayload{})
			_, _ = mc.Get(ctx, p)
			if i%8 == 0 {
				_ = mc.Invalidate(ctx)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, mc.Len(), 4)
}

func TestNewBackends(t *testing.T) {
	c, err := New(models.MCacheConfig{Backend: "memory", TTLSeconds: 30})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(models.MCacheConfig{Backend: "memcached"})
	assert.Error(t, err)

	_, err = New(models.MCacheConfig{Backend: "redis", RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Equal(t, "database", helpers.ErrorKind(err))
}
