package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/downtime/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProber struct {
	calls atomic.Int64
}

func (c *countingProber) Probe(ctx context.Context, url string) models.SiteStatus {
	c.calls.Add(1)
	return models.RunningStatus(200)
}

func TestSearchCache_TTLExpiry(t *testing.T) {
	prober := &countingProber{}
	cache := NewSearchCache(10, 50*time.Millisecond, prober, zerolog.Nop())

	_, err := cache.Resolve(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	_, err = cache.Resolve(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prober.calls.Load())

	time.Sleep(120 * time.Millisecond)
	_, err = cache.Resolve(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), prober.calls.Load())
}

func TestSearchCache_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewSearchCache(2, time.Hour, &countingProber{}, zerolog.Nop())
	ctx := context.Background()

	for _, u := range []string{"https://a.com", "https://b.com"} {
		_, err := cache.Resolve(ctx, u, nil)
		require.NoError(t, err)
	}
	_, ok := cache.Get("https://a.com")
	require.True(t, ok)

	_, err := cache.Resolve(ctx, "https://c.com", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
	_, ok = cache.Get("https://b.com")
	assert.False(t, ok)
	_, ok = cache.Get("https://a.com")
	assert.True(t, ok)
}

func TestSearchCache_SkipCache(t *testing.T) {
	cache := NewSearchCache(2, time.Hour, &countingProber{}, zerolog.Nop())

	site, err := cache.Resolve(context.Background(), "https://a.com", func(string) bool { return true })

	require.NoError(t, err)
	assert.True(t, site.Status.IsUp())
	assert.Equal(t, 0, cache.Len())
}

func TestSearchCache_Evict(t *testing.T) {
	cache := NewSearchCache(2, time.Hour, &countingProber{}, zerolog.Nop())
	_, err := cache.Resolve(context.Background(), "https://a.com", nil)
	require.NoError(t, err)

	cache.Evict("https://a.com")

	_, ok := cache.Get("https://a.com")
	assert.False(t, ok)
}
