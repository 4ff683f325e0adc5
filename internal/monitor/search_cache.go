package monitor

import (
	"context"
	"time"

	"github.com/aleister1102/downtime/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// StatusProber runs a one-off probe without touching the store.
type StatusProber interface {
	Probe(ctx context.Context, url string) models.SiteStatus
}

// SearchCache memoizes ad-hoc lookups of URLs that are not monitored.
// Entries expire after the configured TTL and the least recently used entry is
// dropped once the capacity is reached.
type SearchCache struct {
	cache  *expirable.LRU[string, models.MonitoredSite]
	group  singleflight.Group
	prober StatusProber
	logger zerolog.Logger
}

// NewSearchCache creates a cache holding at most size entries for ttl each.
func NewSearchCache(size int, ttl time.Duration, prober StatusProber, logger zerolog.Logger) *SearchCache {
	if size <= 0 {
		size = 1
	}
	return &SearchCache{
		cache:  expirable.NewLRU[string, models.MonitoredSite](size, nil, ttl),
		prober: prober,
		logger: logger.With().Str("component", "SearchCache").Logger(),
	}
}

// Get returns the cached result for url, if any and not expired.
func (sc *SearchCache) Get(url string) (models.MonitoredSite, bool) {
	site, ok := sc.cache.Get(url)
	if !ok {
		return models.MonitoredSite{}, false
	}
	return site.Clone(), true
}

// Resolve returns the cached result for url or probes it once and caches the outcome.
// Concurrent callers for the same url share a single probe. skipCache is consulted after
// the probe so a URL that started being monitored meanwhile is not cached.
func (sc *SearchCache) Resolve(ctx context.Context, url string, skipCache func(string) bool) (models.MonitoredSite, error) {
	if site, ok := sc.Get(url); ok {
		sc.logger.Debug().Str("url", url).Msg("Search cache hit")
		return site, nil
	}

	ch := sc.group.DoChan(url, func() (any, error) {
		// The probe outlives any single waiting caller; it is bounded by the checker timeout.
		status := sc.prober.Probe(context.WithoutCancel(ctx), url)
		site := models.MonitoredSite{URL: url, Status: status}
		if skipCache == nil || !skipCache(url) {
			sc.cache.Add(url, site)
		}
		return site, nil
	})

	select {
	case <-ctx.Done():
		return models.MonitoredSite{}, ctx.Err()
	case res := <-ch:
		site := res.Val.(models.MonitoredSite)
		return site.Clone(), nil
	}
}

// Evict removes url from the cache.
func (sc *SearchCache) Evict(url string) {
	sc.cache.Remove(url)
}

// Len returns the number of cached entries, expired ones included until purged.
func (sc *SearchCache) Len() int {
	return sc.cache.Len()
}
