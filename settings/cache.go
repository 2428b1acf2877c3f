package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultFreshness is how long a fetched store setting is served before the
// backend is asked again.
const DefaultFreshness = 4 * time.Minute

// DefaultFetchTimeout bounds a single backend fetch.
const DefaultFetchTimeout = 30 * time.Second

const storeSettingKey = "storeSetting"

// Cache serves store settings from memory while they are fresh and refetches
// them through Fetcher once the freshness window has elapsed. Concurrent
// callers that miss at the same time share a single fetch. Failed fetches are
// not cached.
type Cache struct {
	Fetcher Fetcher

	// How long a fetched value stays valid. Defaults to DefaultFreshness.
	Freshness time.Duration

	// Upper bound on one fetch. Defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration

	// Clock used to age entries. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger

	mu    sync.Mutex
	entry *cacheEntry
	group singleflight.Group
}

type cacheEntry struct {
	value     *StoreSetting
	fetchedAt time.Time
	expiresAt time.Time
}

// NewCache creates a cache in front of fetcher with the default freshness window.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{Fetcher: fetcher}
}

// Get returns the cached store setting if it is younger than the freshness
// window, fetching a new one otherwise.
func (c *Cache) Get(ctx context.Context) (*StoreSetting, error) {
	if s, ok := c.fresh(); ok {
		GetCacheMetrics().hitsTotal.Inc()
		return s, nil
	}

	// The fetch runs detached from any one caller so a cancelled request
	// does not fail the others waiting on the same flight.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(storeSettingKey, func() (any, error) {
		// a flight that finished just before this one may have refilled it
		if s, ok := c.fresh(); ok {
			return s, nil
		}
		ctx, cancel := context.WithTimeout(fetchCtx, c.fetchTimeout())
		defer cancel()

		GetCacheMetrics().fetchesTotal.Inc()
		s, err := c.Fetcher.GetStoreSetting(ctx)
		if err != nil {
			GetCacheMetrics().fetchErrorsTotal.Inc()
			c.logger().Warn("store setting fetch failed", "err", err)
			return nil, err
		}
		if s == nil {
			s = &StoreSetting{}
		}
		fetchedAt := c.now()
		c.mu.Lock()
		c.entry = &cacheEntry{
			value:     s,
			fetchedAt: fetchedAt,
			expiresAt: fetchedAt.Add(c.freshness()),
		}
		c.mu.Unlock()
		GetCacheMetrics().lastFetch.Set(float64(fetchedAt.Unix()))
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*StoreSetting), nil
	}
}

// GetStoreSetting lets a Cache stand in wherever a Fetcher is expected.
func (c *Cache) GetStoreSetting(ctx context.Context) (*StoreSetting, error) {
	return c.Get(ctx)
}

// Peek returns the cached value and when it was fetched without triggering a
// fetch. The value may be stale.
func (c *Cache) Peek() (*StoreSetting, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return nil, time.Time{}, false
	}
	return c.entry.value, c.entry.fetchedAt, true
}

// Invalidate drops the cached value so the next Get fetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

func (c *Cache) fresh() (*StoreSetting, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry != nil && now.Before(c.entry.expiresAt) {
		return c.entry.value, true
	}
	return nil, false
}

func (c *Cache) freshness() time.Duration {
	if c.Freshness > 0 {
		return c.Freshness
	}
	return DefaultFreshness
}

func (c *Cache) fetchTimeout() time.Duration {
	if c.FetchTimeout > 0 {
		return c.FetchTimeout
	}
	return DefaultFetchTimeout
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
