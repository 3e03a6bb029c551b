package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a snapshot is considered fresh.
const DefaultTTL = 5 * time.Minute

// ErrRateUnavailable is returned when the upstream fetch fails and no prior
// snapshot exists to serve stale.
var ErrRateUnavailable = errors.New("exchange rates unavailable")

// Fetcher retrieves a full snapshot from the upstream provider.
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// Cache memoizes exchange-rate snapshots for a freshness window and serves
// the last good snapshot when the upstream is down. It is constructed once
// per process and injected into dependents; there is no package-level state.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	snap    Snapshot
	hasSnap bool
}

func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Rates returns a snapshot, preferring the cached one while it is fresh.
// With useCache false the cache is bypassed and a fetch is always attempted.
// A failed fetch falls back to the last good snapshot even when stale; only
// a failure with an empty cache returns ErrRateUnavailable.
func (c *Cache) Rates(ctx context.Context, useCache bool) (Snapshot, error) {
	if useCache {
		c.mu.Lock()
		if c.hasSnap && c.now().Sub(c.snap.FetchedAt) < c.ttl {
			snap := c.snap
			c.mu.Unlock()
			return snap, nil
		}
		c.mu.Unlock()
	}

	// Concurrent callers on a cold or expired cache share one fetch.
	v, err, _ := c.group.Do("rates", func() (any, error) {
		return c.fetcher.Fetch(ctx)
	})
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.hasSnap {
			slog.WarnContext(ctx, "Serving stale exchange rates after fetch failure",
				"fetched_at", c.snap.FetchedAt,
				"age", c.now().Sub(c.snap.FetchedAt),
				"error", err)
			return c.snap, nil
		}
		return Snapshot{}, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	snap := v.(Snapshot)
	snap.FetchedAt = c.now().UTC()

	c.mu.Lock()
	c.snap = snap
	c.hasSnap = true
	c.mu.Unlock()

	slog.DebugContext(ctx, "Exchange rates refreshed",
		"blue_avg", snap.Blue.Avg,
		"official_avg", snap.Official.Avg)

	return snap, nil
}

// Clear empties the cache, forcing the next Rates call to fetch.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.snap = Snapshot{}
	c.hasSnap = false
	c.mu.Unlock()
}
