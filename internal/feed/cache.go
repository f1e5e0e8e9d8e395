package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jtammen/stratsim/internal/core"
)

// Cache is a read-through memoizing wrapper around a Provider. Repeated
// fetches for the same symbol and range hit memory instead of the upstream;
// failed fetches are not cached. Safe for concurrent use.
type Cache struct {
	upstream Provider

	mu      sync.RWMutex
	entries map[string]core.PriceSeries
}

// NewCache wraps a provider with an in-memory cache.
func NewCache(upstream Provider) *Cache {
	return &Cache{
		upstream: upstream,
		entries:  make(map[string]core.PriceSeries),
	}
}

func (c *Cache) Name() string {
	return c.upstream.Name() + "+cache"
}

// FetchHistory returns the cached series for the symbol and range, fetching
// from the upstream on a miss.
func (c *Cache) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	key := cacheKey(symbol, start, end)

	c.mu.RLock()
	series, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return series, nil
	}

	series, err := c.upstream.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		return core.PriceSeries{}, err
	}

	c.mu.Lock()
	c.entries[key] = series
	c.mu.Unlock()
	return series, nil
}

func cacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s|%d|%d", symbol, start.Unix(), end.Unix())
}
