// ABOUTME: Ristretto-backed cache in front of an embedding provider
// ABOUTME: Caches successful vectors by text; degraded results always go back to the provider
package embedding

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// CachedProvider memoizes vectors of a wrapped provider.
// Context summaries repeat often, so hits save an API round trip.
type CachedProvider struct {
	next  Provider
	cache *ristretto.Cache
}

// NewCached wraps next with a cache holding roughly maxEntries vectors
func NewCached(next Provider, maxEntries int64) (*CachedProvider, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// cost counts entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return &CachedProvider{next: next, cache: cache}, nil
}

func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, bool) {
	if v, found := c.cache.Get(text); found {
		if vec, ok := v.([]float32); ok {
			return append([]float32(nil), vec...), true
		}
	}

	vec, ok := c.next.Embed(ctx, text)
	if !ok {
		return nil, false
	}

	c.cache.Set(text, append([]float32(nil), vec...), 1)
	return vec, true
}

func (c *CachedProvider) Dimensions() int {
	return c.next.Dimensions()
}

// Wait blocks until pending cache writes are applied
func (c *CachedProvider) Wait() {
	c.cache.Wait()
}

// Close releases the cache
func (c *CachedProvider) Close() {
	c.cache.Close()
}
