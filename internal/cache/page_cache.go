// Package cache provides the rendered page cache invalidated after each sync.
package cache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/pitwall/internal/metrics"
)

const defaultTTL = 5 * time.Minute

// EventPageKey returns the cache key of one rendered view of an event.
func EventPageKey(externalID, view string) string {
	return EventPagePrefix(externalID) + view
}

// EventPagePrefix returns the key prefix shared by every view of an event.
func EventPagePrefix(externalID string) string {
	return "event:" + externalID + ":"
}

// ListPagePrefix is the key prefix of event listing views.
const ListPagePrefix = "events:"

// PageCache holds rendered views keyed by page
type PageCache struct {
	cache     *gocache.Cache
	ttl       time.Duration
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewPageCache creates a new page cache. A non-positive ttl falls back to five minutes.
func NewPageCache(ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PageCache{
		cache: gocache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached page
func (pc *PageCache) Get(key string) ([]byte, bool) {
	v, found := pc.cache.Get(key)
	page, ok := v.([]byte)
	hit := found && ok

	pc.mu.Lock()
	if hit {
		pc.hitCount++
	} else {
		pc.missCount++
	}
	pc.mu.Unlock()
	metrics.RecordPageCache(hit)

	if !hit {
		return nil, false
	}
	return page, true
}

// Set stores a page
func (pc *PageCache) Set(key string, page []byte) {
	pc.cache.Set(key, page, pc.ttl)
}

// GetOrRender returns the cached page or renders, stores and returns a fresh one.
// Render errors are not cached.
func (pc *PageCache) GetOrRender(key string, render func() ([]byte, error)) ([]byte, error) {
	if page, ok := pc.Get(key); ok {
		return page, nil
	}
	page, err := render()
	if err != nil {
		return nil, err
	}
	pc.Set(key, page)
	return page, nil
}

// InvalidatePrefix removes every page whose key starts with prefix and returns how many were dropped.
func (pc *PageCache) InvalidatePrefix(prefix string) int {
	removed := 0
	for k := range pc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			pc.cache.Delete(k)
			removed++
		}
	}
	return removed
}

// Flush drops every page
func (pc *PageCache) Flush() {
	pc.cache.Flush()
}

// Stats returns cache statistics
func (pc *PageCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	hits = pc.hitCount
	misses = pc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of pages in cache
func (pc *PageCache) ItemCount() int {
	return pc.cache.ItemCount()
}
