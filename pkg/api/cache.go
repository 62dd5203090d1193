package api

import (
	"strings"
	"sync"
	"time"
)

// cacheEntry holds one cached response body.
type cacheEntry struct {
	data      []byte
	timestamp time.Time
	ttl       time.Duration
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.timestamp) > e.ttl
}

// Cache is an in-memory TTL cache of raw response bodies keyed by endpoint.
//
// Expiry is checked when an entry is read; there is no background sweeper.
// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	hits      int64
	misses    int64
	createdAt time.Time

	now func() time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return newCacheWithClock(time.Now)
}

func newCacheWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries:   make(map[string]cacheEntry),
		createdAt: now(),
		now:       now,
	}
}

// Get returns the cached body for key if it is still fresh. A stale entry is
// removed and reported as a miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.lookup(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// peek is Get without touching the hit/miss counters.
func (c *Cache) peek(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key)
}

// lookup must be called with c.mu held.
func (c *Cache) lookup(key string) ([]byte, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

// Set stores data under key, replacing any existing entry.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		data:      data,
		timestamp: c.now(),
		ttl:       ttl,
	}
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// InvalidateByPrefix removes every entry whose key contains fragment and
// returns how many were removed. Keys are endpoints such as
// "/bonfires/123/graph?agent_id=a", so "bonfires/123" drops everything cached
// for that bonfire.
func (c *Cache) InvalidateByPrefix(fragment string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, fragment) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear empties the cache and resets its counters and creation time.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
	c.createdAt = c.now()
}

// CacheStats is a point-in-time view of the cache.
type CacheStats struct {
	Hits       int64         `json:"hits"`
	Misses     int64         `json:"misses"`
	Size       int           `json:"size"`
	Inflight   int           `json:"inflight"`
	HitRate    float64       `json:"hit_rate"`
	AverageTTL time.Duration `json:"average_ttl"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Stats computes the current statistics. Inflight is filled in by the client.
// Size counts stored entries, including expired ones nobody has read yet;
// AverageTTL only considers live entries.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Size:      len(c.entries),
		CreatedAt: c.createdAt,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}

	now := c.now()
	var remaining time.Duration
	live := 0
	for _, entry := range c.entries {
		if entry.expired(now) {
			continue
		}
		remaining += entry.ttl - now.Sub(entry.timestamp)
		live++
	}
	if live > 0 {
		stats.AverageTTL = remaining / time.Duration(live)
	}
	return stats
}
