package pricing

import (
	"sync"
	"time"
)

type tierCacheEntry struct {
	metrics  TierMetrics
	storedAt time.Time
}

// tierCache memoizes tier metrics for the lifetime of a session. Entries are
// bounded both by TTL and by a hard size ceiling so a long-running process
// cannot accumulate one entry per (user, balance) pair forever.
type tierCache struct {
	mu      sync.RWMutex
	entries map[string]tierCacheEntry
	ttl     time.Duration
	max     int
}

func newTierCache(ttl time.Duration, max int) *tierCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if max <= 0 {
		max = 10_000
	}
	return &tierCache{entries: make(map[string]tierCacheEntry), ttl: ttl, max: max}
}

func (c *tierCache) get(key string, now time.Time) (TierMetrics, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || now.Sub(entry.storedAt) > c.ttl {
		return TierMetrics{}, false
	}
	return entry.metrics, true
}

func (c *tierCache) set(key string, metrics TierMetrics, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		c.evictLocked(now)
	}
	c.entries[key] = tierCacheEntry{metrics: metrics, storedAt: now}
}

// evictLocked drops expired entries; if nothing expired it drops an arbitrary
// entry so the ceiling always holds.
func (c *tierCache) evictLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.max {
		return
	}
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

// sweep removes expired entries and reports how many were dropped.
func (c *tierCache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

func (c *tierCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
