package analytics

import (
	"sync"
	"time"
)

// statsCache holds the last per-mode aggregation for a short time. The TUI
// stats panel re-reads it on every refresh.
type statsCache struct {
	mu          sync.RWMutex
	stats       []Stats
	lastRefresh time.Time
	valid       bool
	ttl         time.Duration
}

// newStatsCache creates a new statistics cache with the specified TTL
func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{ttl: ttl}
}

// get returns the cached stats if present and fresh
func (c *statsCache) get() ([]Stats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || time.Since(c.lastRefresh) > c.ttl {
		return nil, false
	}
	return c.stats, true
}

// set stores freshly computed stats
func (c *statsCache) set(stats []Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = stats
	c.lastRefresh = time.Now()
	c.valid = true
}

// invalidate drops the cached stats
func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = nil
	c.valid = false
}
