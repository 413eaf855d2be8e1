package safety

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	unsafe    bool
	expiresAt time.Time
}

// VerdictCache maps a movie id to its "has unsafe keyword" result.
// Expired entries are misses and are removed on read or by Sweep.
type VerdictCache struct {
	mu      sync.RWMutex
	entries map[int64]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// CacheOption configures a VerdictCache.
type CacheOption func(*VerdictCache)

// WithClock replaces the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *VerdictCache) { c.now = now }
}

// NewVerdictCache creates a cache whose entries live for ttl.
func NewVerdictCache(ttl time.Duration, opts ...CacheOption) *VerdictCache {
	if ttl <= 0 {
		ttl = DefaultConfig().CacheTTL
	}
	c := &VerdictCache{
		entries: make(map[int64]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached result for id. ok is false on a miss or an expired entry.
func (c *VerdictCache) Get(id int64) (unsafe bool, ok bool) {
	c.mu.RLock()
	e, found := c.entries[id]
	c.mu.RUnlock()
	if !found {
		return false, false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have replaced it.
		if cur, still := c.entries[id]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return false, false
	}
	return e.unsafe, true
}

// Set stores a result, replacing any previous entry.
func (c *VerdictCache) Set(id int64, unsafe bool) {
	c.mu.Lock()
	c.entries[id] = cacheEntry{unsafe: unsafe, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *VerdictCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (c *VerdictCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (c *VerdictCache) StartSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
