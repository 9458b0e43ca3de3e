package agent

import (
	"sync"
	"time"
)

// TimingsTTL bounds how long a fetched timings response is reused.
const TimingsTTL = 6 * time.Hour

type entry struct {
	data      []byte
	expiresAt time.Time
}

// responseCache is a small TTL cache of raw response bodies keyed by URL.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func newResponseCache(now func() time.Time) *responseCache {
	return &responseCache{entries: map[string]entry{}, now: now}
}

func (c *responseCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

// Set stores data and evicts expired entries.
func (c *responseCache) Set(key string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry{data: data, expiresAt: now.Add(ttl)}
}

func (c *responseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
