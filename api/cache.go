package api

import (
	"sync"
	"time"
)

// ResponseCache keeps raw GET response bodies until their TTL passes.
type ResponseCache struct {
	entries map[string]cacheEntry
	mu      sync.RWMutex
	nowFunc func() time.Time
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

func NewResponseCache(now func() time.Time) *ResponseCache {
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		nowFunc: now,
	}
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.nowFunc().Before(e.expires) {
		return nil, false
	}
	return e.body, true
}

func (c *ResponseCache) Put(key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{body: body, expires: c.nowFunc().Add(ttl)}
}

// Invalidate drops every entry, e.g. after the user changes.
func (c *ResponseCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

// Cleanup removes expired entries and returns how many were removed.
func (c *ResponseCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
