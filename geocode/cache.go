package geocode

import (
	"strings"
	"sync"
)

// Cache maps "city, state" to resolved coordinates for the lifetime of the
// process. Unbounded and never invalidated: city/state geography does not
// change between uploads.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Coordinates
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Coordinates)}
}

// CacheKey builds the canonical "city, state" key. Lookup is case-insensitive.
func CacheKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + ", " + strings.ToLower(strings.TrimSpace(state))
}

func (c *Cache) Get(key string) (Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coords, ok := c.entries[key]
	return coords, ok
}

func (c *Cache) Put(key string, coords Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = coords
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
