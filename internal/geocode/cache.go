package geocode

import (
	"strings"
	"sync"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// Cache holds resolved and failed lookups for the lifetime of one run.
// A nil value records that resolution was attempted and produced nothing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*event.Coordinates
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*event.Coordinates),
	}
}

// CacheKey normalizes location text into a cache key.
func CacheKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Get returns the cached value for text and whether an entry exists.
// found with a nil result is a negative entry.
func (c *Cache) Get(text string) (*event.Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	coords, found := c.entries[CacheKey(text)]
	return clone(coords), found
}

// Set stores a lookup result; nil records a failed lookup.
func (c *Cache) Set(text string, coords *event.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[CacheKey(text)] = clone(coords)
}

// Size returns the number of cached entries, negative ones included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Negatives returns how many entries record a failed lookup.
func (c *Cache) Negatives() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, coords := range c.entries {
		if coords == nil {
			n++
		}
	}
	return n
}

func clone(c *event.Coordinates) *event.Coordinates {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
