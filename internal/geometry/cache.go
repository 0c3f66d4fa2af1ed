package geometry

import "sync"

// Cache memoizes parsed shapes per zone id. Parsing sits on the zone feed's
// polling hot path; zones are stable, so a zone is only re-parsed when its
// raw geometry string changes.
type Cache struct {
	entries map[string]cacheEntry
	lock    sync.RWMutex
}

type cacheEntry struct {
	raw   string
	shape *Shape
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the shape for a zone, parsing raw only on the first call or
// after the zone's geometry changed. A nil result (unparseable geometry) is
// cached as well.
func (c *Cache) Get(zoneID, raw string) *Shape {
	c.lock.RLock()
	entry, ok := c.entries[zoneID]
	c.lock.RUnlock()
	if ok && entry.raw == raw {
		return entry.shape
	}

	shape := ParseShape(raw)
	c.lock.Lock()
	c.entries[zoneID] = cacheEntry{raw: raw, shape: shape}
	c.lock.Unlock()
	return shape
}

// Len returns the number of cached zones.
func (c *Cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.entries)
}
