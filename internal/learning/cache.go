package learning

import (
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// mappingCache is an advisory read-through cache. Entries expire together
// once the first entry is older than ttl; any write clears the owner.
//
// Readers take the owner's generation before loading from the store and
// pass it to put. A put whose generation was bumped by an invalidation in
// between is dropped, so a value read before a write is never cached after it.
type mappingCache struct {
	expiry      time.Time
	vendors     map[string]model.VendorMapping
	patterns    map[string]model.PatternMapping
	generations map[string]uint64
	ttl         time.Duration
	mu          sync.RWMutex
}

func newMappingCache(ttl time.Duration) *mappingCache {
	return &mappingCache{
		vendors:     make(map[string]model.VendorMapping),
		patterns:    make(map[string]model.PatternMapping),
		generations: make(map[string]uint64),
		ttl:         ttl,
	}
}

// generation returns the owner's current invalidation count.
func (c *mappingCache) generation(ownerID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[ownerID]
}

func cacheKey(ownerID, key string) string {
	return ownerID + "\x00" + key
}

func (c *mappingCache) expired() bool {
	return !c.expiry.IsZero() && time.Now().After(c.expiry)
}

// resetLocked must be called with the write lock held.
func (c *mappingCache) resetLocked() {
	c.vendors = make(map[string]model.VendorMapping)
	c.patterns = make(map[string]model.PatternMapping)
	c.expiry = time.Time{}
}

func (c *mappingCache) getVendor(ownerID, key string) (model.VendorMapping, bool) {
	c.mu.RLock()
	if c.expired() {
		c.mu.RUnlock()
		c.mu.Lock()
		// Double-check after acquiring write lock
		if c.expired() {
			c.resetLocked()
		}
		c.mu.Unlock()
		return model.VendorMapping{}, false
	}
	m, ok := c.vendors[cacheKey(ownerID, key)]
	c.mu.RUnlock()
	return m, ok
}

func (c *mappingCache) getPattern(ownerID, key string) (model.PatternMapping, bool) {
	c.mu.RLock()
	if c.expired() {
		c.mu.RUnlock()
		c.mu.Lock()
		if c.expired() {
			c.resetLocked()
		}
		c.mu.Unlock()
		return model.PatternMapping{}, false
	}
	m, ok := c.patterns[cacheKey(ownerID, key)]
	c.mu.RUnlock()
	return m, ok
}

func (c *mappingCache) putVendor(m model.VendorMapping, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[m.OwnerID] != gen {
		return
	}
	c.touchLocked()
	c.vendors[cacheKey(m.OwnerID, m.Key)] = m
}

func (c *mappingCache) putPattern(m model.PatternMapping, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[m.OwnerID] != gen {
		return
	}
	c.touchLocked()
	c.patterns[cacheKey(m.OwnerID, m.Key)] = m
}

func (c *mappingCache) touchLocked() {
	if c.expiry.IsZero() {
		c.expiry = time.Now().Add(c.ttl)
	}
}

// invalidateOwner drops every entry belonging to ownerID.
func (c *mappingCache) invalidateOwner(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[ownerID]++
	prefix := ownerID + "\x00"
	for k := range c.vendors {
		if strings.HasPrefix(k, prefix) {
			delete(c.vendors, k)
		}
	}
	for k := range c.patterns {
		if strings.HasPrefix(k, prefix) {
			delete(c.patterns, k)
		}
	}
}

func (c *mappingCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vendors) + len(c.patterns)
}
