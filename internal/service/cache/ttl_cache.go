package cache

import (
	"sync"
	"time"
)

type item struct {
	b   []byte
	exp time.Time
}

// TTLCache is an in-process ResponseCache. Expired entries are evicted
// lazily on read and swept whenever the map passes sweepThreshold.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]item
}

const sweepThreshold = 4096

func NewTTLCache() *TTLCache {
	return &TTLCache{items: make(map[string]item)}
}

func (c *TTLCache) Get(key string) ([]byte, bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !it.exp.IsZero() && time.Now().After(it.exp) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return it.b, true, nil
}

func (c *TTLCache) Set(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item{b: value, exp: exp}
	if len(c.items) > sweepThreshold {
		c.sweepLocked()
	}
	c.mu.Unlock()
	return nil
}

func (c *TTLCache) sweepLocked() {
	now := time.Now()
	for k, it := range c.items {
		if !it.exp.IsZero() && now.After(it.exp) {
			delete(c.items, k)
		}
	}
}
