package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memEntry struct {
	value    interface{}
	expireAt time.Time
	accessed time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryCache is the in-process Service used when redis is disabled. The
// oldest-accessed entry is evicted once MaxSize is reached; a background
// sweeper drops expired entries.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	maxSize int
	sweeper *time.Ticker
	done    chan struct{}
}

// NewMemoryCache creates an in-process key-value store.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:       defaultMemoryMax,
		SweepInterval: defaultMemorySweep,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries: make(map[string]*memEntry),
		maxSize: cfg.MaxSize,
		sweeper: time.NewTicker(cfg.SweepInterval),
		done:    make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	now := time.Now()
	var expireAt time.Time
	if expiration > 0 {
		expireAt = now.Add(expiration)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.maxSize {
		mc.evictOldestLocked()
	}
	mc.entries[key] = &memEntry{value: value, expireAt: expireAt, accessed: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok || e.expired(now) {
		if ok {
			delete(mc.entries, key)
		}
		return ErrCacheMiss
	}
	e.accessed = now

	switch d := dest.(type) {
	case *string:
		if s, ok := e.value.(string); ok {
			*d = s
			return nil
		}
		return fmt.Errorf("cache: value for %q is not a string", key)
	case *interface{}:
		*d = e.value
		return nil
	default:
		return fmt.Errorf("cache: unsupported dest type %T", dest)
	}
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.entries, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	now := time.Now()
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if e, ok := mc.entries[key]; ok && !e.expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok || e.expired(time.Now()) {
		mc.entries[key] = &memEntry{value: int64(1), accessed: time.Now()}
		return 1, nil
	}
	n, ok := e.value.(int64)
	if !ok {
		return 0, fmt.Errorf("cache: value for %q is not a counter", key)
	}
	n++
	e.value = n
	return n, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if e, ok := mc.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	mc.entries[key] = &memEntry{value: "locked", expireAt: now.Add(ttl), accessed: now}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

func (mc *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, e := range mc.entries {
		if oldestKey == "" || e.accessed.Before(oldest) {
			oldestKey = key
			oldest = e.accessed
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

func (mc *MemoryCache) sweep() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.sweeper.C:
			now := time.Now()
			mc.mu.Lock()
			for key, e := range mc.entries {
				if e.expired(now) {
					delete(mc.entries, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the background sweeper.
func (mc *MemoryCache) Close() error {
	mc.sweeper.Stop()
	close(mc.done)
	return nil
}
