package cache

import (
	"context"
	"time"
)

// LayeredCache fronts redis with a small in-process layer. Reads fill the
// local layer; writes go through to redis first so it stays authoritative.
type LayeredCache struct {
	local  *MemoryCache
	remote *RedisCache
}

// NewLayeredCache wraps the redis store with a local read-through layer.
func NewLayeredCache(remote *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: defaultLayeredL1Max}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		local:  NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		remote: remote,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, value, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.local.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	if s, ok := dest.(*string); ok {
		_ = lc.local.Set(ctx, key, *s, 0)
	}
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

// Exists, counters, and locks consult redis only; the local layer is a read
// accelerator, not a source of truth.
func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.remote.Exists(ctx, keys...)
}

func (lc *LayeredCache) Increment(ctx context.Context, key string) (int64, error) {
	return lc.remote.Increment(ctx, key)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.remote.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.remote.Unlock(ctx, key)
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.local.Close()
	return lc.remote.Close()
}
