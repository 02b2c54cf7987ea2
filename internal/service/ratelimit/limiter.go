package ratelimit

import (
	"sync"
	"time"
)

// Limiter applies a token bucket per key. Buckets refill continuously at
// their configured rate and are created on first use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	capacity float64
	rate     float64
	refilled time.Time
}

const pruneThreshold = 8192

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket)}
}

// Allow consumes one token for key, creating a full bucket on first sight.
// capacity bounds the burst, refillPerSec the sustained rate.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) > pruneThreshold {
			l.pruneLocked(now)
		}
		b = &bucket{tokens: capacity, capacity: capacity, rate: refillPerSec, refilled: now}
		l.buckets[key] = b
	}

	b.refill(now)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.refilled).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.refilled = now
}

// pruneLocked drops buckets that have been idle long enough to be full again.
func (l *Limiter) pruneLocked(now time.Time) {
	for k, b := range l.buckets {
		if b.rate > 0 && now.Sub(b.refilled).Seconds()*b.rate >= b.capacity {
			delete(l.buckets, k)
		}
	}
}
