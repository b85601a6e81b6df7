package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// KeyedLimiter is a token bucket per key, used to throttle HTTP clients by IP.
type KeyedLimiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	capacity float64
	refill   float64 // tokens per second
	idleTTL  time.Duration
	now      func() time.Time
	lastGC   time.Time
}

// NewKeyed creates a limiter allowing burst requests at once and rps sustained.
func NewKeyed(rps float64, burst int) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		m:        make(map[string]*bucket),
		capacity: float64(burst),
		refill:   rps,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *KeyedLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gc(now)
	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// gc drops buckets idle longer than idleTTL. Caller holds mu.
func (l *KeyedLimiter) gc(now time.Time) {
	if now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	l.lastGC = now
	for k, b := range l.m {
		if now.Sub(b.last) > l.idleTTL {
			delete(l.m, k)
		}
	}
}
