// Package ratelimit throttles gateway callers with one token bucket per
// key, usually the client address.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(key string) (bool, error)
	Reset(key string)
}

// KeyedLimiter hands each key its own rate.Limiter. Buckets idle for
// longer than the idle window are dropped on the next call.
type KeyedLimiter struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const defaultIdle = 10 * time.Minute

// New allows ratePerSec requests per second per key with bursts of up to
// burst requests. Non-positive arguments fall back to 1.
func New(ratePerSec float64, burst int) Limiter {
	if ratePerSec <= 0 {
		ratePerSec = 1.0
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		limit:   rate.Limit(ratePerSec),
		burst:   burst,
		idle:    defaultIdle,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *KeyedLimiter) Allow(key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("key cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
}

func (l *KeyedLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
}
