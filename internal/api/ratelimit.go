// This file implements per-API-key rate limiting with token buckets.
package api

import (
	"sync"
	"time"
)

// DefaultMessagesPerHour is the default message-endpoint rate limit per key.
const DefaultMessagesPerHour = 100

// rateLimiter is a token-bucket limiter keyed by API key hash. Each key gets
// a bucket of capacity tokens refilled continuously over the window.
type rateLimiter struct {
	mu       sync.Mutex
	capacity float64
	window   time.Duration
	buckets  map[string]*bucket

	now func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// newRateLimiter creates a limiter allowing capacity requests per window.
func newRateLimiter(capacity int, window time.Duration) *rateLimiter {
	if capacity <= 0 {
		capacity = DefaultMessagesPerHour
	}
	if window <= 0 {
		window = time.Hour
	}
	return &rateLimiter{
		capacity: float64(capacity),
		window:   window,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// Allow reports whether one more request for key fits the limit, consuming a
// token when it does.
func (l *rateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastSeen: now}
		l.buckets[key] = b
	} else {
		elapsed := now.Sub(b.lastSeen)
		b.tokens += l.capacity * float64(elapsed) / float64(l.window)
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.lastSeen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
