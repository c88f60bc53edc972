package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter checks whether an attempt identified by a key (login
// email, remote address) should be allowed. The token service itself
// never rate-limits; a limiter is an optional outer collaborator on the
// credential endpoints.
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

// InProcessLimiter is a simple sliding-window rate limiter that tracks
// attempt counts per key in memory.
type InProcessLimiter struct {
	perMinute int
	mu        sync.Mutex
	counters  map[string]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter creates a limiter allowing perMinute attempts per
// key per minute. perMinute <= 0 disables limiting.
func NewInProcessLimiter(perMinute int) *InProcessLimiter {
	return &InProcessLimiter{
		perMinute: perMinute,
		counters:  make(map[string]*counter),
	}
}

// Allow checks if the attempt is within the rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, key string) error {
	if l.perMinute <= 0 {
		return nil // no limit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= time.Minute {
		// New window.
		l.counters[key] = &counter{count: 1, windowAt: now}
		return nil
	}

	c.count++
	if c.count > l.perMinute {
		return ErrTooManyRequests
	}

	return nil
}
