package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing API calls per named platform
type Limiter interface {
	Wait(ctx context.Context, platform string) error
}

// InMemoryLimiter is an implementation of Limiter stored in memory
type InMemoryLimiter struct {
	platforms map[string]*rate.Limiter
	mu        sync.Mutex
	r         rate.Limit
	b         int
}

// NewInMemoryLimiter creates a new rate limiter
// Example: NewInMemoryLimiter(3, time.Second, 3) -> 3 calls per second, burst of 3
func NewInMemoryLimiter(requests int, per time.Duration, burst int) Limiter {
	return &InMemoryLimiter{
		platforms: make(map[string]*rate.Limiter),
		r:         rate.Every(per / time.Duration(requests)),
		b:         burst,
	}
}

// Wait blocks until the named platform may perform another call.
func (l *InMemoryLimiter) Wait(ctx context.Context, platform string) error {
	l.mu.Lock()
	limiter, exists := l.platforms[platform]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.platforms[platform] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
