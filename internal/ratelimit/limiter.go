// Package ratelimit spaces outbound upstream calls evenly across a minute.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter allows one call every 60s/N with no burst beyond a single call.
// Waiters are served in the order they reserved a slot.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// New creates a limiter for requestsPerMinute calls per minute.
func New(requestsPerMinute int) (*Limiter, error) {
	if requestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", requestsPerMinute)
	}

	interval := time.Minute / time.Duration(requestsPerMinute)
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}, nil
}

// Acquire blocks until another call may be issued or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Interval returns the fixed spacing between calls.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
