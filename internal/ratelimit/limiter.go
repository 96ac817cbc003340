// Package ratelimit throttles request frequency per target host.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// HostLimiter enforces a minimum delay between requests to the same host.
// It is shared by all workers in a run; access is synchronized.
type HostLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	lastSent map[string]time.Time
}

// NewHostLimiter creates a limiter with the given per-host minimum spacing.
func NewHostLimiter(minDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		minDelay: minDelay,
		lastSent: make(map[string]time.Time),
	}
}

// Wait blocks until a request to host is allowed or ctx is done. The host's
// slot is reserved before sleeping so concurrent callers space out instead
// of stampeding when the wait ends.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l.minDelay <= 0 {
		return nil
	}

	l.mu.Lock()
	now := time.Now()
	next := l.lastSent[host].Add(l.minDelay)
	if next.Before(now) {
		next = now
	}
	l.lastSent[host] = next
	l.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
