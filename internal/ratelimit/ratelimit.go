// Package ratelimit throttles signup requests per source IP. One request
// per window is allowed; further requests are rejected until the window
// deadline passes. A background sweep bounds memory by dropping expired
// records; correctness of the throttle does not depend on it.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/signup-service/internal/pkg/logger"
)

// DefaultWindow is the minimum interval between requests from one IP.
const DefaultWindow = 60 * time.Second

// Limiter is a per-IP sliding-window throttle. Safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	deadlines map[string]int64 // IP -> epoch seconds before which requests are rejected
	window    int64
}

// New creates a Limiter with the given window. Windows shorter than one
// second fall back to DefaultWindow.
func New(window time.Duration) *Limiter {
	if window < time.Second {
		window = DefaultWindow
	}
	return &Limiter{
		deadlines: make(map[string]int64),
		window:    int64(window / time.Second),
	}
}

// CheckAndRegister reports whether a request from ip at time now (epoch
// seconds) is allowed. If allowed, the IP's deadline is advanced in the
// same critical section, so two concurrent requests from one IP can never
// both pass. When throttled, retryAfter is the number of seconds until the
// next request would be allowed.
func (l *Limiter) CheckAndRegister(ip string, now int64) (allowed bool, retryAfter int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if deadline, ok := l.deadlines[ip]; ok && deadline > now {
		return false, deadline - now
	}
	l.deadlines[ip] = now + l.window
	return true, 0
}

// Sweep removes every record whose deadline is at or before now. It exists
// only to bound memory; CheckAndRegister alone guarantees the throttle.
func (l *Limiter) Sweep(now int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, deadline := range l.deadlines {
		if deadline <= now {
			delete(l.deadlines, ip)
		}
	}
}

// Len returns the number of tracked IPs.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.deadlines)
}

// Run sweeps once per window until ctx is canceled. Intended to be run as
// a background goroutine owned by the server lifecycle.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(l.window) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("rate limiter sweep stopped")
			return
		case now := <-ticker.C:
			l.Sweep(now.Unix())
		}
	}
}
