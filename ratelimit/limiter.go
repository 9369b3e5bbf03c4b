// Package ratelimit implements a fixed-window request limiter on top of a
// shared counter store.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Counter increments the hit count of key within a fixed window. The first
// hit of a window starts its expiry; ttl is the time left until the count
// resets.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
	prefix  string
}

func NewLimiter(counter Counter, limit int, window time.Duration, prefix string) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{counter: counter, limit: limit, window: window, prefix: prefix}
}

// Allow counts one hit for key and reports whether it fits in the window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, ttl, err := l.counter.Incr(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return Decision{}, errors.Wrap(err, "failed to increment rate limit counter")
	}
	if ttl <= 0 {
		ttl = l.window
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}

func (l *Limiter) Limit() int {
	return l.limit
}
