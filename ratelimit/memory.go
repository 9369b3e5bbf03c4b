package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a single-process Counter, used when no Redis is configured.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
}

type window struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (c *MemoryCounter) Incr(_ context.Context, key string, size time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w := c.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(size)}
		c.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

// Sweep drops expired windows. The server calls it periodically.
func (c *MemoryCounter) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, w := range c.windows {
		if !now.Before(w.resetAt) {
			delete(c.windows, key)
			removed++
		}
	}
	return removed
}
