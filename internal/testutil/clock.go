package testutil

import (
	"sync"
	"time"
)

// FrozenClock provides a thread-safe wall clock pinned to a fixed
// instant, for deterministic validated_at stamps in tests and golden
// snapshots.
type FrozenClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFrozenClock creates a clock frozen at the given instant.
func NewFrozenClock(t time.Time) *FrozenClock {
	return &FrozenClock{t: t}
}

// Now returns the frozen instant. Pass as engine.WithClock(c.Now).
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Set pins the clock to a new instant.
func (c *FrozenClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
