// Package timing holds the session time base, structured timestamps and the
// per-frame pacing controller.
package timing

import (
	"sync"
	"time"
)

// Clock is the monotonic time base of a session. Elapsed is measured from
// the moment the clock was created.
type Clock interface {
	Elapsed() time.Duration
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct {
	start time.Time
}

// NewClock returns a Clock backed by the runtime monotonic clock, starting now.
func NewClock() Clock {
	return &realClock{start: time.Now()}
}

func (c *realClock) Elapsed() time.Duration {
	return time.Since(c.start)
}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func (c *realClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// ManualClock is a deterministic Clock for tests. Sleep advances the clock
// instead of blocking and records the requested duration.
type ManualClock struct {
	mu      sync.Mutex
	base    time.Time
	elapsed time.Duration
	sleeps  []time.Duration
}

// NewManualClock returns a ManualClock whose wall time starts at base.
func NewManualClock(base time.Time) *ManualClock {
	return &ManualClock{base: base}
}

func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(c.elapsed)
}

func (c *ManualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.elapsed += d
	}
}

// Advance moves the clock forward without recording a sleep.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed += d
}

// Sleeps returns every duration passed to Sleep, in call order.
func (c *ManualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}
