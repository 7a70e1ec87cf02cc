package core

import (
	"sync"
	"time"
)

// Clock abstracts time so settle waits and polling can be tested without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock is the wall clock.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep implements Clock.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// FakeClock is a Clock whose Sleep advances Now instantly and records the
// requested durations. Safe for concurrent use.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFakeClock creates a FakeClock starting at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now implements Clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep implements Clock.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// Sleeps returns a copy of every duration passed to Sleep.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// Slept returns the total time passed to Sleep.
func (c *FakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}

// WaitUntil polls cond every interval until it returns true, returns an
// error, or timeout elapses. A timeout is not an error: it returns false, nil.
// cond is always evaluated at least once.
func WaitUntil(clock Clock, timeout, interval time.Duration, cond func() (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	deadline := clock.Now().Add(timeout)

	for {
		ok, err := cond()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return false, nil
		}
		if remaining < interval {
			clock.Sleep(remaining)
		} else {
			clock.Sleep(interval)
		}
	}
}
