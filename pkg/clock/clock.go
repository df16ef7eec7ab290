// Package clock abstracts wall-clock access so that every time-dependent
// component (rate limiter windows, cache TTLs, scheduler ticks, novelty
// expiry) can be tested deterministically by advancing a fake clock instead
// of sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock is the minimal time source injected into time-dependent components.
type Clock interface {
	Now() time.Time
}

// systemClock reads the real wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }

// Mock is a manually advanced Clock for tests.  Safe for concurrent use.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock returns a Mock frozen at the given instant.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

// Now returns the mock's current instant.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by d and returns the new instant.
func (m *Mock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// Set pins the mock clock to the given instant.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
