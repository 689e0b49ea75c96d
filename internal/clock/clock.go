package clock

import (
	"sync"
	"time"
)

// Source provides write timestamps as fractional seconds since the
// Unix epoch.
type Source interface {
	Now() float64
}

// System reads the node's wall clock.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Manual is a settable clock for deterministic tests.
type Manual struct {
	mu  sync.Mutex
	now float64
}

// NewManual creates a manual clock starting at the given timestamp.
func NewManual(start float64) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to the given timestamp.
func (m *Manual) Set(ts float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = ts
}

// Advance moves the clock forward by the given number of seconds.
func (m *Manual) Advance(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += seconds
}
