// Package clock provides an injectable time source so window pruning and
// decay schedules can be driven deterministically in tests
package clock

import (
	"sync"
	"time"
)

// Clock is the minimal time surface the engine depends on
type Clock interface {
	Now() time.Time
	// Ticker returns a channel that delivers ticks at the given interval and
	// a stop func releasing its resources
	Ticker(d time.Duration) (<-chan time.Time, func())
}

// Real is the wall-clock implementation
type Real struct{}

// New returns the wall-clock Clock
func New() Clock { return Real{} }

// Now returns the current wall-clock time
func (Real) Now() time.Time { return time.Now() }

// Ticker wraps time.NewTicker
func (Real) Ticker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Manual is a hand-driven Clock for tests
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []chan time.Time
}

// NewManual returns a Manual clock pinned at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the frozen time
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward without firing tickers
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Ticker returns a channel fired only by Tick
func (m *Manual) Ticker(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time, 16)
	m.tickers = append(m.tickers, ch)
	return ch, func() {}
}

// Tick advances the clock and fires every registered ticker once
func (m *Manual) Tick(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	tickers := append([]chan time.Time(nil), m.tickers...)
	m.mu.Unlock()
	for _, ch := range tickers {
		select {
		case ch <- now:
		default:
		}
	}
}
