// Package clock abstracts time for the tick driver so fixed-step accumulation
// can be tested deterministically.
package clock

import "time"

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System returns a Clock backed by real wall time.
func System() Clock {
	return system{}
}

type system struct{}

func (system) Now() time.Time        { return time.Now() }
func (system) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a hand-advanced clock for tests. The zero value starts at the
// zero time; Sleep advances instead of blocking.
type Manual struct {
	now time.Time
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

// Reset rewinds the clock to start.
func (m *Manual) Reset(start time.Time) {
	m.now = start
}

func (m *Manual) Sleep(d time.Duration) {
	m.Advance(d)
}
