package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze "today" via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic dates.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for forecast-range checks. Pass nil to
// reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Today returns the current calendar date at midnight in the clock's location.
func Today() Date {
	return DateOf(clock.Now())
}

// Now returns the current instant from the package clock.
func Now() time.Time {
	return clock.Now()
}
