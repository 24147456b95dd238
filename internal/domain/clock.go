package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic
// verdicts.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current evaluation instant in UTC, from the package clock.
// Feed timestamps carry no offset and are parsed as UTC, so comparisons use
// UTC throughout.
func Now() time.Time {
	return clock.Now().UTC()
}
