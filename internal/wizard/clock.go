package wizard

import "time"

// Clock supplies the current time to time-sensitive validators.
// Validators must not cache a "now" computed earlier in the session, so the
// clock is consulted again every time a predicate runs (step exit and submit).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock backed by time.Now.
var SystemClock Clock = systemClock{}

// FixedClock always reports the same instant. For tests.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.At }
