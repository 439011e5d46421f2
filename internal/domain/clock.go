package domain

import "time"

// Clock abstracts the current time so lockout and session windows can be
// tested with a simulated clock.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}
