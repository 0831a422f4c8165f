// ABOUTME: Monotonic engine clock with timer scheduling
// ABOUTME: Provides the Clock interface and the wall-clock System implementation
package clock

import "time"

// Clock is a monotonic time source that can schedule callbacks
type Clock interface {
	// Now returns the time elapsed since the clock's origin
	Now() time.Duration

	// AfterFunc calls f on its own goroutine once d has elapsed
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback
type Timer interface {
	// Stop prevents the callback from firing. It reports false if the
	// callback already fired or the timer was already stopped.
	Stop() bool
}

// System is a Clock backed by the process monotonic clock
type System struct {
	start time.Time
}

// NewSystem creates a clock whose origin is the moment of creation
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Now returns the monotonic time since the clock was created
func (s *System) Now() time.Duration {
	return time.Since(s.start)
}

// AfterFunc schedules f with time.AfterFunc
func (s *System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
