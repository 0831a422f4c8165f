// ABOUTME: Manually advanced clock for deterministic timing
// ABOUTME: Fires due timers synchronously, in deadline order, when advanced
package clock

import (
	"sync"
	"time"
)

// Manual is a Clock that only moves when Advance is called.
// Due callbacks run on the goroutine calling Advance, with Now reporting
// each timer's own deadline while it runs.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock *Manual
	when  time.Duration
	seq   int
	f     func()
}

// NewManual creates a manual clock at time zero
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the current manual time
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers f to fire once the clock reaches now+d
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{clock: m, when: m.now + d, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that falls due
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d

	for {
		next := m.nextDueLocked(target)
		if next == nil {
			break
		}
		m.removeLocked(next)
		m.now = next.when

		m.mu.Unlock()
		next.f()
		m.mu.Lock()
	}

	if target > m.now {
		m.now = target
	}
	m.mu.Unlock()
}

// Pending returns the number of timers that have not fired or been stopped
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manual) nextDueLocked(target time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range m.timers {
		if t.when > target {
			continue
		}
		if next == nil || t.when < next.when || (t.when == next.when && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *Manual) removeLocked(target *manualTimer) bool {
	for i, t := range m.timers {
		if t == target {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Stop cancels the timer
func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.clock.removeLocked(t)
}
