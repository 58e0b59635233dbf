// Package clock provides an injectable time source and a recurring
// scheduler so timer code runs the same against the wall clock and
// against a fake clock in tests.
//
// Production code takes a Clock instead of calling time.Now or
// time.AfterFunc directly:
//
//	sup := timer.New(eng, log, timer.WithClock(clock.Real()))
//
// Tests inject Fake and drive it with Advance:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c.Advance(180 * time.Second) // fires every callback due by then
package clock

import (
	"sync"
	"time"
)

// Clock abstracts the two time operations the kitchen needs.
type Clock interface {
	// Now returns the current time. Real clocks carry a monotonic
	// reading, so differences are immune to wall-clock adjustments.
	Now() time.Time
	// AfterFunc calls f once after d elapses. The returned Timer can
	// cancel the pending call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the callback from running. Returns false if it already
// ran or was already stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}

// Cancel stops a recurring schedule. Safe to call more than once.
type Cancel func()

// Every runs fn every interval until the returned Cancel is called.
// Runs never overlap: the next run is scheduled only after fn returns.
// Panics if interval <= 0.
func Every(c Clock, interval time.Duration, fn func()) Cancel {
	if interval <= 0 {
		panic("clock: non-positive interval for Every")
	}
	r := &recurring{clock: c, interval: interval, fn: fn}
	r.mu.Lock()
	r.timer = c.AfterFunc(interval, r.fire)
	r.mu.Unlock()
	return r.stop
}

type recurring struct {
	clock    Clock
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   *Timer
	stopped bool
}

func (r *recurring) fire() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.fn()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.timer = r.clock.AfterFunc(r.interval, r.fire)
}

func (r *recurring) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.timer.Stop()
}
