package gesture

import (
	"sync"
	"time"

	"github.com/hammamikhairi/hotpot/internal/clock"
)

// Unlock defaults.
const (
	DefaultUnlockTaps   = 3
	DefaultUnlockWindow = time.Second
)

// CounterState is the state of the hidden unlock gesture.
type CounterState struct {
	Count    int
	Deadline time.Time
}

// StepCounter registers one tap. Every tap extends the deadline; a tap
// after the deadline starts over from one. Reaching need taps reports
// unlocked and resets the count.
func StepCounter(s CounterState, now time.Time, need int, window time.Duration) (CounterState, bool) {
	if s.Count > 0 && !now.Before(s.Deadline) {
		s.Count = 0
	}
	s.Count++
	s.Deadline = now.Add(window)
	if s.Count >= need {
		return CounterState{}, true
	}
	return s, false
}

// UnlockCounter counts rapid taps on a hidden target and reports when
// the threshold is reached.
type UnlockCounter struct {
	clock  clock.Clock
	need   int
	window time.Duration

	mu    sync.Mutex
	state CounterState
}

// NewUnlockCounter creates a counter requiring need taps, each within
// window of the previous one. Non-positive values use the defaults.
func NewUnlockCounter(c clock.Clock, need int, window time.Duration) *UnlockCounter {
	if c == nil {
		c = clock.Real()
	}
	if need <= 0 {
		need = DefaultUnlockTaps
	}
	if window <= 0 {
		window = DefaultUnlockWindow
	}
	return &UnlockCounter{clock: c, need: need, window: window}
}

// Tap registers a tap. Returns true exactly when the tap completes the
// sequence.
func (u *UnlockCounter) Tap() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	var unlocked bool
	u.state, unlocked = StepCounter(u.state, u.clock.Now(), u.need, u.window)
	return unlocked
}

// Count returns the taps collected so far, zero once the window lapsed.
func (u *UnlockCounter) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state.Count > 0 && !u.clock.Now().Before(u.state.Deadline) {
		return 0
	}
	return u.state.Count
}
