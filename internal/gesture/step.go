// Package gesture turns raw taps on the plate and the pot into engine
// intents. The timing rules live in pure step functions; Disambiguator
// wraps them with a clock and per-entry timers.
package gesture

import "time"

// Default windows.
const (
	DefaultStartWindow = 180 * time.Millisecond
	DefaultFishWindow  = 300 * time.Millisecond
)

// Phase is the per-entry recognizer phase.
type Phase int

const (
	Idle Phase = iota
	Pending
)

func (p Phase) String() string {
	if p == Pending {
		return "pending"
	}
	return "idle"
}

// State is the recognizer state of a single entry. Expiry is only
// meaningful while Pending.
type State struct {
	Phase  Phase
	Expiry time.Time
}

// Input is a raw gesture event.
type Input int

const (
	InputTap Input = iota
	InputExpire
	InputRemove
)

// Effect is what a step asks the caller to do.
type Effect int

const (
	EffectNone Effect = iota
	// EffectArm asks the caller to schedule an InputExpire at Expiry.
	EffectArm
	EffectStart
	EffectDuplicateStart
	EffectCancel
	EffectEat
	EffectMoveBack
)

// String returns a human-readable effect.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectArm:
		return "arm"
	case EffectStart:
		return "start"
	case EffectDuplicateStart:
		return "duplicate_start"
	case EffectCancel:
		return "cancel"
	case EffectEat:
		return "eat"
	case EffectMoveBack:
		return "move_back"
	default:
		return "unknown"
	}
}

// StepPlate advances the recognizer of a plate entry.
//
// A first tap arms the window. A second tap strictly inside the window
// yields a duplicate start. The window closing with no second tap yields
// a start. Remove yields a cancel from any phase and drops the pending
// start.
func StepPlate(s State, in Input, now time.Time, window time.Duration) (State, Effect) {
	switch in {
	case InputTap:
		if s.Phase == Idle {
			return State{Phase: Pending, Expiry: now.Add(window)}, EffectArm
		}
		if now.Before(s.Expiry) {
			return State{}, EffectDuplicateStart
		}
		// The expiry has not been delivered yet but the window is over,
		// so the first tap already counts as a single start.
		return State{}, EffectStart

	case InputExpire:
		if s.Phase == Pending && !now.Before(s.Expiry) {
			return State{}, EffectStart
		}
		return s, EffectNone

	case InputRemove:
		return State{}, EffectCancel
	}
	return s, EffectNone
}

// StepPot advances the recognizer of a pot entry. done must reflect the
// entry state at the moment of the input.
//
// A tap on a finished entry eats it straight away. On an unfinished
// entry two taps inside the window fish it back to the plate; a lone
// tap does nothing.
func StepPot(s State, in Input, now time.Time, window time.Duration, done bool) (State, Effect) {
	switch in {
	case InputTap:
		if done {
			return State{}, EffectEat
		}
		if s.Phase == Pending && now.Before(s.Expiry) {
			return State{}, EffectMoveBack
		}
		return State{Phase: Pending, Expiry: now.Add(window)}, EffectArm

	case InputExpire:
		if s.Phase == Pending && !now.Before(s.Expiry) {
			return State{}, EffectNone
		}
		return s, EffectNone

	case InputRemove:
		return State{}, EffectNone
	}
	return s, EffectNone
}
