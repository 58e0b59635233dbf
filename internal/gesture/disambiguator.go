package gesture

import (
	"sync"
	"time"

	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// DispatchFunc receives the intents recognized from gestures, in the
// order they were recognized.
type DispatchFunc func(domain.Intent)

// DoneFunc reports whether a pot entry is finished and whether it exists.
type DoneFunc func(uid string) (done, ok bool)

// Option configures a Disambiguator.
type Option func(*Disambiguator)

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(d *Disambiguator) {
		d.clock = c
	}
}

// WithStartWindow sets the plate double-tap window.
func WithStartWindow(w time.Duration) Option {
	return func(d *Disambiguator) {
		if w > 0 {
			d.startWindow = w
		}
	}
}

// WithFishWindow sets the pot double-tap window.
func WithFishWindow(w time.Duration) Option {
	return func(d *Disambiguator) {
		if w > 0 {
			d.fishWindow = w
		}
	}
}

// Disambiguator recognizes taps per entry and dispatches intents. Each
// entry has its own recognizer, so taps on different entries never
// interfere. Recognized intents are queued under the lock and dispatched
// after it is released, one at a time, in recognition order. dispatch may
// block or call back into the Disambiguator.
type Disambiguator struct {
	clock       clock.Clock
	dispatch    DispatchFunc
	isDone      DoneFunc
	log         *logger.Logger
	startWindow time.Duration
	fishWindow  time.Duration

	mu    sync.Mutex
	plate map[string]*slot
	pot   map[string]*slot
	gen   uint64

	queue       []domain.Intent
	dispatching bool
}

type slot struct {
	state State
	timer *clock.Timer
	gen   uint64
}

// New creates a Disambiguator. isDone may be nil when pot gestures are
// not used.
func New(dispatch DispatchFunc, isDone DoneFunc, log *logger.Logger, opts ...Option) *Disambiguator {
	d := &Disambiguator{
		clock:       clock.Real(),
		dispatch:    dispatch,
		isDone:      isDone,
		log:         log,
		startWindow: DefaultStartWindow,
		fishWindow:  DefaultFishWindow,
		plate:       make(map[string]*slot),
		pot:         make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TapPlate records a tap on a plate entry.
func (d *Disambiguator) TapPlate(uid string) {
	d.mu.Lock()
	s := d.slotFor(d.plate, uid)
	next, eff := StepPlate(s.state, InputTap, d.clock.Now(), d.startWindow)
	d.applyPlate(uid, s, next, eff)
	d.mu.Unlock()
	d.flush()
}

// RemovePlate records a press on the remove control of a plate entry.
// Any pending start for the entry is dropped.
func (d *Disambiguator) RemovePlate(uid string) {
	d.mu.Lock()
	s := d.slotFor(d.plate, uid)
	next, eff := StepPlate(s.state, InputRemove, d.clock.Now(), d.startWindow)
	d.applyPlate(uid, s, next, eff)
	d.mu.Unlock()
	d.flush()
}

// TapPot records a tap on a pot entry.
func (d *Disambiguator) TapPot(uid string) {
	done, ok := false, true
	if d.isDone != nil {
		done, ok = d.isDone(uid)
	}

	d.mu.Lock()
	if !ok {
		d.drop(d.pot, uid)
		d.mu.Unlock()
		return
	}
	s := d.slotFor(d.pot, uid)
	next, eff := StepPot(s.state, InputTap, d.clock.Now(), d.fishWindow, done)
	d.applyPot(uid, s, next, eff)
	d.mu.Unlock()
	d.flush()
}

// PendingPlate reports whether a plate entry is waiting for a possible
// second tap.
func (d *Disambiguator) PendingPlate(uid string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.plate[uid]
	return ok && s.state.Phase == Pending
}

// Reset drops every pending recognizer without dispatching.
func (d *Disambiguator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for uid := range d.plate {
		d.drop(d.plate, uid)
	}
	for uid := range d.pot {
		d.drop(d.pot, uid)
	}
}

func (d *Disambiguator) applyPlate(uid string, s *slot, next State, eff Effect) {
	s.state = next
	switch eff {
	case EffectArm:
		d.arm(d.plate, uid, s, d.startWindow, d.expirePlate)
		return
	case EffectStart:
		d.drop(d.plate, uid)
		d.log.Debug("plate %s: single tap", uid)
		d.queue = append(d.queue, domain.Start{UID: uid})
	case EffectDuplicateStart:
		d.drop(d.plate, uid)
		d.log.Debug("plate %s: double tap", uid)
		d.queue = append(d.queue, domain.DuplicateStart{UID: uid})
	case EffectCancel:
		d.drop(d.plate, uid)
		d.log.Debug("plate %s: remove", uid)
		d.queue = append(d.queue, domain.Cancel{UID: uid})
	default:
		if next.Phase == Idle {
			d.drop(d.plate, uid)
		}
	}
}

func (d *Disambiguator) applyPot(uid string, s *slot, next State, eff Effect) {
	s.state = next
	switch eff {
	case EffectArm:
		d.arm(d.pot, uid, s, d.fishWindow, d.expirePot)
		return
	case EffectEat:
		d.drop(d.pot, uid)
		d.log.Debug("pot %s: eat", uid)
		d.queue = append(d.queue, domain.Dismiss{UID: uid})
	case EffectMoveBack:
		d.drop(d.pot, uid)
		d.log.Debug("pot %s: fish out", uid)
		d.queue = append(d.queue, domain.MoveBack{UID: uid})
	default:
		if next.Phase == Idle {
			d.drop(d.pot, uid)
		}
	}
}

func (d *Disambiguator) arm(slots map[string]*slot, uid string, s *slot, window time.Duration, expire func(string, uint64)) {
	s.timer.Stop()
	d.gen++
	gen := d.gen
	s.gen = gen
	s.timer = d.clock.AfterFunc(window, func() { expire(uid, gen) })
	slots[uid] = s
}

func (d *Disambiguator) expirePlate(uid string, gen uint64) {
	d.mu.Lock()
	s, ok := d.plate[uid]
	if !ok || s.gen != gen {
		d.mu.Unlock()
		return
	}
	next, eff := StepPlate(s.state, InputExpire, d.clock.Now(), d.startWindow)
	d.applyPlate(uid, s, next, eff)
	d.mu.Unlock()
	d.flush()
}

func (d *Disambiguator) expirePot(uid string, gen uint64) {
	d.mu.Lock()
	s, ok := d.pot[uid]
	if !ok || s.gen != gen {
		d.mu.Unlock()
		return
	}
	next, eff := StepPot(s.state, InputExpire, d.clock.Now(), d.fishWindow, false)
	d.applyPot(uid, s, next, eff)
	d.mu.Unlock()
	d.flush()
}

// flush hands queued intents to dispatch without holding the lock. Only
// one caller dispatches at a time; intents queued meanwhile, including
// from inside dispatch, are picked up by that caller before it returns.
func (d *Disambiguator) flush() {
	d.mu.Lock()
	if d.dispatching {
		d.mu.Unlock()
		return
	}
	d.dispatching = true
	for len(d.queue) > 0 {
		in := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		d.dispatch(in)
		d.mu.Lock()
	}
	d.dispatching = false
	d.mu.Unlock()
}

func (d *Disambiguator) slotFor(slots map[string]*slot, uid string) *slot {
	if s, ok := slots[uid]; ok {
		return s
	}
	return &slot{}
}

func (d *Disambiguator) drop(slots map[string]*slot, uid string) {
	if s, ok := slots[uid]; ok {
		s.timer.Stop()
		delete(slots, uid)
	}
}
