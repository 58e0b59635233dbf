// Package timer runs the recomputation loop over the pot. Progress is
// derived from now minus the start instant on every pass, never
// accumulated, so ticks can be late or irregular without drift.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Kitchen is the part of the engine the timers need.
type Kitchen interface {
	Snapshot() domain.Kitchen
	MarkDone(ctx context.Context, uid string) bool
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTickInterval sets how often progress is recomputed.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.tickInterval = d
	}
}

// WithClock sets the time source and scheduler.
func WithClock(c clock.Clock) Option {
	return func(s *Supervisor) {
		s.clock = c
	}
}

// WithAlmostDoneThreshold sets how close to the end an entry must be to
// get the "almost done" event. Zero disables the warning.
func WithAlmostDoneThreshold(d time.Duration) Option {
	return func(s *Supervisor) {
		s.almostDoneThreshold = d
	}
}

// WithWatcher enables the reminder watcher for finished entries.
func WithWatcher(opts ...WatcherOption) Option {
	return func(s *Supervisor) {
		s.watch = true
		s.watcherOpts = opts
	}
}

// Supervisor recomputes progress for every unfinished pot entry on each
// tick and marks an entry done exactly once when it reaches 1.
type Supervisor struct {
	kitchen             Kitchen
	notifier            domain.Notifier
	log                 *logger.Logger
	clock               clock.Clock
	tickInterval        time.Duration
	almostDoneThreshold time.Duration

	watch       bool
	watcherOpts []WatcherOption
	watcher     *Watcher

	mu      sync.Mutex
	running bool
	stop    clock.Cancel
	cancel  context.CancelFunc
	tracked map[string]*tracked
}

// tracked is the per-entry latch state. It is keyed by uid and reset
// whenever the uid shows up with a different start instant, which
// happens when an entry is fished out and started again.
type tracked struct {
	startedAt time.Time
	progress  float64
	completed bool
	warned    bool
}

// New creates a timer supervisor.
func New(kitchen Kitchen, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		kitchen:             kitchen,
		notifier:            notifier,
		log:                 log,
		clock:               clock.Real(),
		tickInterval:        50 * time.Millisecond,
		almostDoneThreshold: 10 * time.Second,
		tracked:             make(map[string]*tracked),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the recomputation loop. Non-blocking.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("timer supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.stop = clock.Every(s.clock, s.tickInterval, func() {
		if childCtx.Err() == nil {
			s.Tick(childCtx)
		}
	})

	if s.watch {
		s.watcher = NewWatcher(s.kitchen, s.notifier, s.log, append([]WatcherOption{WithWatcherClock(s.clock)}, s.watcherOpts...)...)
		s.watcher.Start(childCtx)
	}

	go func() {
		<-childCtx.Done()
		s.Stop()
	}()

	s.log.Info("timer supervisor started (tick=%s)", s.tickInterval)
}

// Stop tears the loop down. No pass starts after Stop returns.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.stop()
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.cancel()
	s.running = false
	s.tracked = make(map[string]*tracked)
	s.log.Info("timer supervisor stopped")
}

// Running reports whether the loop is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Progress returns the last computed progress for a pot entry.
func (s *Supervisor) Progress(uid string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracked[uid]
	if !ok {
		return 0, false
	}
	return t.progress, true
}

// Tick runs one recomputation pass.
func (s *Supervisor) Tick(ctx context.Context) {
	k := s.kitchen.Snapshot()
	now := s.clock.Now()

	var due []string
	var almost []domain.CookingEntry

	s.mu.Lock()
	live := make(map[string]bool, len(k.Cooking))
	for _, c := range k.Cooking {
		live[c.UID] = true

		t, ok := s.tracked[c.UID]
		if !ok || !t.startedAt.Equal(c.StartedAt) {
			t = &tracked{startedAt: c.StartedAt}
			s.tracked[c.UID] = t
		}
		if t.completed {
			t.progress = 1
			continue
		}
		if c.Done {
			t.completed = true
			t.progress = 1
			continue
		}

		t.progress = c.Progress(now)
		if t.progress >= 1 {
			t.completed = true
			due = append(due, c.UID)
			continue
		}

		if s.almostDoneThreshold > 0 && !t.warned &&
			c.Duration > 2*s.almostDoneThreshold && c.Remaining(now) <= s.almostDoneThreshold {
			t.warned = true
			almost = append(almost, c)
		}
	}
	for uid := range s.tracked {
		if !live[uid] {
			delete(s.tracked, uid)
		}
	}
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	for _, uid := range due {
		if s.kitchen.MarkDone(ctx, uid) {
			s.log.Debug("entry %s done", uid)
		}
	}

	for _, c := range almost {
		if s.notifier == nil {
			break
		}
		ev := domain.Event{Type: domain.EventItemAlmostDone, UID: c.UID, IngredientID: c.IngredientID, At: now}
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.log.Error("supervisor: almost-done notify: %v", err)
		}
	}
}
