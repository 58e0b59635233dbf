package timer

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets how often the watcher looks at the pot.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithReminderInterval sets the gap between reminders for one entry.
func WithReminderInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.reminderInterval = d
	}
}

// WithMaxReminders caps the reminders sent for one entry.
func WithMaxReminders(n int) WatcherOption {
	return func(w *Watcher) {
		w.maxReminders = n
	}
}

// WithWatcherClock sets the time source.
func WithWatcherClock(c clock.Clock) WatcherOption {
	return func(w *Watcher) {
		w.clock = c
	}
}

// Watcher nags about finished entries nobody has eaten yet. The first
// reminder comes one reminder interval after the entry is first seen
// done, then one per interval up to the cap.
type Watcher struct {
	kitchen          Kitchen
	notifier         domain.Notifier
	log              *logger.Logger
	clock            clock.Clock
	interval         time.Duration
	reminderInterval time.Duration
	maxReminders     int

	mu      sync.Mutex
	stop    clock.Cancel
	waiting map[string]*reminder
}

type reminder struct {
	since time.Time
	last  time.Time
	count int
}

// NewWatcher creates a watcher.
func NewWatcher(kitchen Kitchen, notifier domain.Notifier, log *logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		kitchen:          kitchen,
		notifier:         notifier,
		log:              log,
		clock:            clock.Real(),
		interval:         time.Second,
		reminderInterval: 30 * time.Second,
		maxReminders:     3,
		waiting:          make(map[string]*reminder),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start schedules the watcher. Non-blocking.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.stop = clock.Every(w.clock, w.interval, func() { w.Check(ctx) })
	w.log.Info("watcher started (interval=%s, remind every %s, max %d)", w.interval, w.reminderInterval, w.maxReminders)
}

// Stop cancels the schedule.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop == nil {
		return
	}
	w.stop()
	w.stop = nil
	w.log.Info("watcher stopped")
}

// Check runs one watcher pass.
func (w *Watcher) Check(ctx context.Context) {
	k := w.kitchen.Snapshot()
	now := w.clock.Now()

	var out []domain.Event

	w.mu.Lock()
	live := make(map[string]bool)
	for _, c := range k.Cooking {
		if !c.Done {
			continue
		}
		live[c.UID] = true

		r, ok := w.waiting[c.UID]
		if !ok {
			w.waiting[c.UID] = &reminder{since: now}
			continue
		}
		if r.count >= w.maxReminders {
			continue
		}
		ref := r.since
		if !r.last.IsZero() {
			ref = r.last
		}
		if now.Sub(ref) < w.reminderInterval {
			continue
		}
		r.count++
		r.last = now
		out = append(out, domain.Event{
			Type:         domain.EventItemReminder,
			UID:          c.UID,
			IngredientID: c.IngredientID,
			At:           now,
			Count:        r.count,
		})
	}
	for uid := range w.waiting {
		if !live[uid] {
			delete(w.waiting, uid)
		}
	}
	w.mu.Unlock()

	for _, ev := range out {
		w.log.Debug("watcher: reminder %d for %s", ev.Count, ev.UID)
		if w.notifier == nil {
			continue
		}
		if err := w.notifier.Notify(ctx, ev); err != nil {
			w.log.Error("watcher: notify: %v", err)
		}
	}
}
