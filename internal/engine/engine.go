// Package engine owns the plate and the pot. Every change to either goes
// through Engine.Apply, which runs the pure Transition under a single
// mutex, persists the plate, bumps usage counts and emits events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Option configures the engine.
type Option func(*Engine)

// WithClock sets the time source used for start timestamps.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRepository persists the plate after every plate mutation.
func WithRepository(r domain.Repository) Option {
	return func(e *Engine) {
		e.repo = r
	}
}

// WithNotifier sets the event sink.
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithUIDSource replaces the uid generator. Tests use it for readable ids.
func WithUIDSource(f func() string) Option {
	return func(e *Engine) {
		e.newUID = f
	}
}

// Engine is the only writer of the kitchen state. Readers get copies.
type Engine struct {
	catalog  domain.Catalog
	repo     domain.Repository
	notifier domain.Notifier
	clock    clock.Clock
	newUID   func() string
	log      *logger.Logger

	mu        sync.Mutex
	kitchen   domain.Kitchen
	listeners []func()

	outbox     []queuedEvent
	delivering bool
}

type queuedEvent struct {
	ctx context.Context
	ev  domain.Event
}

// New creates an engine over the given catalog.
func New(catalog domain.Catalog, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		clock:   clock.Real(),
		newUID:  NewUID,
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load restores the plate from the repository. The pot always starts
// empty. A repository with nothing saved yields an empty plate.
func (e *Engine) Load(ctx context.Context) error {
	var staging []domain.StagingEntry
	if e.repo != nil {
		saved, err := e.repo.LoadStaging(ctx)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return fmt.Errorf("loading plate: %w", err)
		default:
			staging = saved
		}
	}

	k := domain.Kitchen{}
	for _, s := range staging {
		if s.UID == "" || k.HasUID(s.UID) {
			e.log.Warn("skipping plate entry with empty or duplicate uid %q", s.UID)
			continue
		}
		k.Staging = append(k.Staging, s)
	}

	e.mu.Lock()
	e.kitchen = k
	e.mu.Unlock()

	e.log.Info("restored %d plate entries", len(k.Staging))
	e.changed()
	return nil
}

// Apply runs one intent. Intents that reference missing entries are
// no-ops and return a Result with Applied false; the engine surfaces no
// errors of its own.
func (e *Engine) Apply(ctx context.Context, in domain.Intent) Result {
	e.mu.Lock()
	res := Transition(e.kitchen, in, e.clock.Now(), e.catalog, e.newUID)
	if !res.Applied {
		e.mu.Unlock()
		e.log.Debug("%s ignored", in.Kind())
		return res
	}
	e.kitchen = res.Kitchen
	if res.StagingChanged {
		e.persist(ctx, res.Kitchen.Staging)
	}
	if res.Eaten != "" && !e.catalog.IncrementUsage(res.Eaten) {
		e.log.Debug("usage not counted, ingredient %s is gone", res.Eaten)
	}
	if e.notifier != nil {
		for _, ev := range res.Events {
			e.outbox = append(e.outbox, queuedEvent{ctx: ctx, ev: ev})
		}
	}
	e.mu.Unlock()

	e.log.Debug("%s %s applied", in.Kind(), res.UID)
	e.deliver()
	e.changed()
	return res
}

// deliver sends queued events in transition order without holding the
// lock. Only one caller delivers at a time; events queued meanwhile are
// sent by that caller before it returns.
func (e *Engine) deliver() {
	e.mu.Lock()
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.outbox) > 0 {
		q := e.outbox[0]
		e.outbox = e.outbox[1:]
		e.mu.Unlock()
		if err := e.notifier.Notify(q.ctx, q.ev); err != nil {
			e.log.Warn("notify %s: %v", q.ev.Type, err)
		}
		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
}

// AddToStaging puts a new portion of an ingredient on the plate and
// returns its uid. ok is false when the ingredient is unknown.
func (e *Engine) AddToStaging(ctx context.Context, ingredientID string) (string, bool) {
	res := e.Apply(ctx, domain.AddToStaging{IngredientID: ingredientID})
	return res.UID, res.Applied
}

// PromoteStart moves a plate entry into the pot.
func (e *Engine) PromoteStart(ctx context.Context, uid string) bool {
	return e.Apply(ctx, domain.Start{UID: uid}).Applied
}

// PromoteDuplicate cooks a copy of a plate entry and returns the new
// pot uid.
func (e *Engine) PromoteDuplicate(ctx context.Context, uid string) (string, bool) {
	res := e.Apply(ctx, domain.DuplicateStart{UID: uid})
	return res.UID, res.Applied
}

// RemoveStaging drops a plate entry.
func (e *Engine) RemoveStaging(ctx context.Context, uid string) bool {
	return e.Apply(ctx, domain.Cancel{UID: uid}).Applied
}

// MarkDone flags a pot entry as finished. Idempotent.
func (e *Engine) MarkDone(ctx context.Context, uid string) bool {
	return e.Apply(ctx, domain.MarkDone{UID: uid}).Applied
}

// Dismiss eats a finished pot entry or returns an unfinished one to the
// plate.
func (e *Engine) Dismiss(ctx context.Context, uid string) bool {
	return e.Apply(ctx, domain.Dismiss{UID: uid}).Applied
}

// MoveBack returns an unfinished pot entry to the plate.
func (e *Engine) MoveBack(ctx context.Context, uid string) bool {
	return e.Apply(ctx, domain.MoveBack{UID: uid}).Applied
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() domain.Kitchen {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kitchen.Clone()
}

// Cooking returns the pot entry with uid.
func (e *Engine) Cooking(uid string) (domain.CookingEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.kitchen.CookingIndex(uid); i >= 0 {
		return e.kitchen.Cooking[i], true
	}
	return domain.CookingEntry{}, false
}

// IsDone reports whether the pot entry with uid is finished.
func (e *Engine) IsDone(uid string) (done, ok bool) {
	c, ok := e.Cooking(uid)
	return c.Done, ok
}

// View builds the presentation model at the current instant.
func (e *Engine) View() View {
	return BuildView(e.Snapshot(), e.catalog, e.clock.Now())
}

// OnChange registers fn to run after every applied transition. fn runs
// outside the engine lock.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// OnIngredientDeleted is the catalog deletion hook. Entries that point
// at id stay in place and are hidden by View until removed.
func (e *Engine) OnIngredientDeleted(id string) {
	k := e.Snapshot()
	n := 0
	for _, s := range k.Staging {
		if s.IngredientID == id {
			n++
		}
	}
	for _, c := range k.Cooking {
		if c.IngredientID == id {
			n++
		}
	}
	if n > 0 {
		e.log.Info("ingredient %s deleted, %d entries now orphaned", id, n)
	}
	e.changed()
}

func (e *Engine) persist(ctx context.Context, staging []domain.StagingEntry) {
	if e.repo == nil {
		return
	}
	if err := e.repo.SaveStaging(ctx, staging); err != nil {
		e.log.Error("saving plate: %v", err)
	}
}

func (e *Engine) changed() {
	e.mu.Lock()
	ls := make([]func(), len(e.listeners))
	copy(ls, e.listeners)
	e.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}
