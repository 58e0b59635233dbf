package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// --- Mocks ---

type mockCatalog struct {
	mu    sync.Mutex
	items map[string]domain.Ingredient
}

func newMockCatalog(items ...domain.Ingredient) *mockCatalog {
	m := &mockCatalog{items: make(map[string]domain.Ingredient)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *mockCatalog) Lookup(id string) (domain.Ingredient, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	return it, ok
}

func (m *mockCatalog) IncrementUsage(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return false
	}
	it.UsageCount++
	m.items[id] = it
	return true
}

func (m *mockCatalog) usage(id string) int {
	it, _ := m.Lookup(id)
	return it.UsageCount
}

func (m *mockCatalog) delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
}

func (m *mockCatalog) setSeconds(id string, s int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.items[id]
	it.Seconds = s
	m.items[id] = it
}

type mockNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockNotifier) Notify(_ context.Context, ev domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockNotifier) count(t domain.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ev := range m.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type mockRepo struct {
	staging []domain.StagingEntry
	saved   int
}

func (m *mockRepo) LoadCatalog(context.Context) ([]domain.Ingredient, error) {
	return nil, domain.ErrNotFound
}
func (m *mockRepo) SaveCatalog(context.Context, []domain.Ingredient) error { return nil }
func (m *mockRepo) LoadStaging(context.Context) ([]domain.StagingEntry, error) {
	if m.staging == nil {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.StagingEntry, len(m.staging))
	copy(out, m.staging)
	return out, nil
}
func (m *mockRepo) SaveStaging(_ context.Context, entries []domain.StagingEntry) error {
	m.staging = make([]domain.StagingEntry, len(entries))
	copy(m.staging, entries)
	m.saved++
	return nil
}
func (m *mockRepo) LoadSettings(context.Context) (domain.Settings, error) {
	return domain.Settings{}, domain.ErrNotFound
}
func (m *mockRepo) SaveSettings(context.Context, domain.Settings) error { return nil }
func (m *mockRepo) Close() error                                        { return nil }

var start = time.Date(2026, 1, 1, 19, 0, 0, 0, time.UTC)

var shrimpPaste = domain.Ingredient{ID: "shrimp-paste", Name: "Shrimp Paste", Seconds: 180, Category: domain.CategorySeafood}
var beef = domain.Ingredient{ID: "beef", Name: "Beef Slices", Seconds: 15, Category: domain.CategoryMeat}

type fixture struct {
	eng   *Engine
	cat   *mockCatalog
	notif *mockNotifier
	repo  *mockRepo
	clk   *clock.FakeClock
}

func newFixture() *fixture {
	f := &fixture{
		cat:   newMockCatalog(shrimpPaste, beef),
		notif: &mockNotifier{},
		repo:  &mockRepo{},
		clk:   clock.Fake(start),
	}
	n := 0
	f.eng = New(f.cat, logger.New(logger.LevelOff, nil),
		WithClock(f.clk),
		WithNotifier(f.notif),
		WithRepository(f.repo),
		WithUIDSource(func() string {
			n++
			return fmt.Sprintf("u%d", n)
		}),
	)
	return f
}

// --- Tests ---

func TestShrimpPasteScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s1, ok := f.eng.AddToStaging(ctx, shrimpPaste.ID)
	if !ok {
		t.Fatal("AddToStaging failed")
	}
	if !f.eng.PromoteStart(ctx, s1) {
		t.Fatal("PromoteStart failed")
	}

	k := f.eng.Snapshot()
	if len(k.Staging) != 0 || len(k.Cooking) != 1 {
		t.Fatalf("expected empty plate and one pot entry, got %+v", k)
	}
	c1 := k.Cooking[0]
	if c1.UID != s1 {
		t.Fatalf("start should reuse the plate uid: %s vs %s", c1.UID, s1)
	}
	if c1.Duration != 180*time.Second {
		t.Fatalf("duration = %v, want 180s", c1.Duration)
	}

	f.clk.Advance(180 * time.Second)
	if !f.eng.MarkDone(ctx, c1.UID) {
		t.Fatal("MarkDone failed")
	}
	if f.eng.MarkDone(ctx, c1.UID) {
		t.Fatal("second MarkDone should be a no-op")
	}
	if got := f.notif.count(domain.EventItemCompleted); got != 1 {
		t.Fatalf("completed events = %d, want 1", got)
	}

	if !f.eng.Dismiss(ctx, c1.UID) {
		t.Fatal("Dismiss failed")
	}
	if k := f.eng.Snapshot(); len(k.Cooking) != 0 || len(k.Staging) != 0 {
		t.Fatalf("expected empty kitchen, got %+v", k)
	}
	if got := f.cat.usage(shrimpPaste.ID); got != 1 {
		t.Fatalf("usage = %d, want 1", got)
	}
}

func TestDuplicateStartKeepsPlateEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s2, _ := f.eng.AddToStaging(ctx, beef.ID)
	before := f.eng.Snapshot()

	c2, ok := f.eng.PromoteDuplicate(ctx, s2)
	if !ok {
		t.Fatal("PromoteDuplicate failed")
	}
	if c2 == s2 {
		t.Fatal("duplicate must get a new uid")
	}

	after := f.eng.Snapshot()
	if len(after.Staging) != len(before.Staging) {
		t.Fatalf("plate size changed: %d -> %d", len(before.Staging), len(after.Staging))
	}
	if after.StagingIndex(s2) < 0 {
		t.Fatal("original plate entry should still exist")
	}
	if len(after.Cooking) != len(before.Cooking)+1 {
		t.Fatalf("pot size = %d, want %d", len(after.Cooking), len(before.Cooking)+1)
	}

	var started *domain.Event
	for i := range f.notif.events {
		if f.notif.events[i].Type == domain.EventItemStarted {
			started = &f.notif.events[i]
		}
	}
	if started == nil || !started.Duplicate {
		t.Fatalf("expected a duplicate start event, got %+v", f.notif.events)
	}
}

func TestMoveBackUndercooked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uid, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.PromoteStart(ctx, uid)
	f.clk.Advance(5 * time.Second)

	if !f.eng.MoveBack(ctx, uid) {
		t.Fatal("MoveBack failed")
	}
	k := f.eng.Snapshot()
	if len(k.Cooking) != 0 {
		t.Fatalf("pot should be empty, got %+v", k.Cooking)
	}
	if len(k.Staging) != 1 || k.Staging[0].UID != uid || k.Staging[0].IngredientID != beef.ID {
		t.Fatalf("plate = %+v, want same uid and ingredient", k.Staging)
	}
	if got := f.cat.usage(beef.ID); got != 0 {
		t.Fatalf("usage = %d, want 0", got)
	}
}

func TestDismissUndercookedReturnsToPlate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uid, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.PromoteStart(ctx, uid)
	f.eng.Dismiss(ctx, uid)

	k := f.eng.Snapshot()
	if k.StagingIndex(uid) < 0 || len(k.Cooking) != 0 {
		t.Fatalf("expected entry back on the plate, got %+v", k)
	}
	if got := f.cat.usage(beef.ID); got != 0 {
		t.Fatalf("usage = %d, want 0", got)
	}
}

func TestMoveBackIgnoresDoneEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uid, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.PromoteStart(ctx, uid)
	f.eng.MarkDone(ctx, uid)

	if f.eng.MoveBack(ctx, uid) {
		t.Fatal("MoveBack on a finished entry should be a no-op")
	}
	if done, ok := f.eng.IsDone(uid); !ok || !done {
		t.Fatalf("entry should stay done in the pot, got done=%v ok=%v", done, ok)
	}
}

func TestUIDsUniqueAcrossStores(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var plate []string
	for i := 0; i < 5; i++ {
		uid, _ := f.eng.AddToStaging(ctx, beef.ID)
		plate = append(plate, uid)
	}
	for _, uid := range plate {
		f.eng.PromoteDuplicate(ctx, uid)
		f.eng.PromoteDuplicate(ctx, uid)
	}
	f.eng.PromoteStart(ctx, plate[0])
	f.eng.MoveBack(ctx, plate[0])

	k := f.eng.Snapshot()
	seen := make(map[string]bool)
	for _, s := range k.Staging {
		if seen[s.UID] {
			t.Fatalf("duplicate uid %s", s.UID)
		}
		seen[s.UID] = true
	}
	for _, c := range k.Cooking {
		if seen[c.UID] {
			t.Fatalf("duplicate uid %s", c.UID)
		}
		seen[c.UID] = true
	}
	if len(seen) != 15 {
		t.Fatalf("expected 15 entries, got %d", len(seen))
	}
}

func TestUIDCollisionIsRedrawn(t *testing.T) {
	cat := newMockCatalog(beef)
	ids := []string{"x", "x", "y"}
	i := 0
	eng := New(cat, logger.New(logger.LevelOff, nil), WithUIDSource(func() string {
		id := ids[i]
		i++
		return id
	}))
	ctx := context.Background()

	a, _ := eng.AddToStaging(ctx, beef.ID)
	b, _ := eng.AddToStaging(ctx, beef.ID)
	if a != "x" || b != "y" {
		t.Fatalf("uids = %s,%s want x,y", a, b)
	}
}

func TestStaleUIDsAreNoOps(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, ok := f.eng.AddToStaging(ctx, "nope"); ok {
		t.Fatal("unknown ingredient should be rejected")
	}
	uid, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.PromoteStart(ctx, uid)

	if f.eng.PromoteStart(ctx, uid) {
		t.Fatal("second start on a consumed plate entry should be a no-op")
	}
	if f.eng.RemoveStaging(ctx, uid) {
		t.Fatal("cancel on a pot uid should be a no-op")
	}
	if f.eng.MarkDone(ctx, "ghost") || f.eng.Dismiss(ctx, "ghost") {
		t.Fatal("unknown pot uid should be a no-op")
	}
	if got := f.notif.count(domain.EventItemCancelled); got != 0 {
		t.Fatalf("cancelled events = %d, want 0", got)
	}
}

func TestDurationFixedAtStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uid, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.PromoteStart(ctx, uid)
	f.cat.setSeconds(beef.ID, 999)

	c, _ := f.eng.Cooking(uid)
	if c.Duration != 15*time.Second {
		t.Fatalf("duration changed to %v", c.Duration)
	}
}

func TestStagingPersistedOnPlateChanges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.eng.AddToStaging(ctx, beef.ID)
	b, _ := f.eng.AddToStaging(ctx, shrimpPaste.ID)
	f.eng.PromoteDuplicate(ctx, a) // plate untouched, no save
	f.eng.RemoveStaging(ctx, b)

	if f.repo.saved != 3 {
		t.Fatalf("saves = %d, want 3", f.repo.saved)
	}
	if len(f.repo.staging) != 1 || f.repo.staging[0].UID != a {
		t.Fatalf("persisted plate = %+v", f.repo.staging)
	}
}

func TestLoadRestoresPlateWithEmptyPot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.eng.AddToStaging(ctx, beef.ID)
	b, _ := f.eng.AddToStaging(ctx, shrimpPaste.ID)
	c, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.PromoteStart(ctx, c)
	before := f.eng.Snapshot()

	reloaded := New(f.cat, logger.New(logger.LevelOff, nil), WithRepository(f.repo))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	after := reloaded.Snapshot()

	if len(after.Cooking) != 0 {
		t.Fatalf("pot should be empty after reload, got %+v", after.Cooking)
	}
	if len(after.Staging) != len(before.Staging) {
		t.Fatalf("plate size %d, want %d", len(after.Staging), len(before.Staging))
	}
	for i, want := range []string{a, b} {
		if after.Staging[i] != before.Staging[i] || after.Staging[i].UID != want {
			t.Fatalf("entry %d = %+v, want %+v", i, after.Staging[i], before.Staging[i])
		}
	}
}

func TestLoadWithNothingSaved(t *testing.T) {
	eng := New(newMockCatalog(), logger.New(logger.LevelOff, nil), WithRepository(&mockRepo{}))
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := eng.Snapshot(); len(k.Staging) != 0 {
		t.Fatalf("expected empty plate, got %+v", k.Staging)
	}
}

func TestOrphansHiddenFromView(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.AddToStaging(ctx, shrimpPaste.ID)
	f.eng.PromoteDuplicate(ctx, a)

	var changes int
	f.eng.OnChange(func() { changes++ })
	f.cat.delete(beef.ID)
	f.eng.OnIngredientDeleted(beef.ID)

	v := f.eng.View()
	if len(v.Plate) != 1 || v.Plate[0].Ingredient.ID != shrimpPaste.ID {
		t.Fatalf("plate view = %+v", v.Plate)
	}
	if len(v.Pot) != 0 {
		t.Fatalf("pot view = %+v", v.Pot)
	}
	if v.Orphans != 2 {
		t.Fatalf("orphans = %d, want 2", v.Orphans)
	}
	if changes != 1 {
		t.Fatalf("change callbacks = %d, want 1", changes)
	}

	// Stored entries survive and can still be cleaned up.
	if len(f.eng.Snapshot().Cooking) != 1 {
		t.Fatal("orphaned pot entry should stay in the store")
	}
	if !f.eng.RemoveStaging(ctx, a) {
		t.Fatal("orphaned plate entry should be removable")
	}
}

func TestOrphanedPlateEntryCannotStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uid, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.cat.delete(beef.ID)
	if f.eng.PromoteStart(ctx, uid) {
		t.Fatal("starting an orphaned entry should be a no-op")
	}
}

func TestEatingDeletedIngredientDoesNotPanic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	uid, _ := f.eng.AddToStaging(ctx, beef.ID)
	f.eng.PromoteStart(ctx, uid)
	f.eng.MarkDone(ctx, uid)
	f.cat.delete(beef.ID)

	if !f.eng.Dismiss(ctx, uid) {
		t.Fatal("Dismiss should still remove the entry")
	}
	if len(f.eng.Snapshot().Cooking) != 0 {
		t.Fatal("pot should be empty")
	}
}

// hookNotifier records an event only after its hook returns, like an
// audio sink that is still playing when the next transition lands.
type hookNotifier struct {
	mu     sync.Mutex
	events []domain.EventType
	hook   func(domain.Event)
}

func (h *hookNotifier) Notify(_ context.Context, ev domain.Event) error {
	if h.hook != nil {
		h.hook(ev)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev.Type)
	return nil
}

func TestEventsKeepTransitionOrder(t *testing.T) {
	ctx := context.Background()
	notif := &hookNotifier{}
	eng := New(newMockCatalog(beef), logger.New(logger.LevelOff, nil),
		WithClock(clock.Fake(start)),
		WithNotifier(notif),
	)

	uid, _ := eng.AddToStaging(ctx, beef.ID)
	eng.PromoteStart(ctx, uid)

	// The cook eats the item from another goroutine while the completion
	// event is still being delivered.
	notif.hook = func(ev domain.Event) {
		if ev.Type != domain.EventItemCompleted {
			return
		}
		eaten := make(chan bool)
		go func() { eaten <- eng.Dismiss(ctx, uid) }()
		select {
		case ok := <-eaten:
			if !ok {
				t.Error("Dismiss of a finished entry failed")
			}
		case <-time.After(2 * time.Second):
			t.Error("Dismiss blocked behind event delivery")
		}
	}
	eng.MarkDone(ctx, uid)

	notif.mu.Lock()
	defer notif.mu.Unlock()
	var tail []domain.EventType
	for _, ev := range notif.events {
		if ev == domain.EventItemCompleted || ev == domain.EventItemDismissed {
			tail = append(tail, ev)
		}
	}
	if len(tail) != 2 || tail[0] != domain.EventItemCompleted || tail[1] != domain.EventItemDismissed {
		t.Fatalf("got %v, want completed then dismissed", tail)
	}
}
