package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/engine"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// --- Mocks ---

type mockCatalog struct {
	items map[string]domain.Ingredient
}

func (m *mockCatalog) Lookup(id string) (domain.Ingredient, bool) {
	it, ok := m.items[id]
	return it, ok
}

func (m *mockCatalog) IncrementUsage(id string) bool {
	it, ok := m.items[id]
	if ok {
		it.UsageCount++
		m.items[id] = it
	}
	return ok
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

var t0 = time.Date(2026, 1, 1, 19, 0, 0, 0, time.UTC)

type fixture struct {
	eng   *engine.Engine
	cat   *mockCatalog
	notif *mockNotifier
	clk   *clock.FakeClock
	log   *logger.Logger
}

func newFixture() *fixture {
	f := &fixture{
		cat: &mockCatalog{items: map[string]domain.Ingredient{
			"shrimp-paste": {ID: "shrimp-paste", Name: "Shrimp Paste", Seconds: 180},
			"beef":         {ID: "beef", Name: "Beef Slices", Seconds: 15},
			"tripe":        {ID: "tripe", Name: "Tripe", Seconds: 10},
		}},
		notif: &mockNotifier{},
		clk:   clock.Fake(t0),
		log:   logger.New(logger.LevelOff, nil),
	}
	f.eng = engine.New(f.cat, f.log, engine.WithClock(f.clk), engine.WithNotifier(f.notif))
	return f
}

func (f *fixture) cook(t *testing.T, ingredientID string) string {
	t.Helper()
	ctx := context.Background()
	uid, ok := f.eng.AddToStaging(ctx, ingredientID)
	if !ok || !f.eng.PromoteStart(ctx, uid) {
		t.Fatalf("could not start %s", ingredientID)
	}
	return uid
}

// --- Tests ---

func TestProgressBoundaries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sup := New(f.eng, f.notif, f.log, WithClock(f.clk))

	uid := f.cook(t, "beef")

	sup.Tick(ctx)
	if p, _ := sup.Progress(uid); p != 0 {
		t.Fatalf("progress at start = %v, want 0", p)
	}

	f.clk.Advance(7500 * time.Millisecond)
	sup.Tick(ctx)
	if p, _ := sup.Progress(uid); p != 0.5 {
		t.Fatalf("progress at half = %v, want 0.5", p)
	}
	if done, _ := f.eng.IsDone(uid); done {
		t.Fatal("done too early")
	}

	f.clk.Advance(7500 * time.Millisecond)
	sup.Tick(ctx)
	if p, _ := sup.Progress(uid); p != 1 {
		t.Fatalf("progress at end = %v, want 1", p)
	}
	if done, _ := f.eng.IsDone(uid); !done {
		t.Fatal("entry should be done at elapsed == duration")
	}
	if got := f.notif.count(domain.EventItemCompleted); got != 1 {
		t.Fatalf("completed events = %d, want 1", got)
	}

	f.clk.Advance(time.Minute)
	sup.Tick(ctx)
	sup.Tick(ctx)
	if p, _ := sup.Progress(uid); p != 1 {
		t.Fatalf("progress past end = %v, want 1", p)
	}
	if got := f.notif.count(domain.EventItemCompleted); got != 1 {
		t.Fatalf("completed events after overrun = %d, want 1", got)
	}
}

func TestShrimpPasteCompletesOnSchedule(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := New(f.eng, f.notif, f.log, WithClock(f.clk), WithTickInterval(50*time.Millisecond))
	uid := f.cook(t, "shrimp-paste")
	sup.Start(ctx)
	defer sup.Stop()

	// 3599 ticks of 50ms reach 179.95s.
	for i := 0; i < 3599; i++ {
		f.clk.Advance(50 * time.Millisecond)
	}
	if done, _ := f.eng.IsDone(uid); done {
		t.Fatal("done before 180s")
	}

	f.clk.Advance(50 * time.Millisecond)
	if done, _ := f.eng.IsDone(uid); !done {
		t.Fatal("not done at 180s")
	}

	for i := 0; i < 100; i++ {
		f.clk.Advance(50 * time.Millisecond)
	}
	if got := f.notif.count(domain.EventItemCompleted); got != 1 {
		t.Fatalf("completed events = %d, want 1", got)
	}

	if !f.eng.Dismiss(ctx, uid) {
		t.Fatal("Dismiss failed")
	}
	if len(f.eng.Snapshot().Cooking) != 0 {
		t.Fatal("pot should be empty")
	}
	if got := f.cat.items["shrimp-paste"].UsageCount; got != 1 {
		t.Fatalf("usage = %d, want 1", got)
	}
}

func TestIndependentDeadlines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sup := New(f.eng, f.notif, f.log, WithClock(f.clk))

	tripe := f.cook(t, "tripe")
	f.clk.Advance(2 * time.Second)
	beef := f.cook(t, "beef")

	f.clk.Advance(8 * time.Second)
	sup.Tick(ctx)
	if done, _ := f.eng.IsDone(tripe); !done {
		t.Fatal("tripe should be done at 10s")
	}
	if done, _ := f.eng.IsDone(beef); done {
		t.Fatal("beef should still be cooking")
	}

	f.clk.Advance(9 * time.Second)
	sup.Tick(ctx)
	if done, _ := f.eng.IsDone(beef); !done {
		t.Fatal("beef should be done at 15s after its own start")
	}
}

func TestRemovedEntryIsForgotten(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sup := New(f.eng, f.notif, f.log, WithClock(f.clk))

	uid := f.cook(t, "beef")
	sup.Tick(ctx)
	if _, ok := sup.Progress(uid); !ok {
		t.Fatal("entry should be tracked")
	}

	f.eng.MoveBack(ctx, uid)
	sup.Tick(ctx)
	if _, ok := sup.Progress(uid); ok {
		t.Fatal("removed entry should no longer be tracked")
	}
}

func TestRestartAfterFishOutCompletesAgain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sup := New(f.eng, f.notif, f.log, WithClock(f.clk))

	uid := f.cook(t, "tripe")
	f.clk.Advance(10 * time.Second)
	// Fished out before the pass that would have completed it.
	f.eng.MoveBack(ctx, uid)
	f.eng.PromoteStart(ctx, uid)
	sup.Tick(ctx)
	if done, _ := f.eng.IsDone(uid); done {
		t.Fatal("restarted entry must start from zero")
	}

	f.clk.Advance(10 * time.Second)
	sup.Tick(ctx)
	if done, _ := f.eng.IsDone(uid); !done {
		t.Fatal("restarted entry should complete")
	}
	if got := f.notif.count(domain.EventItemCompleted); got != 1 {
		t.Fatalf("completed events = %d, want 1", got)
	}
}

func TestAlmostDoneWarnsOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sup := New(f.eng, f.notif, f.log, WithClock(f.clk), WithAlmostDoneThreshold(10*time.Second))

	f.cook(t, "shrimp-paste")
	f.cook(t, "beef") // too short to warn about

	f.clk.Advance(169 * time.Second)
	sup.Tick(ctx)
	if got := f.notif.count(domain.EventItemAlmostDone); got != 0 {
		t.Fatalf("warned too early: %d", got)
	}

	f.clk.Advance(time.Second)
	sup.Tick(ctx)
	f.clk.Advance(time.Second)
	sup.Tick(ctx)
	if got := f.notif.count(domain.EventItemAlmostDone); got != 1 {
		t.Fatalf("almost-done events = %d, want 1", got)
	}
}

func TestStopHaltsRecomputation(t *testing.T) {
	f := newFixture()
	sup := New(f.eng, f.notif, f.log, WithClock(f.clk), WithTickInterval(time.Second))

	uid := f.cook(t, "tripe")
	sup.Start(context.Background())
	if !sup.Running() {
		t.Fatal("expected running")
	}
	sup.Stop()
	if sup.Running() {
		t.Fatal("expected stopped")
	}

	for i := 0; i < 20; i++ {
		f.clk.Advance(time.Second)
	}
	if done, _ := f.eng.IsDone(uid); done {
		t.Fatal("no pass should run after Stop")
	}
	if f.clk.Pending() != 0 {
		t.Fatalf("pending callbacks after stop = %d", f.clk.Pending())
	}
}
