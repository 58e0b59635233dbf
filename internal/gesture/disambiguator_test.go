package gesture

import (
	"testing"
	"time"

	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

type recorder struct {
	intents []domain.Intent
}

func (r *recorder) dispatch(in domain.Intent) {
	r.intents = append(r.intents, in)
}

func (r *recorder) kinds() []domain.IntentKind {
	out := make([]domain.IntentKind, len(r.intents))
	for i, in := range r.intents {
		out[i] = in.Kind()
	}
	return out
}

func newTestDisambiguator(done map[string]bool) (*Disambiguator, *recorder, *clock.FakeClock) {
	rec := &recorder{}
	fc := clock.Fake(t0)
	isDone := func(uid string) (bool, bool) {
		d, ok := done[uid]
		return d, ok
	}
	d := New(rec.dispatch, isDone, logger.New(logger.LevelOff, nil), WithClock(fc))
	return d, rec, fc
}

func TestSingleTapStartsAfterWindow(t *testing.T) {
	d, rec, fc := newTestDisambiguator(nil)

	d.TapPlate("a")
	fc.Advance(179 * time.Millisecond)
	if len(rec.intents) != 0 {
		t.Fatalf("dispatched before the window closed: %v", rec.kinds())
	}
	if !d.PendingPlate("a") {
		t.Fatal("expected a pending recognizer")
	}

	fc.Advance(time.Millisecond)
	if len(rec.intents) != 1 {
		t.Fatalf("expected 1 intent, got %v", rec.kinds())
	}
	if got, ok := rec.intents[0].(domain.Start); !ok || got.UID != "a" {
		t.Fatalf("expected Start{a}, got %#v", rec.intents[0])
	}
	if d.PendingPlate("a") {
		t.Fatal("recognizer should be idle again")
	}
}

func TestDoubleTapDispatchesOnlyDuplicate(t *testing.T) {
	d, rec, fc := newTestDisambiguator(nil)

	d.TapPlate("a")
	fc.Advance(100 * time.Millisecond)
	d.TapPlate("a")
	fc.Advance(time.Second)

	if len(rec.intents) != 1 {
		t.Fatalf("expected exactly one intent, got %v", rec.kinds())
	}
	if _, ok := rec.intents[0].(domain.DuplicateStart); !ok {
		t.Fatalf("expected DuplicateStart, got %#v", rec.intents[0])
	}
}

func TestSlowSecondTapIsTwoSingles(t *testing.T) {
	d, rec, fc := newTestDisambiguator(nil)

	d.TapPlate("a")
	fc.Advance(200 * time.Millisecond)
	d.TapPlate("a")
	fc.Advance(200 * time.Millisecond)

	want := []domain.IntentKind{domain.IntentStart, domain.IntentStart}
	got := rec.kinds()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("intents = %v, want %v", got, want)
	}
}

func TestRemoveCancelsPendingStart(t *testing.T) {
	d, rec, fc := newTestDisambiguator(nil)

	d.TapPlate("a")
	fc.Advance(50 * time.Millisecond)
	d.RemovePlate("a")
	fc.Advance(time.Second)

	if len(rec.intents) != 1 {
		t.Fatalf("expected only the cancel, got %v", rec.kinds())
	}
	if got, ok := rec.intents[0].(domain.Cancel); !ok || got.UID != "a" {
		t.Fatalf("expected Cancel{a}, got %#v", rec.intents[0])
	}
}

func TestEntriesAreIndependent(t *testing.T) {
	d, rec, fc := newTestDisambiguator(nil)

	d.TapPlate("a")
	fc.Advance(50 * time.Millisecond)
	d.TapPlate("b")
	fc.Advance(50 * time.Millisecond)
	d.TapPlate("b")
	fc.Advance(time.Second)

	got := rec.kinds()
	if len(got) != 2 {
		t.Fatalf("expected 2 intents, got %v", got)
	}
	if got[0] != domain.IntentDuplicateStart || got[1] != domain.IntentStart {
		t.Fatalf("intents = %v", got)
	}
}

func TestPotTapOnDoneEats(t *testing.T) {
	d, rec, _ := newTestDisambiguator(map[string]bool{"p": true})

	d.TapPot("p")
	if len(rec.intents) != 1 {
		t.Fatalf("expected 1 intent, got %v", rec.kinds())
	}
	if _, ok := rec.intents[0].(domain.Dismiss); !ok {
		t.Fatalf("expected Dismiss, got %#v", rec.intents[0])
	}
}

func TestPotDoubleTapFishesOut(t *testing.T) {
	d, rec, fc := newTestDisambiguator(map[string]bool{"p": false})

	d.TapPot("p")
	fc.Advance(250 * time.Millisecond)
	d.TapPot("p")

	if len(rec.intents) != 1 {
		t.Fatalf("expected 1 intent, got %v", rec.kinds())
	}
	if _, ok := rec.intents[0].(domain.MoveBack); !ok {
		t.Fatalf("expected MoveBack, got %#v", rec.intents[0])
	}
}

func TestPotSingleTapDoesNothing(t *testing.T) {
	d, rec, fc := newTestDisambiguator(map[string]bool{"p": false})

	d.TapPot("p")
	fc.Advance(time.Second)
	d.TapPot("missing")

	if len(rec.intents) != 0 {
		t.Fatalf("expected no intents, got %v", rec.kinds())
	}
}

func TestResetDropsPending(t *testing.T) {
	d, rec, fc := newTestDisambiguator(nil)

	d.TapPlate("a")
	d.Reset()
	fc.Advance(time.Second)

	if len(rec.intents) != 0 {
		t.Fatalf("expected no intents after reset, got %v", rec.kinds())
	}
}

func TestUnlockCounter(t *testing.T) {
	fc := clock.Fake(t0)
	u := NewUnlockCounter(fc, 3, time.Second)

	if u.Tap() || u.Tap() {
		t.Fatal("unlocked too early")
	}
	if u.Count() != 2 {
		t.Fatalf("count = %d, want 2", u.Count())
	}
	if !u.Tap() {
		t.Fatal("third tap should unlock")
	}
	if u.Count() != 0 {
		t.Fatalf("count after unlock = %d", u.Count())
	}

	u.Tap()
	fc.Advance(time.Second)
	if u.Count() != 0 {
		t.Fatal("count should lapse after the window")
	}
}

// The terminal UI asks for pending state while rendering, and its print
// call waits for that render to finish. dispatch must not block readers.
func TestDispatchRunsOutsideLock(t *testing.T) {
	fc := clock.Fake(t0)
	var d *Disambiguator
	var got []domain.Intent
	stuck := false

	dispatch := func(in domain.Intent) {
		got = append(got, in)
		rendered := make(chan bool)
		go func() { rendered <- d.PendingPlate("a") }()
		select {
		case <-rendered:
		case <-time.After(2 * time.Second):
			stuck = true
		}
	}
	d = New(dispatch, nil, logger.New(logger.LevelOff, nil), WithClock(fc))

	d.TapPlate("a")
	d.TapPlate("a")
	if stuck {
		t.Fatal("PendingPlate blocked while an intent was being dispatched")
	}
	if len(got) != 1 {
		t.Fatalf("expected one intent, got %d", len(got))
	}
	if _, ok := got[0].(domain.DuplicateStart); !ok {
		t.Fatalf("expected DuplicateStart, got %#v", got[0])
	}
}

func TestDispatchMayTapAgain(t *testing.T) {
	fc := clock.Fake(t0)
	var d *Disambiguator
	var got []domain.IntentKind

	dispatch := func(in domain.Intent) {
		got = append(got, in.Kind())
		if _, ok := in.(domain.DuplicateStart); ok {
			d.RemovePlate("a")
		}
	}
	d = New(dispatch, nil, logger.New(logger.LevelOff, nil), WithClock(fc))

	d.TapPlate("a")
	d.TapPlate("a")

	want := []domain.IntentKind{domain.IntentDuplicateStart, domain.IntentCancel}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}
