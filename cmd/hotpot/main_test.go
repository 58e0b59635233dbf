package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/hotpot/internal/catalog"
	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/config"
	"github.com/hammamikhairi/hotpot/internal/conversation"
	"github.com/hammamikhairi/hotpot/internal/display"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/engine"
	"github.com/hammamikhairi/hotpot/internal/gesture"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// --- Helpers ---

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) printf(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, a...))
}

func (r *lineRecorder) contains(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func testConfig() config.Config {
	c := config.Default()
	c.Store = "memory"
	c.Sound = false
	c.Speech = false
	return c
}

func newTestKitchen(t *testing.T) (*kitchen, *lineRecorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &lineRecorder{}
	k, err := openKitchen(ctx, testConfig(), logger.New(logger.LevelOff, nil), rec.printf)
	if err != nil {
		t.Fatalf("openKitchen: %v", err)
	}
	t.Cleanup(func() { _ = k.Close() })
	return k, rec
}

// newTestApp builds the interactive app without starting the terminal.
// Output falls back to stdout while the UI is not running.
func newTestApp(t *testing.T, fake *clock.FakeClock) *cliApp {
	t.Helper()
	k, _ := newTestKitchen(t)
	log := logger.New(logger.LevelOff, nil)

	a := &cliApp{
		ctx:     context.Background(),
		kitchen: k,
		parser:  conversation.NewKeywordParser(log),
		fetcher: catalog.NewFetcher(),
		log:     log,
		actions: make(chan func(), 8),
	}
	a.ui = display.NewUI(a)
	a.gesture = gesture.New(
		func(in domain.Intent) { k.engine.Apply(context.Background(), in) },
		k.engine.IsDone,
		log,
		gesture.WithClock(fake),
	)
	a.unlock = gesture.NewUnlockCounter(fake, 3, time.Second)
	return a
}

func plateView(names ...string) engine.View {
	var v engine.View
	for i, n := range names {
		v.Plate = append(v.Plate, engine.PlateItem{
			Entry:      domain.StagingEntry{UID: fmt.Sprintf("u%d", i+1), IngredientID: strings.ToLower(n)},
			Ingredient: domain.Ingredient{ID: strings.ToLower(n), Name: n},
		})
	}
	return v
}

// --- Tests ---

func TestFindPlate(t *testing.T) {
	v := plateView("Beef Slices", "Beef Balls", "Tofu Skin")

	tests := []struct {
		ref     string
		wantUID string
		wantOK  bool
	}{
		{"", "u1", true},
		{"2", "u2", true},
		{"#3", "u3", true},
		{"three", "u3", true},
		{"4", "", false},
		{"tofu", "u3", true},
		{"beef balls", "u2", true},
		{"BEEF SLICES", "u1", true},
		{"squid", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			it, ok := findPlate(v, tt.ref)
			if ok != tt.wantOK {
				t.Fatalf("findPlate(%q) ok = %v, want %v", tt.ref, ok, tt.wantOK)
			}
			if ok && it.Entry.UID != tt.wantUID {
				t.Fatalf("findPlate(%q) = %s, want %s", tt.ref, it.Entry.UID, tt.wantUID)
			}
		})
	}
}

func TestFindPotEmpty(t *testing.T) {
	if _, ok := findPot(engine.View{}, ""); ok {
		t.Fatal("empty pot should resolve nothing")
	}
}

func TestSplitNames(t *testing.T) {
	got := splitNames("beef, tofu skin and noodles,")
	want := []string{"beef", "tofu skin", "noodles"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseNewIngredient(t *testing.T) {
	tests := []struct {
		args    string
		name    string
		seconds int
		cat     domain.Category
		wantErr bool
	}{
		{"squid 30", "squid", 30, domain.CategoryOther, false},
		{"squid rings 45s seafood", "squid rings", 45, domain.CategorySeafood, false},
		{"pork belly 1m30s meat", "pork belly", 90, domain.CategoryMeat, false},
		{"squid", "", 0, "", true},
		{"squid seafood", "", 0, "", true},
		{"squid 0", "", 0, "", true},
		{"squid 30 dessert", "", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			it, err := parseNewIngredient(strings.Fields(tt.args))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", it)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if it.Name != tt.name || it.Seconds != tt.seconds || it.Category != tt.cat {
				t.Fatalf("got %q %d %s, want %q %d %s", it.Name, it.Seconds, it.Category, tt.name, tt.seconds, tt.cat)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[int]string{0: "0s", 45: "45s", 60: "1m", 90: "1m30s", 300: "5m"}
	for in, want := range tests {
		if got := formatSeconds(in); got != want {
			t.Fatalf("formatSeconds(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestKitchenPrintsEvents(t *testing.T) {
	k, rec := newTestKitchen(t)
	ctx := context.Background()

	if _, ok := k.engine.AddToStaging(ctx, "beef-slices"); !ok {
		t.Fatal("AddToStaging failed")
	}
	if !rec.contains("Beef Slices on the plate") {
		t.Fatalf("expected plate line, got %v", rec.lines)
	}

	k.imported(ctx, 7)
	if !rec.contains("imported 7 ingredients") {
		t.Fatalf("expected import line, got %v", rec.lines)
	}
}

func TestKitchenDeleteHidesPlateEntries(t *testing.T) {
	k, _ := newTestKitchen(t)
	ctx := context.Background()

	k.engine.AddToStaging(ctx, "tripe")
	k.engine.AddToStaging(ctx, "spinach")
	if err := k.catalog.Delete(ctx, "tripe"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	v := k.engine.View()
	if len(v.Plate) != 1 || v.Plate[0].Ingredient.ID != "spinach" {
		t.Fatalf("expected only spinach on the plate, got %+v", v.Plate)
	}
	if v.Orphans != 1 {
		t.Fatalf("expected the tripe entry hidden as an orphan, got %d", v.Orphans)
	}
}

func TestTypedTaps(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	a := newTestApp(t, fake)
	ctx := context.Background()

	a.handleCommand(ctx, &domain.Command{Kind: domain.CommandAdd, Payload: "beef slices"})

	// "again 1" lands two taps inside the window: a copy goes in, the
	// plate keeps its entry.
	a.handleCommand(ctx, &domain.Command{Kind: domain.CommandTap, Payload: "1", Double: true})
	v := a.View()
	if len(v.Plate) != 1 || len(v.Pot) != 1 {
		t.Fatalf("after double tap: plate=%d pot=%d, want 1/1", len(v.Plate), len(v.Pot))
	}

	// A single tap only starts once the window closes.
	a.handleCommand(ctx, &domain.Command{Kind: domain.CommandTap, Payload: "1"})
	if v := a.View(); len(v.Plate) != 1 {
		t.Fatalf("single tap applied before the window closed")
	}
	fake.Advance(config.Default().StartWindow)
	v = a.View()
	if len(v.Plate) != 0 || len(v.Pot) != 2 {
		t.Fatalf("after single tap: plate=%d pot=%d, want 0/2", len(v.Plate), len(v.Pot))
	}

	// Fishing an unfinished item out puts it back on the plate.
	a.handleCommand(ctx, &domain.Command{Kind: domain.CommandFish, Payload: "1"})
	v = a.View()
	if len(v.Plate) != 1 || len(v.Pot) != 1 {
		t.Fatalf("after fish: plate=%d pot=%d, want 1/1", len(v.Plate), len(v.Pot))
	}
}

func TestAdminPanel(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	a := newTestApp(t, fake)
	ctx := context.Background()

	if a.handleAdmin(ctx, "new squid 30 seafood") {
		t.Fatal("admin commands must be ignored while the panel is closed")
	}

	for i := 0; i < 3; i++ {
		a.titleTap()
	}
	for len(a.actions) > 0 {
		(<-a.actions)()
	}
	if !a.adminOpen {
		t.Fatal("three title taps should open the panel")
	}

	if !a.handleAdmin(ctx, "new squid 30 seafood") {
		t.Fatal("panel command not consumed")
	}
	if _, err := a.kitchen.catalog.Find("squid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ingredient added without login: %v", err)
	}

	a.handleAdmin(ctx, "setup abcd")
	a.handleAdmin(ctx, "new squid 30 seafood")
	it, err := a.kitchen.catalog.Find("squid")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if it.Seconds != 30 || it.Category != domain.CategorySeafood {
		t.Fatalf("got %+v", it)
	}

	a.handleAdmin(ctx, "logout")
	if a.adminOpen || a.kitchen.gate.Authenticated() {
		t.Fatal("logout should close and lock the panel")
	}
}
