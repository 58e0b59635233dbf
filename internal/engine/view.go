package engine

import (
	"math"
	"sort"
	"time"

	"github.com/hammamikhairi/hotpot/internal/domain"
)

// GridThreshold is the pot size at which the display switches to a grid.
const GridThreshold = 3

// PlateItem is a renderable plate entry.
type PlateItem struct {
	Entry      domain.StagingEntry
	Ingredient domain.Ingredient
}

// PotItem is a renderable pot entry.
type PotItem struct {
	Entry      domain.CookingEntry
	Ingredient domain.Ingredient
	Progress   float64
	Remaining  time.Duration
}

// RemainingSeconds rounds the time left up to whole seconds.
func (p PotItem) RemainingSeconds() int {
	return RemainingSeconds(p.Remaining)
}

// View is what the presentation layer draws.
type View struct {
	At    time.Time
	Plate []PlateItem
	Pot   []PotItem
	// Orphans counts entries hidden because their ingredient is gone.
	Orphans int
}

// Grid reports whether the pot should be drawn as a grid.
func (v View) Grid() bool {
	return len(v.Pot) >= GridThreshold
}

// BuildView resolves ingredients, drops orphans and orders the pot.
func BuildView(k domain.Kitchen, cat domain.Catalog, now time.Time) View {
	v := View{At: now}
	for _, s := range k.Staging {
		ing, ok := cat.Lookup(s.IngredientID)
		if !ok {
			v.Orphans++
			continue
		}
		v.Plate = append(v.Plate, PlateItem{Entry: s, Ingredient: ing})
	}

	pot := make([]domain.CookingEntry, len(k.Cooking))
	copy(pot, k.Cooking)
	SortPot(pot)
	for _, c := range pot {
		ing, ok := cat.Lookup(c.IngredientID)
		if !ok {
			v.Orphans++
			continue
		}
		v.Pot = append(v.Pot, PotItem{
			Entry:      c,
			Ingredient: ing,
			Progress:   c.Progress(now),
			Remaining:  c.Remaining(now),
		})
	}
	return v
}

// SortPot orders pot entries in place: finished entries first, then by
// the instant each one finishes, then by uid.
func SortPot(entries []domain.CookingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Done != b.Done {
			return a.Done
		}
		fa, fb := a.FinishAt(), b.FinishAt()
		if !fa.Equal(fb) {
			return fa.Before(fb)
		}
		return a.UID < b.UID
	})
}

// RemainingSeconds rounds d up to whole seconds, never below zero.
func RemainingSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
