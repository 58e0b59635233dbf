package engine

import (
	"time"

	"github.com/hammamikhairi/hotpot/internal/domain"
)

// Result is the outcome of one transition.
type Result struct {
	// Kitchen is the next state. Equal to the input state when nothing
	// was applied.
	Kitchen domain.Kitchen
	// Applied is false when the intent referenced a missing uid or
	// ingredient. Such intents are silent no-ops.
	Applied bool
	// UID is the entry created or touched by the transition.
	UID string
	// StagingChanged is set when the plate must be persisted.
	StagingChanged bool
	// Eaten is the ingredient whose usage count goes up, if any.
	Eaten string
	Events []domain.Event
}

// Transition computes the next kitchen state for an intent. It does not
// modify k. newUID must return a fresh identifier on every call.
func Transition(k domain.Kitchen, in domain.Intent, now time.Time, cat domain.Catalog, newUID func() string) Result {
	switch in := in.(type) {
	case domain.AddToStaging:
		return addToStaging(k, in, now, cat, newUID)
	case domain.Start:
		return promote(k, in.UID, false, now, cat, newUID)
	case domain.DuplicateStart:
		return promote(k, in.UID, true, now, cat, newUID)
	case domain.Cancel:
		return removeStaging(k, in, now)
	case domain.MarkDone:
		return markDone(k, in, now)
	case domain.Dismiss:
		return dismiss(k, in.UID, now, true)
	case domain.MoveBack:
		return dismiss(k, in.UID, now, false)
	default:
		return Result{Kitchen: k}
	}
}

func addToStaging(k domain.Kitchen, in domain.AddToStaging, now time.Time, cat domain.Catalog, newUID func() string) Result {
	if _, ok := cat.Lookup(in.IngredientID); !ok {
		return Result{Kitchen: k}
	}
	uid := uniqueUID(k, newUID)
	next := k.Clone()
	next.Staging = append(next.Staging, domain.StagingEntry{UID: uid, IngredientID: in.IngredientID})
	return Result{
		Kitchen:        next,
		Applied:        true,
		UID:            uid,
		StagingChanged: true,
		Events: []domain.Event{{
			Type:         domain.EventItemAdded,
			UID:          uid,
			IngredientID: in.IngredientID,
			At:           now,
		}},
	}
}

// promote moves (or copies, when duplicate is set) a plate entry into
// the pot. The duration is taken from the catalog at this instant.
func promote(k domain.Kitchen, uid string, duplicate bool, now time.Time, cat domain.Catalog, newUID func() string) Result {
	idx := k.StagingIndex(uid)
	if idx < 0 {
		return Result{Kitchen: k}
	}
	staged := k.Staging[idx]
	ing, ok := cat.Lookup(staged.IngredientID)
	if !ok {
		// Orphaned plate entry: nothing to time it with.
		return Result{Kitchen: k}
	}

	next := k.Clone()
	cookUID := uid
	if duplicate {
		cookUID = uniqueUID(k, newUID)
	} else {
		next.Staging = append(next.Staging[:idx], next.Staging[idx+1:]...)
	}
	next.Cooking = append(next.Cooking, domain.CookingEntry{
		UID:          cookUID,
		IngredientID: staged.IngredientID,
		StartedAt:    now,
		Duration:     ing.Duration(),
	})

	return Result{
		Kitchen:        next,
		Applied:        true,
		UID:            cookUID,
		StagingChanged: !duplicate,
		Events: []domain.Event{{
			Type:         domain.EventItemStarted,
			UID:          cookUID,
			IngredientID: staged.IngredientID,
			At:           now,
			Duplicate:    duplicate,
		}},
	}
}

func removeStaging(k domain.Kitchen, in domain.Cancel, now time.Time) Result {
	idx := k.StagingIndex(in.UID)
	if idx < 0 {
		return Result{Kitchen: k}
	}
	removed := k.Staging[idx]
	next := k.Clone()
	next.Staging = append(next.Staging[:idx], next.Staging[idx+1:]...)
	return Result{
		Kitchen:        next,
		Applied:        true,
		UID:            in.UID,
		StagingChanged: true,
		Events: []domain.Event{{
			Type:         domain.EventItemCancelled,
			UID:          in.UID,
			IngredientID: removed.IngredientID,
			At:           now,
		}},
	}
}

func markDone(k domain.Kitchen, in domain.MarkDone, now time.Time) Result {
	idx := k.CookingIndex(in.UID)
	if idx < 0 || k.Cooking[idx].Done {
		return Result{Kitchen: k}
	}
	next := k.Clone()
	next.Cooking[idx].Done = true
	return Result{
		Kitchen: next,
		Applied: true,
		UID:     in.UID,
		Events: []domain.Event{{
			Type:         domain.EventItemCompleted,
			UID:          in.UID,
			IngredientID: next.Cooking[idx].IngredientID,
			At:           now,
		}},
	}
}

// dismiss takes an entry out of the pot. A finished entry is eaten. An
// unfinished one goes back to the plate under the same uid. MoveBack
// (allowEat false) leaves finished entries alone, since the done flag
// is settled before any later gesture.
func dismiss(k domain.Kitchen, uid string, now time.Time, allowEat bool) Result {
	idx := k.CookingIndex(uid)
	if idx < 0 {
		return Result{Kitchen: k}
	}
	entry := k.Cooking[idx]
	if entry.Done && !allowEat {
		return Result{Kitchen: k}
	}

	next := k.Clone()
	next.Cooking = append(next.Cooking[:idx], next.Cooking[idx+1:]...)
	res := Result{
		Kitchen: next,
		Applied: true,
		UID:     uid,
		Events: []domain.Event{{
			Type:         domain.EventItemDismissed,
			UID:          uid,
			IngredientID: entry.IngredientID,
			At:           now,
			WasDone:      entry.Done,
		}},
	}
	if entry.Done {
		res.Eaten = entry.IngredientID
		return res
	}
	res.Kitchen.Staging = append(res.Kitchen.Staging, domain.StagingEntry{UID: uid, IngredientID: entry.IngredientID})
	res.StagingChanged = true
	return res
}

// uniqueUID draws from newUID until the value is unused in k.
func uniqueUID(k domain.Kitchen, newUID func() string) string {
	for {
		uid := newUID()
		if uid != "" && !k.HasUID(uid) {
			return uid
		}
	}
}
