package domain

import "time"

// StagingEntry is one portion sitting on the plate, not yet cooking.
type StagingEntry struct {
	UID          string `json:"uid" cbor:"uid"`
	IngredientID string `json:"ingredientId" cbor:"ingredientId"`
}

// CookingEntry is one portion in the pot. Duration is copied from the
// ingredient when cooking starts and never changes afterwards.
type CookingEntry struct {
	UID          string
	IngredientID string
	StartedAt    time.Time
	Duration     time.Duration
	Done         bool
}

// FinishAt is the instant the entry reaches full progress.
func (c CookingEntry) FinishAt() time.Time {
	return c.StartedAt.Add(c.Duration)
}

// Progress returns elapsed/duration clamped to [0, 1].
func (c CookingEntry) Progress(now time.Time) float64 {
	if c.Done {
		return 1
	}
	if c.Duration <= 0 {
		return 1
	}
	elapsed := now.Sub(c.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(c.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// Remaining returns the time left until FinishAt, never negative.
func (c CookingEntry) Remaining(now time.Time) time.Duration {
	if c.Done {
		return 0
	}
	r := c.FinishAt().Sub(now)
	if r < 0 {
		return 0
	}
	return r
}

// Kitchen is the full state of the plate and the pot. The staging slice
// keeps insertion order; the cooking slice keeps start order.
type Kitchen struct {
	Staging []StagingEntry
	Cooking []CookingEntry
}

// Clone returns a deep copy so readers never see later mutations.
func (k Kitchen) Clone() Kitchen {
	out := Kitchen{
		Staging: make([]StagingEntry, len(k.Staging)),
		Cooking: make([]CookingEntry, len(k.Cooking)),
	}
	copy(out.Staging, k.Staging)
	copy(out.Cooking, k.Cooking)
	return out
}

// StagingIndex returns the index of the staging entry with uid, or -1.
func (k Kitchen) StagingIndex(uid string) int {
	for i, s := range k.Staging {
		if s.UID == uid {
			return i
		}
	}
	return -1
}

// CookingIndex returns the index of the cooking entry with uid, or -1.
func (k Kitchen) CookingIndex(uid string) int {
	for i, c := range k.Cooking {
		if c.UID == uid {
			return i
		}
	}
	return -1
}

// HasUID reports whether uid is used anywhere on the plate or in the pot.
func (k Kitchen) HasUID(uid string) bool {
	return k.StagingIndex(uid) >= 0 || k.CookingIndex(uid) >= 0
}
