package domain

// IntentKind classifies a transition request sent to the engine.
type IntentKind int

const (
	IntentAddToStaging IntentKind = iota
	IntentStart
	IntentDuplicateStart
	IntentCancel
	IntentMarkDone
	IntentDismiss
	IntentMoveBack
)

// String returns a human-readable intent kind.
func (k IntentKind) String() string {
	switch k {
	case IntentAddToStaging:
		return "add_to_staging"
	case IntentStart:
		return "start"
	case IntentDuplicateStart:
		return "duplicate_start"
	case IntentCancel:
		return "cancel"
	case IntentMarkDone:
		return "mark_done"
	case IntentDismiss:
		return "dismiss"
	case IntentMoveBack:
		return "move_back"
	default:
		return "unknown"
	}
}

// Intent is the closed set of transitions the engine accepts. Only the
// types in this file implement it.
type Intent interface {
	Kind() IntentKind
	sealed()
}

// AddToStaging puts a fresh portion of an ingredient on the plate.
type AddToStaging struct{ IngredientID string }

// Start moves a staging entry into the pot, consuming it.
type Start struct{ UID string }

// DuplicateStart puts a copy of a staging entry into the pot and keeps
// the original on the plate.
type DuplicateStart struct{ UID string }

// Cancel removes a staging entry from the plate.
type Cancel struct{ UID string }

// MarkDone flags a cooking entry as finished.
type MarkDone struct{ UID string }

// Dismiss takes an entry out of the pot: eaten when done, returned to
// the plate when not.
type Dismiss struct{ UID string }

// MoveBack returns an unfinished entry to the plate.
type MoveBack struct{ UID string }

func (AddToStaging) Kind() IntentKind   { return IntentAddToStaging }
func (Start) Kind() IntentKind          { return IntentStart }
func (DuplicateStart) Kind() IntentKind { return IntentDuplicateStart }
func (Cancel) Kind() IntentKind         { return IntentCancel }
func (MarkDone) Kind() IntentKind       { return IntentMarkDone }
func (Dismiss) Kind() IntentKind        { return IntentDismiss }
func (MoveBack) Kind() IntentKind       { return IntentMoveBack }

func (AddToStaging) sealed()   {}
func (Start) sealed()          {}
func (DuplicateStart) sealed() {}
func (Cancel) sealed()         {}
func (MarkDone) sealed()       {}
func (Dismiss) sealed()        {}
func (MoveBack) sealed()       {}
