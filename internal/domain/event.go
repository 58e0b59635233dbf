package domain

import "time"

// EventType classifies a notification emitted by the core.
type EventType int

const (
	EventItemAdded EventType = iota
	EventItemStarted
	EventItemCompleted
	EventItemCancelled
	EventItemDismissed
	EventItemReminder
	EventItemAlmostDone
	EventCatalogImported
)

// String returns a human-readable event type.
func (t EventType) String() string {
	switch t {
	case EventItemAdded:
		return "item_added"
	case EventItemStarted:
		return "item_started"
	case EventItemCompleted:
		return "item_completed"
	case EventItemCancelled:
		return "item_cancelled"
	case EventItemDismissed:
		return "item_dismissed"
	case EventItemReminder:
		return "item_reminder"
	case EventItemAlmostDone:
		return "item_almost_done"
	case EventCatalogImported:
		return "catalog_imported"
	default:
		return "unknown"
	}
}

// Event is an abstract notification for audio, speech or text
// collaborators. The core never plays sounds itself.
type Event struct {
	Type         EventType
	UID          string
	IngredientID string
	At           time.Time

	// Duplicate is set on ItemStarted when the plate entry was kept.
	Duplicate bool
	// WasDone is set on ItemDismissed when the entry was eaten.
	WasDone bool
	// Count carries the reminder number or the imported record count.
	Count int
}
