package speech

import (
	"context"
	"time"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

var _ domain.Notifier = (*SpeakingNotifier)(nil)

// SpeakingNotifier announces kitchen events out loud.
type SpeakingNotifier struct {
	catalog domain.Catalog
	sayer   Sayer
	log     *logger.Logger
}

// NewSpeakingNotifier creates a notifier that names ingredients through
// catalog and speaks through sayer.
func NewSpeakingNotifier(catalog domain.Catalog, sayer Sayer, log *logger.Logger) *SpeakingNotifier {
	return &SpeakingNotifier{catalog: catalog, sayer: sayer, log: log}
}

// Notify queues the announcement for ev, if it has one.
func (n *SpeakingNotifier) Notify(_ context.Context, ev domain.Event) error {
	text, prio := n.Line(ev)
	if text == "" {
		return nil
	}
	n.sayer.Say(text, prio)
	return nil
}

// Line returns what ev sounds like. An empty string means silent.
func (n *SpeakingNotifier) Line(ev domain.Event) (string, Priority) {
	name := ev.IngredientID
	var dur time.Duration
	if ing, ok := n.catalog.Lookup(ev.IngredientID); ok {
		name = ing.Name
		dur = ing.Duration()
	}

	switch ev.Type {
	case domain.EventItemStarted:
		if ev.Duplicate {
			return LineStartedAnother(name, dur), PriorityNormal
		}
		return LineStarted(name, dur), PriorityNormal
	case domain.EventItemCompleted:
		return LineReady(name), PriorityHigh
	case domain.EventItemReminder:
		return LineReminder(name, ev.Count), PriorityHigh
	case domain.EventItemAlmostDone:
		return LineAlmostDone(name), PriorityNormal
	case domain.EventItemDismissed:
		if ev.WasDone {
			return LineEaten(name), PriorityLow
		}
		return LineFishedOut(name), PriorityNormal
	case domain.EventItemCancelled:
		return LineRemoved(name), PriorityLow
	case domain.EventCatalogImported:
		return LineImported(ev.Count), PriorityNormal
	default:
		return "", PriorityLow
	}
}
