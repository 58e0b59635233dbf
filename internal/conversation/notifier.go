package conversation

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

var _ domain.Notifier = (*CLINotifier)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// PrintFunc prints one formatted line. Matches fmt.Printf and the
// display's Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier prints kitchen events as one line each.
type CLINotifier struct {
	catalog domain.Catalog
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLINotifier creates a text notifier. If printFn is nil, fmt.Printf
// is used.
func NewCLINotifier(catalog domain.Catalog, log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{catalog: catalog, log: log, printFn: printFn}
}

// Notify prints ev.
func (n *CLINotifier) Notify(_ context.Context, ev domain.Event) error {
	msg, urgent := n.Message(ev)
	if msg == "" {
		return nil
	}
	n.log.Debug("notify: %s", msg)
	switch {
	case urgent:
		n.printFn("%s%s%s%s", red, bold, msg, reset)
	case ev.Type == domain.EventItemCancelled || (ev.Type == domain.EventItemDismissed && ev.WasDone):
		n.printFn("%s%s%s", dim, msg, reset)
	case ev.Type == domain.EventItemAlmostDone:
		n.printFn("%s%s%s", yellow, msg, reset)
	case ev.Type == domain.EventCatalogImported:
		n.printFn("%s%s%s", green, msg, reset)
	default:
		n.printFn("%s%s%s%s", cyan, bold, msg, reset)
	}
	return nil
}

// Message returns the text for ev and whether it needs attention now.
func (n *CLINotifier) Message(ev domain.Event) (string, bool) {
	label := ev.IngredientID
	if ing, ok := n.catalog.Lookup(ev.IngredientID); ok {
		label = ing.Label()
	}

	switch ev.Type {
	case domain.EventItemAdded:
		return fmt.Sprintf("+ %s on the plate", label), false
	case domain.EventItemStarted:
		if ev.Duplicate {
			return fmt.Sprintf("%s in the pot (another one, plate kept)", label), false
		}
		return fmt.Sprintf("%s in the pot", label), false
	case domain.EventItemAlmostDone:
		return fmt.Sprintf("%s almost done", label), false
	case domain.EventItemCompleted:
		return fmt.Sprintf("%s is READY", label), true
	case domain.EventItemReminder:
		return fmt.Sprintf("%s is still waiting (reminder %d)", label, ev.Count), true
	case domain.EventItemDismissed:
		if ev.WasDone {
			return fmt.Sprintf("ate %s", label), false
		}
		return fmt.Sprintf("%s back on the plate", label), false
	case domain.EventItemCancelled:
		return fmt.Sprintf("- %s removed", label), false
	case domain.EventCatalogImported:
		return fmt.Sprintf("imported %d ingredients", ev.Count), false
	default:
		return "", false
	}
}
