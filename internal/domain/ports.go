package domain

import "context"

// Catalog is the read side of the ingredient catalog consumed by the core.
// Lookups are in-memory and never block.
type Catalog interface {
	Lookup(id string) (Ingredient, bool)
	// IncrementUsage bumps the usage counter. Returns false when the
	// ingredient no longer exists.
	IncrementUsage(id string) bool
}

// Settings holds the small amount of non-catalog state that survives a
// restart.
type Settings struct {
	AdminHash string `json:"adminHash" cbor:"adminHash"`
	SeenGuide bool   `json:"seenGuide" cbor:"seenGuide"`
}

// Repository persists the catalog, the plate and settings. The pot is
// never persisted. Implementations can be in-memory, a snapshot file,
// SQLite, or any other backend. Load methods return ErrNotFound when
// nothing has been saved yet.
type Repository interface {
	LoadCatalog(ctx context.Context) ([]Ingredient, error)
	SaveCatalog(ctx context.Context, items []Ingredient) error
	LoadStaging(ctx context.Context) ([]StagingEntry, error)
	SaveStaging(ctx context.Context, entries []StagingEntry) error
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
	Close() error
}

// Notifier delivers core events to the user. Implementations can print,
// play tones, or speak.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Notifiers fans one event out to several notifiers. The first error is
// returned after every notifier has been called.
type Notifiers []Notifier

// Notify implements Notifier.
func (ns Notifiers) Notify(ctx context.Context, ev Event) error {
	var first error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CommandKind classifies a typed or spoken user command.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandAdd
	CommandTap
	CommandRemove
	CommandEat
	CommandFish
	CommandList
	CommandStatus
	CommandHelp
	CommandQuit
)

// String returns a human-readable command kind.
func (k CommandKind) String() string {
	switch k {
	case CommandAdd:
		return "add"
	case CommandTap:
		return "tap"
	case CommandRemove:
		return "remove"
	case CommandEat:
		return "eat"
	case CommandFish:
		return "fish"
	case CommandList:
		return "list"
	case CommandStatus:
		return "status"
	case CommandHelp:
		return "help"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is a parsed user instruction. Payload carries the ingredient
// name or the entry position, depending on the kind.
type Command struct {
	Kind    CommandKind
	Payload string
	// Double is set for "tap twice" style commands.
	Double bool
}

// CommandParser converts raw user input into structured commands.
// Implementations can be keyword-based or anything smarter.
type CommandParser interface {
	Parse(ctx context.Context, input string) (*Command, error)
}
