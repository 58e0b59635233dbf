package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input       string
		wantKind    domain.CommandKind
		wantPayload string
		wantDouble  bool
	}{
		// Add
		{"add beef slices", domain.CommandAdd, "beef slices", false},
		{"a tripe", domain.CommandAdd, "tripe", false},
		{"+tofu skin", domain.CommandAdd, "tofu skin", false},
		{"Add the lamb rolls.", domain.CommandAdd, "lamb rolls", false},

		// Tap
		{"2", domain.CommandTap, "2", false},
		{"#3", domain.CommandTap, "3", false},
		{"tap 1", domain.CommandTap, "1", false},
		{"start number two", domain.CommandTap, "2", false},
		{"cook tripe", domain.CommandTap, "tripe", false},

		// Double tap
		{"double 1", domain.CommandTap, "1", true},
		{"tap tap 2", domain.CommandTap, "2", true},
		{"another beef slices", domain.CommandTap, "beef slices", true},
		{"duplicate 4", domain.CommandTap, "4", true},

		// Remove, eat, fish
		{"rm 2", domain.CommandRemove, "2", false},
		{"cancel the tripe", domain.CommandRemove, "tripe", false},
		{"eat 1", domain.CommandEat, "1", false},
		{"take out three", domain.CommandEat, "3", false},
		{"fish out 2", domain.CommandFish, "2", false},
		{"back 1", domain.CommandFish, "1", false},

		// No argument
		{"list", domain.CommandList, "", false},
		{"pot", domain.CommandList, "", false},
		{"status", domain.CommandStatus, "", false},
		{"help", domain.CommandHelp, "", false},
		{"?", domain.CommandHelp, "", false},
		{"quit", domain.CommandQuit, "", false},
		{"Q", domain.CommandQuit, "", false},

		// Unknown
		{"again", domain.CommandUnknown, "again", false},
		{"make me a sandwich", domain.CommandUnknown, "make me a sandwich", false},
		{"", domain.CommandUnknown, "", false},
		{"   ", domain.CommandUnknown, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := parser.Parse(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Kind != tt.wantKind {
				t.Errorf("Parse(%q).Kind = %s, want %s", tt.input, cmd.Kind, tt.wantKind)
			}
			if cmd.Payload != tt.wantPayload {
				t.Errorf("Parse(%q).Payload = %q, want %q", tt.input, cmd.Payload, tt.wantPayload)
			}
			if cmd.Double != tt.wantDouble {
				t.Errorf("Parse(%q).Double = %v, want %v", tt.input, cmd.Double, tt.wantDouble)
			}
		})
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"#12", 12, true},
		{"five", 5, true},
		{"Second", 2, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"1234", 0, false},
		{"beef", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePosition(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParsePosition(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

type mockCatalog map[string]domain.Ingredient

func (m mockCatalog) Lookup(id string) (domain.Ingredient, bool) {
	ing, ok := m[id]
	return ing, ok
}

func (m mockCatalog) IncrementUsage(string) bool { return true }

func TestCLINotifier(t *testing.T) {
	cat := mockCatalog{"tripe": {ID: "tripe", Name: "Tripe", Emoji: "🐄", Seconds: 10}}
	var lines []string
	n := NewCLINotifier(cat, logger.New(logger.LevelOff, nil), func(format string, a ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, a...))
	})

	tests := []struct {
		ev     domain.Event
		want   string
		urgent bool
	}{
		{domain.Event{Type: domain.EventItemAdded, IngredientID: "tripe"}, "+ 🐄 Tripe on the plate", false},
		{domain.Event{Type: domain.EventItemStarted, IngredientID: "tripe", Duplicate: true}, "🐄 Tripe in the pot (another one, plate kept)", false},
		{domain.Event{Type: domain.EventItemCompleted, IngredientID: "tripe"}, "🐄 Tripe is READY", true},
		{domain.Event{Type: domain.EventItemReminder, IngredientID: "tripe", Count: 2}, "🐄 Tripe is still waiting (reminder 2)", true},
		{domain.Event{Type: domain.EventItemDismissed, IngredientID: "tripe", WasDone: true}, "ate 🐄 Tripe", false},
		{domain.Event{Type: domain.EventItemCancelled, IngredientID: "gone"}, "- gone removed", false},
		{domain.Event{Type: domain.EventCatalogImported, Count: 13}, "imported 13 ingredients", false},
	}
	for _, tt := range tests {
		msg, urgent := n.Message(tt.ev)
		if msg != tt.want || urgent != tt.urgent {
			t.Fatalf("%s: got (%q, %v), want (%q, %v)", tt.ev.Type, msg, urgent, tt.want, tt.urgent)
		}
	}

	if err := n.Notify(context.Background(), tests[2].ev); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "Tripe is READY") || !strings.Contains(lines[0], red) {
		t.Fatalf("urgent line not printed in red: %q", lines)
	}
}

