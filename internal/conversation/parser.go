// Package conversation turns typed or spoken input into commands and
// prints kitchen events as text.
package conversation

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

var _ domain.CommandParser = (*KeywordParser)(nil)

// KeywordParser matches input against keyword patterns. A pattern
// captures the command argument, if it takes one, in its only group.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	kind   domain.CommandKind
	double bool
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(?:quit|exit|q|bye)$`), domain.CommandQuit, false},
		{regexp.MustCompile(`(?i)^(?:help|h|\?)$`), domain.CommandHelp, false},
		{regexp.MustCompile(`(?i)^(?:list|ls|plate|pot|show)$`), domain.CommandList, false},
		{regexp.MustCompile(`(?i)^(?:status|st|how long)$`), domain.CommandStatus, false},
		// Double tap before single tap: "tap tap 2" must not match "tap (tap 2)".
		{regexp.MustCompile(`(?i)^(?:double|dup|duplicate|tap tap|tap twice|another|again)\s+(.+)$`), domain.CommandTap, true},
		{regexp.MustCompile(`(?i)^(?:tap|start|cook|drop|go)\s+(.+)$`), domain.CommandTap, false},
		{regexp.MustCompile(`(?i)^(?:add|stage|a)\s+(.+)$`), domain.CommandAdd, false},
		{regexp.MustCompile(`^\+\s*(.+)$`), domain.CommandAdd, false},
		{regexp.MustCompile(`(?i)^(?:remove|rm|cancel|x|delete|del)\s+(.+)$`), domain.CommandRemove, false},
		{regexp.MustCompile(`(?i)^(?:eat|e|take out|serve)\s+(.+)$`), domain.CommandEat, false},
		{regexp.MustCompile(`(?i)^(?:fish out|fish|back|return|undo)\s+(.+)$`), domain.CommandFish, false},
	}
	return p
}

// Parse converts input into a command. Unrecognized input yields
// CommandUnknown with the input as payload.
func (p *KeywordParser) Parse(_ context.Context, input string) (*domain.Command, error) {
	trimmed := strings.Join(strings.Fields(strings.Trim(input, " \t\r\n.!,")), " ")
	if trimmed == "" {
		return &domain.Command{Kind: domain.CommandUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	// A bare number taps that plate entry.
	if n, ok := ParsePosition(trimmed); ok {
		return &domain.Command{Kind: domain.CommandTap, Payload: strconv.Itoa(n)}, nil
	}

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		cmd := &domain.Command{Kind: rule.kind, Double: rule.double}
		if len(m) > 1 {
			cmd.Payload = normalizeArg(m[1])
		}
		p.log.Debug("matched command: %s %q double=%v", cmd.Kind, cmd.Payload, cmd.Double)
		return cmd, nil
	}

	p.log.Debug("no match, returning unknown command")
	return &domain.Command{Kind: domain.CommandUnknown, Payload: trimmed}, nil
}

// numberWords covers what speech recognition writes for small numbers.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
}

// ParsePosition reads a 1-based list position, as digits ("#3", "3") or
// a spoken word ("three").
func ParsePosition(s string) (int, bool) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#")
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	if s == "" || len(s) > 3 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// normalizeArg strips filler words so "the beef slices" and "number 2"
// resolve like "beef slices" and "2".
func normalizeArg(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, filler := range []string{"number ", "the ", "some ", "item "} {
		if strings.HasPrefix(lower, filler) {
			s = strings.TrimSpace(s[len(filler):])
			lower = lower[len(filler):]
		}
	}
	if n, ok := ParsePosition(s); ok {
		return strconv.Itoa(n)
	}
	return s
}
