package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   Level
		wantOK bool
	}{
		{"off", LevelOff, true},
		{"QUIET", LevelOff, true},
		{"info", LevelNormal, true},
		{" debug ", LevelVerbose, true},
		{"verbose", LevelVerbose, true},
		{"", LevelNormal, false},
		{"loud", LevelNormal, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ParseLevel(%q) = %v,%v want %v,%v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNamedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelNormal, &buf)
	child := root.Named("timer")

	child.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug leaked at normal level: %q", buf.String())
	}

	root.SetLevel(LevelVerbose)
	child.Debug("visible %d", 1)
	if !strings.Contains(buf.String(), "timer: visible 1") {
		t.Fatalf("expected prefixed debug line, got %q", buf.String())
	}
}

func TestOffSilencesEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelOff, &buf)
	l.Info("a")
	l.Warn("b")
	l.Error("c")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
