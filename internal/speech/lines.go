// Package speech - lines.go keeps every spoken string in one place.
// Keep lines short; the TTS engine handles inflection.
package speech

import (
	"fmt"
	"time"
)

func LineWelcome() string {
	return "Pot's on. What are we cooking?"
}

func LineBye() string {
	return "Bye. Turn off the stove."
}

func LineStarted(name string, d time.Duration) string {
	return fmt.Sprintf("%s in. %s.", name, FormatDurationSpeech(d))
}

func LineStartedAnother(name string, d time.Duration) string {
	return fmt.Sprintf("Another %s in. %s.", name, FormatDurationSpeech(d))
}

func LineReady(name string) string {
	return fmt.Sprintf("%s is ready.", name)
}

// LineReminder nags about an entry that finished and was not eaten.
func LineReminder(name string, n int) string {
	if n <= 1 {
		return fmt.Sprintf("%s is still in the pot.", name)
	}
	return fmt.Sprintf("%s has been ready a while. Take it out.", name)
}

func LineAlmostDone(name string) string {
	return fmt.Sprintf("%s, almost done.", name)
}

func LineEaten(name string) string {
	return fmt.Sprintf("Enjoy the %s.", name)
}

func LineFishedOut(name string) string {
	return fmt.Sprintf("%s back on the plate.", name)
}

func LineRemoved(name string) string {
	return fmt.Sprintf("%s removed.", name)
}

func LineImported(n int) string {
	if n == 1 {
		return "Imported 1 ingredient."
	}
	return fmt.Sprintf("Imported %d ingredients.", n)
}

// FormatDurationSpeech returns a human-friendly spoken duration.
func FormatDurationSpeech(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	switch {
	case m == 0 && s == 1:
		return "1 second"
	case m == 0:
		return fmt.Sprintf("%d seconds", s)
	case s == 0 && m == 1:
		return "1 minute"
	case s == 0:
		return fmt.Sprintf("%d minutes", m)
	case m == 1:
		return fmt.Sprintf("1 minute %d seconds", s)
	default:
		return fmt.Sprintf("%d minutes %d seconds", m, s)
	}
}
