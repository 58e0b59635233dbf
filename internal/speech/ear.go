package speech

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/hotpot/internal/logger"
)

// ErrBusy is returned when a recording is already in progress.
var ErrBusy = errors.New("ear: already recording")

// envAnnotation matches whisper annotations like "(keyboard clicking)".
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z_][a-zA-Z_\s]*[\)\]]`)

// hallucinations are transcriptions whisper produces from silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
}

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithRecordDuration sets how long one push-to-talk recording lasts.
func WithRecordDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.recordDuration = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// Interrupter silences playback so the microphone does not hear it.
type Interrupter interface {
	Interrupt()
}

// WithInterrupter silences the given speaker while recording.
func WithInterrupter(i Interrupter) EarOption {
	return func(e *Ear) { e.quiet = i }
}

// Ear is push-to-talk voice input backed by a local whisper model. Each
// call to Listen records one clip and delivers its transcription on C.
type Ear struct {
	whisperBin     string
	modelPath      string
	tempDir        string
	recordDuration time.Duration
	quiet          Interrupter
	log            *logger.Logger

	mu     sync.Mutex
	busy   bool
	textCh chan string
}

// NewEar creates a push-to-talk listener.
func NewEar(whisperBin, modelPath string, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		whisperBin:     whisperBin,
		modelPath:      modelPath,
		tempDir:        ".hotpot/stt",
		recordDuration: 3 * time.Second,
		log:            log,
		textCh:         make(chan string, 4),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := exec.LookPath(e.whisperBin); err != nil {
		log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
	}
	return e
}

// C receives transcribed commands.
func (e *Ear) C() <-chan string {
	return e.textCh
}

// Listen records one clip in the background. Returns ErrBusy when a
// recording is already running.
func (e *Ear) Listen(ctx context.Context) error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	e.busy = true
	e.mu.Unlock()

	if e.quiet != nil {
		e.quiet.Interrupt()
	}

	go func() {
		defer func() {
			e.mu.Lock()
			e.busy = false
			e.mu.Unlock()
		}()

		text := cleanTranscription(e.record(ctx))
		if text == "" {
			e.log.Debug("ear: heard nothing")
			return
		}
		e.log.Info("ear: heard %q", text)
		select {
		case e.textCh <- text:
		case <-ctx.Done():
		}
	}()
	return nil
}

// record runs one whisper recording cycle and returns the raw text.
func (e *Ear) record(ctx context.Context) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)
	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(e.whisperBin, e.modelPath, e.tempDir, "wav", callback, verbose)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		return ""
	}
	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		return ""
	}

	select {
	case <-time.After(e.recordDuration):
	case <-ctx.Done():
	}
	t.Stop()
	wg.Wait()
	return result
}

// cleanTranscription drops whisper artifacts: timestamps, bracketed
// annotations, and stock phrases it hallucinates on silence.
func cleanTranscription(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	// "[00:00:00.000 --> 00:00:03.000]  add tripe"
	if strings.HasPrefix(s, "[") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 && strings.Contains(s[:idx], "-->") {
			s = strings.TrimSpace(s[idx+1:])
		}
	}

	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
