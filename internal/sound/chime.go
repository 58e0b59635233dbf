package sound

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

var _ domain.Notifier = (*Chime)(nil)

// ChimeOption configures the Chime.
type ChimeOption func(*Chime)

// WithQueueSize sets how many pending sounds are kept before new ones
// are dropped.
func WithQueueSize(n int) ChimeOption {
	return func(c *Chime) {
		c.queue = make(chan []Cue, n)
	}
}

// WithGap sets the pause between cues of one sequence.
func WithGap(d time.Duration) ChimeOption {
	return func(c *Chime) {
		c.gap = d
	}
}

// Chime turns kitchen events into tones. Sounds are played one at a time
// by a background loop, so Notify never blocks on the audio device.
type Chime struct {
	out   Output
	log   *logger.Logger
	gap   time.Duration
	queue chan []Cue

	mu       sync.Mutex
	rendered map[string][]byte
}

// NewChime creates a tone notifier playing through out.
func NewChime(out Output, log *logger.Logger, opts ...ChimeOption) *Chime {
	c := &Chime{
		out:      out,
		log:      log,
		gap:      40 * time.Millisecond,
		queue:    make(chan []Cue, 16),
		rendered: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CuesFor maps an event to the sounds it makes. Nil means silent.
func CuesFor(ev domain.Event) []Cue {
	switch ev.Type {
	case domain.EventItemAdded, domain.EventItemAlmostDone:
		return []Cue{CueSelect}
	case domain.EventItemStarted:
		if ev.Duplicate {
			return []Cue{CueSplash, CueSelect, CueSelect, CueSelect}
		}
		return []Cue{CueSplash}
	case domain.EventItemCompleted, domain.EventItemReminder:
		return []Cue{CueDing}
	case domain.EventItemCancelled:
		return []Cue{CueCancel}
	case domain.EventItemDismissed:
		if ev.WasDone {
			return []Cue{CueEat}
		}
		return []Cue{CueCancel}
	case domain.EventCatalogImported:
		return []Cue{CueSuccess}
	default:
		return nil
	}
}

// Notify queues the event's sound.
func (c *Chime) Notify(_ context.Context, ev domain.Event) error {
	c.Play(CuesFor(ev)...)
	return nil
}

// Play queues a cue sequence. Dropped when the queue is full.
func (c *Chime) Play(cues ...Cue) {
	if len(cues) == 0 {
		return
	}
	select {
	case c.queue <- cues:
	default:
		c.log.Debug("chime: queue full, dropping %v", cues)
	}
}

// Start begins the playback loop. Non-blocking.
func (c *Chime) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case cues := <-c.queue:
				if err := c.out.PlayPCM(c.render(cues)); err != nil {
					c.log.Error("chime: playback failed: %v", err)
				}
			}
		}
	}()
	c.log.Info("chime started")
}

// render returns the PCM for a sequence, memoized by cue list.
func (c *Chime) render(cues []Cue) []byte {
	key := ""
	for _, cue := range cues {
		key += cue.String() + ","
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pcm, ok := c.rendered[key]; ok {
		return pcm
	}
	pcm := Sequence(SampleRate, c.gap, cues...)
	c.rendered[key] = pcm
	return pcm
}
