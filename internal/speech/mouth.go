package speech

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Sayer queues text to be spoken.
type Sayer interface {
	Say(text string, priority Priority)
}

// WAVPlayer plays synthesized audio. *sound.Player satisfies it.
type WAVPlayer interface {
	PlayWAV(wav []byte) error
	Stop()
}

var _ Sayer = (*Mouth)(nil)

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithCacheDir enables the on-disk audio cache.
func WithCacheDir(dir string) MouthOption {
	return func(m *Mouth) {
		m.cacheDir = dir
	}
}

// WithMaxQueue caps pending announcements. When full, the oldest
// lowest-priority item is dropped.
func WithMaxQueue(n int) MouthOption {
	return func(m *Mouth) {
		m.maxQueue = n
	}
}

// Mouth serializes announcements: one thing speaks at a time and higher
// priority items go first. Identical text is synthesized once.
type Mouth struct {
	tts    Synthesizer
	player WAVPlayer
	log    *logger.Logger
	cache  *AudioCache

	cacheDir string
	maxQueue int

	mu       sync.Mutex
	queue    []Request
	notify   chan struct{}
	speaking bool
	last     string
}

// NewMouth creates a speech dispatcher.
func NewMouth(tts Synthesizer, player WAVPlayer, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		tts:      tts,
		player:   player,
		log:      log,
		maxQueue: 8,
		notify:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = NewAudioCache(tts.Voice(), m.cacheDir, log)
	return m
}

// Say queues text. Non-blocking. Queuing anything at PriorityNormal or
// above flushes pending low-priority chatter.
func (m *Mouth) Say(text string, priority Priority) {
	if text == "" {
		return
	}
	m.mu.Lock()
	if priority >= PriorityNormal {
		m.flushLowLocked()
	}
	if m.maxQueue > 0 && len(m.queue) >= m.maxQueue {
		m.dropLocked()
	}
	m.queue = append(m.queue, Request{Text: text, Priority: priority, QueuedAt: time.Now()})
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Mouth) flushLowLocked() {
	n := 0
	for _, r := range m.queue {
		if r.Priority > PriorityLow {
			m.queue[n] = r
			n++
		}
	}
	if dropped := len(m.queue) - n; dropped > 0 {
		m.log.Debug("mouth: flushed %d low-priority items", dropped)
	}
	m.queue = m.queue[:n]
}

// dropLocked removes the oldest item of the lowest priority present.
func (m *Mouth) dropLocked() {
	worst := 0
	for i, r := range m.queue {
		if r.Priority < m.queue[worst].Priority {
			worst = i
		}
	}
	m.log.Debug("mouth: queue full, dropping %q", m.queue[worst].Text)
	m.queue = append(m.queue[:worst], m.queue[worst+1:]...)
}

// Interrupt clears the queue and stops the current playback.
func (m *Mouth) Interrupt() {
	m.mu.Lock()
	m.queue = m.queue[:0]
	m.mu.Unlock()
	m.player.Stop()
}

// IsSpeaking reports whether audio is being synthesized or played.
func (m *Mouth) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// QueueLen returns the number of pending announcements.
func (m *Mouth) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// LastSpoken returns the most recent announcement.
func (m *Mouth) LastSpoken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Start begins the speaking loop. Non-blocking.
func (m *Mouth) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				m.log.Info("mouth stopped")
				return
			case <-m.notify:
				m.drain(ctx)
			}
		}
	}()
	m.log.Info("mouth started (voice=%s)", m.tts.Voice())
}

func (m *Mouth) drain(ctx context.Context) {
	for ctx.Err() == nil {
		req, ok := m.dequeue()
		if !ok {
			return
		}
		m.setSpeaking(true)
		m.speak(ctx, req)
		m.setSpeaking(false)
	}
}

func (m *Mouth) setSpeaking(v bool) {
	m.mu.Lock()
	m.speaking = v
	m.mu.Unlock()
}

// dequeue pops the highest priority item, oldest first among equals.
func (m *Mouth) dequeue() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return Request{}, false
	}
	best := 0
	for i, r := range m.queue {
		if r.Priority > m.queue[best].Priority {
			best = i
		}
	}
	req := m.queue[best]
	m.queue = append(m.queue[:best], m.queue[best+1:]...)
	return req, true
}

func (m *Mouth) speak(ctx context.Context, req Request) {
	m.log.Debug("mouth: speaking (priority=%d, waited=%s): %s",
		req.Priority, time.Since(req.QueuedAt).Round(time.Millisecond), req.Text)

	audio, err := m.synthesize(ctx, req.Text)
	if err != nil {
		m.log.Error("mouth: synthesis failed: %v", err)
		return
	}
	if err := m.player.PlayWAV(audio); err != nil {
		m.log.Error("mouth: playback failed: %v", err)
		return
	}
	m.mu.Lock()
	m.last = req.Text
	m.mu.Unlock()
}

func (m *Mouth) synthesize(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := m.cache.Get(text); ok {
		return audio, nil
	}
	audio, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Put(text, audio)
	return audio, nil
}

// Prefetch synthesizes texts in the background so the first announcement
// of each plays without a round trip.
func (m *Mouth) Prefetch(ctx context.Context, texts ...string) {
	for _, text := range texts {
		if text == "" || m.cache.Has(text) {
			continue
		}
		go func(t string) {
			audio, err := m.tts.Synthesize(ctx, t)
			if err != nil {
				m.log.Debug("prefetch: %v", err)
				return
			}
			m.cache.Put(t, audio)
		}(text)
	}
}
