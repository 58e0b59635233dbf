package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/hotpot/internal/logger"
)

// AudioCache keeps synthesized announcements in memory and, when dir is
// set, on disk. Keys hash the voice with the text, so switching voices
// misses instead of replaying the old voice.
type AudioCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	voice   string
	dir     string
	log     *logger.Logger

	hits   int64
	misses int64
}

// NewAudioCache creates a cache. An empty dir disables the disk layer.
func NewAudioCache(voice, dir string, log *logger.Logger) *AudioCache {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("cache: failed to create cache dir %s: %v", dir, err)
			dir = ""
		}
	}
	return &AudioCache{
		entries: make(map[string][]byte),
		voice:   voice,
		dir:     dir,
		log:     log,
	}
}

// Get returns cached audio for text, promoting disk hits into memory.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.key(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok && c.dir != "" {
		if b, err := os.ReadFile(c.path(key)); err == nil {
			data, ok = b, true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.misses++
		return nil, false
	}
	c.entries[key] = data
	c.hits++
	return data, true
}

// Put stores audio for text.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.key(text)

	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.dir == "" {
		return
	}
	if err := os.WriteFile(c.path(key), audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed: %v", err)
	}
}

// Has reports whether text is cached in memory or on disk.
func (c *AudioCache) Has(text string) bool {
	key := c.key(text)
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if ok || c.dir == "" {
		return ok
	}
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *AudioCache) key(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".wav")
}
