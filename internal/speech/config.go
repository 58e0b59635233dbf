// Package speech announces kitchen events through Azure text-to-speech
// and takes push-to-talk commands through a local whisper model.
package speech

import "time"

// DefaultVoice is the Azure neural voice used for announcements.
const DefaultVoice = "en-US-AvaNeural"

// DefaultAudioFormat matches the sample rate of the sound player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Env var names for Azure Speech credentials.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)

// Priority orders queued announcements. Higher speaks first.
type Priority int

const (
	PriorityLow    Priority = iota // plate chatter
	PriorityNormal                 // starts, fish-outs
	PriorityHigh                   // something is ready
)

// Request is a queued announcement.
type Request struct {
	Text     string
	Priority Priority
	QueuedAt time.Time
}
