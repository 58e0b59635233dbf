package speech

import "github.com/hammamikhairi/hotpot/internal/logger"

var _ Sayer = (*NoOp)(nil)

// NoOp is a Sayer that only logs. Used when speech is on but no TTS
// credentials are configured.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a silent Sayer.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// Say logs what would have been spoken.
func (n *NoOp) Say(text string, _ Priority) {
	n.log.Debug("speech no-op: would say %q", text)
}
