package cue

import (
	"context"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// Compile-time interface check.
var _ domain.CueDispatcher = (*NoOp)(nil)

// NoOp is a cue dispatcher that only logs. Used when audio is disabled or
// no device could be opened.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a no-op dispatcher.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

func (n *NoOp) PlayCue(_ context.Context, kind domain.CueKind) error {
	n.log.Debug("cue no-op: would play %s", kind)
	return nil
}

func (n *NoOp) TriggerHaptic(_ context.Context, kind domain.HapticKind) error {
	n.log.Debug("cue no-op: would pulse %s", kind)
	return nil
}
