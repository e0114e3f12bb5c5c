package cue

import (
	"fmt"

	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// Sink plays raw PCM in the package's audio format.
type Sink interface {
	// Play blocks until pcm has been played or Stop is called.
	Play(pcm []byte) error
	// Stop interrupts the current playback, if any.
	Stop()
	Close() error
}

// NewSink opens the named audio backend. BackendNone returns a nil Sink
// and no error.
func NewSink(backend string, log *logger.Logger) (Sink, error) {
	switch backend {
	case BackendOto, "":
		s, err := NewOtoSink(log)
		if err != nil {
			return nil, fmt.Errorf("opening oto: %w", err)
		}
		return s, nil
	case BackendMalgo:
		s, err := NewMalgoSink(log)
		if err != nil {
			return nil, fmt.Errorf("opening malgo: %w", err)
		}
		return s, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}
