package cue

import (
	"bytes"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// OtoSink plays PCM through oto.
type OtoSink struct {
	ctx    *oto.Context
	log    *logger.Logger
	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// Compile-time interface check.
var _ Sink = (*OtoSink)(nil)

// NewOtoSink initializes the system audio context. oto allows one context
// per process, so call this once.
func NewOtoSink(log *logger.Logger) (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   20 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	log.Debug("oto sink ready (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &OtoSink{ctx: ctx, log: log}, nil
}

// Play plays pcm and waits for it to finish.
func (s *OtoSink) Play(pcm []byte) error {
	player := s.ctx.NewPlayer(bytes.NewReader(pcm))

	s.mu.Lock()
	s.active = player
	s.mu.Unlock()

	player.Play()
	for player.IsPlaying() {
		time.Sleep(5 * time.Millisecond)
	}

	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()

	return player.Close()
}

// Stop pauses the active player, which ends Play.
func (s *OtoSink) Stop() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if active != nil {
		active.Pause()
		s.log.Debug("oto sink: interrupted")
	}
}

// Close suspends the audio context.
func (s *OtoSink) Close() error {
	s.Stop()
	return s.ctx.Suspend()
}
