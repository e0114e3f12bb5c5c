package cue

import (
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// MalgoSink plays PCM through a miniaudio playback device. The device runs
// for the lifetime of the sink and pulls from a pending buffer, writing
// silence when there is nothing to play.
type MalgoSink struct {
	log    *logger.Logger
	mctx   *malgo.AllocatedContext
	device *malgo.Device

	mu      sync.Mutex
	pending []byte
	drained chan struct{} // closed when pending runs out; nil when idle
}

// Compile-time interface check.
var _ Sink = (*MalgoSink)(nil)

// NewMalgoSink opens and starts the default playback device.
func NewMalgoSink(log *logger.Logger) (*MalgoSink, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug("malgo: %s", msg)
	})
	if err != nil {
		return nil, err
	}

	s := &MalgoSink{log: log, mctx: mctx}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.SampleRate = SampleRate
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = ChannelCount
	cfg.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: s.fill})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, err
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return nil, err
	}
	s.device = device

	log.Debug("malgo sink ready (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return s, nil
}

// fill is the device's data callback.
func (s *MalgoSink) fill(out, _ []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(out, s.pending)
	clear(out[n:])
	s.pending = s.pending[n:]
	if len(s.pending) == 0 && s.drained != nil {
		close(s.drained)
		s.drained = nil
	}
}

// Play queues pcm on the device and waits until it has been consumed.
func (s *MalgoSink) Play(pcm []byte) error {
	done := make(chan struct{})

	s.mu.Lock()
	if s.drained != nil {
		close(s.drained)
	}
	s.pending = pcm
	s.drained = done
	s.mu.Unlock()

	<-done
	return nil
}

// Stop drops whatever has not been played yet.
func (s *MalgoSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.drained != nil {
		close(s.drained)
		s.drained = nil
	}
}

// Close stops the device and frees the context.
func (s *MalgoSink) Close() error {
	s.Stop()
	if err := s.device.Stop(); err != nil {
		s.log.Warn("malgo sink: stopping device: %v", err)
	}
	s.device.Uninit()
	err := s.mctx.Uninit()
	s.mctx.Free()
	return err
}
