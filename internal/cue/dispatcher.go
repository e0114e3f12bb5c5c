package cue

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize sets how many cues may wait for playback.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		d.queue = make(chan domain.CueKind, max(1, n))
	}
}

// WithVolume sets the output volume in [0, 1].
func WithVolume(v float64) Option {
	return func(d *Dispatcher) {
		d.volume = v
	}
}

// WithHapticWriter sends haptic pulses to w as terminal bells. Without it
// haptics are accepted and ignored.
func WithHapticWriter(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.haptics = w
	}
}

// Dispatcher is the local CueDispatcher. Cues are queued and played one at
// a time by a single goroutine, so PlayCue never waits on audio.
type Dispatcher struct {
	sink    Sink
	log     *logger.Logger
	volume  float64
	queue   chan domain.CueKind
	pcm     map[domain.CueKind][]byte
	haptics io.Writer
	hmu     sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// Compile-time interface check.
var _ domain.CueDispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher that plays on sink. A nil sink gives a
// dispatcher that accepts cues and plays nothing.
func NewDispatcher(sink Sink, log *logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:   sink,
		log:    log,
		volume: 0.8,
		queue:  make(chan domain.CueKind, 8),
		pcm:    make(map[domain.CueKind][]byte),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, k := range []domain.CueKind{domain.CueStart, domain.CueTick, domain.CueReady, domain.CueComplete} {
		d.pcm[k] = Render(Pattern(k), d.volume)
	}
	return d
}

// Start begins the playback goroutine. Non-blocking.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go d.loop(ctx)
	d.log.Info("cue dispatcher started (queue=%d, volume=%.2f)", cap(d.queue), d.volume)
}

// PlayCue queues a cue. It returns ErrQueueFull instead of waiting when
// playback is behind.
func (d *Dispatcher) PlayCue(ctx context.Context, kind domain.CueKind) error {
	if d.sink == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.queue <- kind:
		return nil
	default:
		d.log.Warn("cue dispatcher: dropped %s cue", kind)
		return ErrQueueFull
	}
}

// TriggerHaptic writes the pulse pattern for kind.
func (d *Dispatcher) TriggerHaptic(_ context.Context, kind domain.HapticKind) error {
	if d.haptics == nil {
		return nil
	}
	d.hmu.Lock()
	defer d.hmu.Unlock()
	_, err := io.WriteString(d.haptics, strings.Repeat("\a", pulses(kind)))
	return err
}

// Close stops playback and releases the sink.
func (d *Dispatcher) Close() error {
	if d.cancel != nil {
		d.cancel()
		if d.sink != nil {
			d.sink.Stop()
		}
		<-d.done
	}
	if d.sink == nil {
		return nil
	}
	return d.sink.Close()
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("cue dispatcher stopped")
			return
		case kind := <-d.queue:
			if d.sink == nil {
				continue
			}
			if err := d.sink.Play(d.pcm[kind]); err != nil {
				d.log.Error("cue dispatcher: playing %s: %v", kind, err)
			}
		}
	}
}

func pulses(kind domain.HapticKind) int {
	switch kind {
	case domain.HapticSuccess:
		return 2
	case domain.HapticWarning:
		return 3
	default:
		return 1
	}
}
