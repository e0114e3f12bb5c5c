package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets how often the watcher checks the brew.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithPauseNudge sets how long a brew may stay paused before the watcher
// says something, and how often it repeats itself after that.
func WithPauseNudge(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pauseAfter = d
	}
}

// WithWatchClock replaces the wall clock.
func WithWatchClock(clock Clock) WatcherOption {
	return func(w *Watcher) {
		w.clock = clock
	}
}

// StatusSource is anything that can report a timer Status.
type StatusSource interface {
	Status() Status
}

// Watcher polls the brew on a slow cycle and nudges the user when a brew
// has been left paused or a finished brew was never reset.
type Watcher struct {
	source     StatusSource
	notifier   domain.Notifier
	log        *logger.Logger
	clock      Clock
	interval   time.Duration
	pauseAfter time.Duration

	lastNudge   time.Time
	nudgedSince time.Time // Since of the state we last nudged about
}

// NewWatcher creates a watcher with the given dependencies.
func NewWatcher(source StatusSource, notifier domain.Notifier, log *logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:     source,
		notifier:   notifier,
		log:        log,
		clock:      SystemClock{},
		interval:   15 * time.Second,
		pauseAfter: 1 * time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the watcher loop. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watcher started (interval=%s, pause nudge=%s)", w.interval, w.pauseAfter)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-ticker.C():
			w.check(ctx)
		}
	}
}

// check runs one watcher cycle.
func (w *Watcher) check(ctx context.Context) {
	st := w.source.Status()
	now := w.clock.Now()

	w.log.Debug("watcher: state=%s elapsed=%s/%s", st.State, st.Snapshot.Elapsed, st.Total)

	msg := w.buildMessage(st, now)
	if msg == "" {
		return
	}
	w.lastNudge = now
	w.nudgedSince = st.Since

	if err := w.notifier.Notify(ctx, msg); err != nil {
		w.log.Error("watcher: notify: %v", err)
	}
}

func (w *Watcher) buildMessage(st Status, now time.Time) string {
	inState := now.Sub(st.Since)

	switch st.State {
	case domain.StatePaused:
		if inState < w.pauseAfter || now.Sub(w.lastNudge) < w.pauseAfter {
			return ""
		}
		return fmt.Sprintf("[Watcher] Brew paused for %s at %s of %s. The bed is cooling.",
			inState.Round(time.Second), clockFmt(st.Snapshot.Elapsed), clockFmt(st.Total))

	case domain.StateCompleted:
		// One reminder per completion.
		if inState < w.pauseAfter || w.nudgedSince.Equal(st.Since) {
			return ""
		}
		return fmt.Sprintf("[Watcher] Brew finished %s ago. Reset when you're ready for the next one.",
			inState.Round(time.Second))
	}
	return ""
}

// clockFmt renders a duration as m:ss.
func clockFmt(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
