package timer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
)

// collectingNotifier captures messages for assertions.
type collectingNotifier struct {
	mu       sync.Mutex
	messages []string
	urgent   []string
}

func (n *collectingNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *collectingNotifier) NotifyUrgent(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, msg)
	return nil
}

func (n *collectingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func (n *collectingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

type staticStatus struct{ st Status }

func (s *staticStatus) Status() Status { return s.st }

func TestWatcherPausedBrewNudge(t *testing.T) {
	clock := newFakeClock()
	notifier := &collectingNotifier{}
	source := &staticStatus{st: Status{
		State:    domain.StatePaused,
		Since:    clock.Now(),
		Total:    3 * time.Minute,
		Snapshot: timeline.Snapshot{Elapsed: 75 * time.Second},
	}}
	w := NewWatcher(source, notifier, logger.New(logger.LevelOff, nil),
		WithWatchClock(clock), WithPauseNudge(time.Minute))
	ctx := context.Background()

	clock.advance(30 * time.Second)
	w.check(ctx)
	if notifier.count() != 0 {
		t.Fatalf("should not nudge before the threshold, got %q", notifier.last())
	}

	clock.advance(40 * time.Second)
	w.check(ctx)
	if notifier.count() != 1 {
		t.Fatalf("expected one nudge, got %d", notifier.count())
	}
	if msg := notifier.last(); !strings.Contains(msg, "1:15 of 3:00") {
		t.Fatalf("nudge should mention the position, got %q", msg)
	}

	// Not again until another threshold has passed.
	clock.advance(30 * time.Second)
	w.check(ctx)
	if notifier.count() != 1 {
		t.Fatalf("nudged too soon, got %d messages", notifier.count())
	}
	clock.advance(31 * time.Second)
	w.check(ctx)
	if notifier.count() != 2 {
		t.Fatalf("expected a repeat nudge, got %d", notifier.count())
	}
}

func TestWatcherCompletedOnce(t *testing.T) {
	clock := newFakeClock()
	notifier := &collectingNotifier{}
	source := &staticStatus{st: Status{State: domain.StateCompleted, Since: clock.Now()}}
	w := NewWatcher(source, notifier, logger.New(logger.LevelOff, nil),
		WithWatchClock(clock), WithPauseNudge(time.Minute))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		clock.advance(time.Minute)
		w.check(ctx)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected exactly one reminder per completion, got %d", notifier.count())
	}
}

func TestWatcherQuietWhileRunning(t *testing.T) {
	clock := newFakeClock()
	notifier := &collectingNotifier{}
	source := &staticStatus{st: Status{State: domain.StateRunning, Since: clock.Now()}}
	w := NewWatcher(source, notifier, logger.New(logger.LevelOff, nil), WithWatchClock(clock))

	clock.advance(time.Hour)
	w.check(context.Background())
	if notifier.count() != 0 {
		t.Fatalf("running brew should not be nudged, got %q", notifier.last())
	}
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	notifier := &collectingNotifier{}
	source := &staticStatus{st: Status{State: domain.StateIdle}}
	w := NewWatcher(source, notifier, logger.New(logger.LevelOff, nil), WithWatchInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
