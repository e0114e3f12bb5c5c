package timer

import (
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

func TestNotifyObserverMessages(t *testing.T) {
	notifier := &collectingNotifier{}
	obs := NewNotifyObserver(notifier, logger.New(logger.LevelOff, nil))

	three := 3
	obs.OnCountdown(&three)
	obs.OnCountdown(nil)
	obs.OnStateChanged(domain.StateRunning)
	obs.OnStageChanged(StageChange{Index: 1, Count: 4, IsWaiting: true, Label: "Rest", Water: 50})
	obs.OnStageChanged(StageChange{Index: 2, Count: 4, Label: "Main", Water: 212.5})
	obs.OnComplete(Completion{Elapsed: 185 * time.Second})

	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	want := []string{
		"[Timer] 3...",
		"[Timer] Brewing.",
		"[Timer] Stage 2/4: Rest, hold at 50g.",
		"[Timer] Stage 3/4: Main, pour to 212.5g.",
	}
	if len(notifier.messages) != len(want) {
		t.Fatalf("messages = %q, want %q", notifier.messages, want)
	}
	for i := range want {
		if notifier.messages[i] != want[i] {
			t.Fatalf("message %d = %q, want %q", i, notifier.messages[i], want[i])
		}
	}
	if len(notifier.urgent) != 1 || !strings.Contains(notifier.urgent[0], "3:05") {
		t.Fatalf("completion should be urgent and show 3:05, got %q", notifier.urgent)
	}
}
