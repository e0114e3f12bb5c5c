package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
)

// NotifyObserver turns controller events into user-facing messages. It is
// what the plain terminal mode shows instead of a progress bar.
type NotifyObserver struct {
	notifier domain.Notifier
	log      *logger.Logger
}

// Compile-time interface check.
var _ Observer = (*NotifyObserver)(nil)

// NewNotifyObserver creates an observer that reports through notifier.
func NewNotifyObserver(notifier domain.Notifier, log *logger.Logger) *NotifyObserver {
	return &NotifyObserver{notifier: notifier, log: log}
}

// OnSnapshot is too frequent to report.
func (n *NotifyObserver) OnSnapshot(timeline.Snapshot) {}

func (n *NotifyObserver) OnStageChanged(c StageChange) {
	action := "pour to"
	if c.IsWaiting {
		action = "hold at"
	}
	n.say(fmt.Sprintf("[Timer] Stage %d/%d: %s, %s %s.", c.Index+1, c.Count, c.Label, action, grams(c.Water)), false)
}

func (n *NotifyObserver) OnCountdown(v *int) {
	if v == nil {
		return
	}
	n.say(fmt.Sprintf("[Timer] %d...", *v), false)
}

func (n *NotifyObserver) OnComplete(d Completion) {
	if d.Skipped {
		n.say(fmt.Sprintf("[Timer] Skipped to the end. Brew done at %s.", clockFmt(d.Elapsed)), true)
		return
	}
	n.say(fmt.Sprintf("[Timer] Brew complete in %s. Enjoy.", clockFmt(d.Elapsed)), true)
}

func (n *NotifyObserver) OnStateChanged(s domain.BrewState) {
	switch s {
	case domain.StateRunning:
		n.say("[Timer] Brewing.", false)
	case domain.StatePaused:
		n.say("[Timer] Paused.", false)
	}
}

func (n *NotifyObserver) say(msg string, urgent bool) {
	// Observers run outside any request; messages are short and local.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	if urgent {
		err = n.notifier.NotifyUrgent(ctx, msg)
	} else {
		err = n.notifier.Notify(ctx, msg)
	}
	if err != nil {
		n.log.Error("timer notify: %v", err)
	}
}

func grams(w float64) string {
	return fmt.Sprintf("%gg", w)
}
