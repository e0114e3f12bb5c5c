package timer

import (
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
)

// StageChange is emitted when the active segment changes between ticks.
type StageChange struct {
	Index     int
	Count     int // number of segments in the timeline
	IsWaiting bool
	Label     string
	Water     float64 // cumulative target at the end of the new segment
}

// Completion is emitted once when a brew finishes, naturally or by skip.
// Events are delivered after the controller's lock is released, so a
// completion can reach an observer after a newer run has started. Run
// tells them apart: it changes each time a brew starts from Idle.
type Completion struct {
	Elapsed time.Duration
	Skipped bool
	Run     uint64
}

// Observer receives controller output. Methods are called from the tick
// goroutine or from the goroutine calling a controller method, never while
// the controller's lock is held, so they may call back into the controller.
type Observer interface {
	OnSnapshot(snap timeline.Snapshot)
	OnStageChanged(change StageChange)
	OnCountdown(value *int) // nil when no countdown is showing
	OnComplete(done Completion)
	OnStateChanged(state domain.BrewState)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	Snapshot     func(timeline.Snapshot)
	StageChanged func(StageChange)
	Countdown    func(*int)
	Complete     func(Completion)
	StateChanged func(domain.BrewState)
}

// Compile-time interface check.
var _ Observer = ObserverFuncs{}

func (f ObserverFuncs) OnSnapshot(s timeline.Snapshot) {
	if f.Snapshot != nil {
		f.Snapshot(s)
	}
}

func (f ObserverFuncs) OnStageChanged(c StageChange) {
	if f.StageChanged != nil {
		f.StageChanged(c)
	}
}

func (f ObserverFuncs) OnCountdown(v *int) {
	if f.Countdown != nil {
		f.Countdown(v)
	}
}

func (f ObserverFuncs) OnComplete(d Completion) {
	if f.Complete != nil {
		f.Complete(d)
	}
}

func (f ObserverFuncs) OnStateChanged(s domain.BrewState) {
	if f.StateChanged != nil {
		f.StateChanged(s)
	}
}
