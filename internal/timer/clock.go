package timer

import "time"

// Ticker is a recurring tick source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock tells the time and creates tickers. The controller only reads
// time through its Clock so tests can drive it tick by tick.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// NewTicker wraps time.NewTicker.
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// loopKind says which of the two tick sources a handle drives.
type loopKind int

const (
	loopCountdown loopKind = iota
	loopMain
)

func (k loopKind) String() string {
	if k == loopCountdown {
		return "countdown"
	}
	return "main"
}

// tickHandle is one running tick loop. The controller holds at most one;
// a tick delivered for any other handle is discarded.
type tickHandle struct {
	id     uint64
	kind   loopKind
	ticker Ticker
	stop   chan struct{}
	last   time.Time // previous main-loop tick, for wall-clock deltas
}
