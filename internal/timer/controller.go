// Package timer implements the brew timer: a countdown followed by a
// one-second tick loop over a timeline, emitting snapshots, stage changes
// and audio/haptic cues.
package timer

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
)

// Option configures the controller.
type Option func(*Controller)

// WithTickInterval sets how often the loops tick.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.tickInterval = d
	}
}

// WithCountdown sets the number of countdown seconds before a fresh brew
// starts running. Zero starts immediately.
func WithCountdown(n int) Option {
	return func(c *Controller) {
		c.countdownFrom = max(0, n)
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithSettings sets the initial sound/haptics preferences.
func WithSettings(s domain.Settings) Option {
	return func(c *Controller) {
		c.settings = s
	}
}

// Status is a consistent view of the controller at one moment.
type Status struct {
	State     domain.BrewState
	Snapshot  timeline.Snapshot
	Countdown *int
	Total     time.Duration
	CanSkip   bool
	Completed bool      // a completion is showing and has not been reset
	Since     time.Time // when State was entered
	Run       uint64    // brew run the state belongs to, see Completion.Run
}

// Controller drives one brew session against a timeline. At most one tick
// loop (countdown or main) is active at any moment; installing a loop
// cancels the previous one under the same lock.
type Controller struct {
	clock         Clock
	cues          domain.CueDispatcher
	log           *logger.Logger
	tickInterval  time.Duration
	countdownFrom int

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	settings  domain.Settings
	tl        timeline.Timeline
	state     domain.BrewState
	since     time.Time
	elapsed   time.Duration
	countdown int
	lastIndex int
	completed bool
	run       uint64
	handle    *tickHandle
	handleSeq uint64
	observers []subscription
	obsSeq    uint64

	// tickHook runs after every delivered tick. Tests use it to wait for
	// tick processing.
	tickHook func()
}

// New creates a controller. cues may be nil, in which case no cues are
// played.
func New(cues domain.CueDispatcher, log *logger.Logger, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		clock:         SystemClock{},
		cues:          cues,
		log:           log,
		tickInterval:  1 * time.Second,
		countdownFrom: 3,
		settings:      domain.DefaultSettings(),
		ctx:           ctx,
		cancel:        cancel,
		lastIndex:     timeline.NoSegment,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.since = c.clock.Now()
	return c
}

type subscription struct {
	id uint64
	o  Observer
}

// Subscribe registers an observer. Observers are called in subscription
// order. The returned function removes it.
func (c *Controller) Subscribe(o Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obsSeq++
	id := c.obsSeq
	c.observers = append(c.observers, subscription{id: id, o: o})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.observers = slices.DeleteFunc(c.observers, func(s subscription) bool { return s.id == id })
	}
}

// SetSettings replaces the sound/haptics preferences. Takes effect on the
// next cue.
func (c *Controller) SetSettings(s domain.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

// Settings returns the current preferences.
func (c *Controller) Settings() domain.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Load replaces the timeline and resets the session.
func (c *Controller) Load(tl timeline.Timeline) {
	c.mu.Lock()
	var out outbox
	c.tl = tl
	c.resetLocked(&out)
	c.log.Debug("loaded timeline: %d segments, %s", tl.Len(), tl.Total())
	c.unlockAndFlush(&out)
}

// Timeline returns the current timeline. Callers must not modify it.
func (c *Controller) Timeline() timeline.Timeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tl
}

// Start begins or resumes the brew. From Idle (or after a completion,
// which is reset first) it runs the countdown. From Paused with time on
// the clock it resumes immediately. Starting while the countdown or the
// brew is already running does nothing. An empty timeline cannot start.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.tl.Empty() {
		c.mu.Unlock()
		c.log.Warn("start ignored: empty timeline")
		return domain.ErrEmptyTimeline
	}

	var out outbox
	switch c.state {
	case domain.StateCountdown, domain.StateRunning:
		c.mu.Unlock()
		return nil
	case domain.StateCompleted:
		c.resetLocked(&out)
	}
	if c.state == domain.StateIdle {
		c.run++
	}

	switch {
	case c.state == domain.StatePaused && c.elapsed > 0:
		out.cue(domain.CueStart)
		out.haptic(domain.HapticLight)
		c.enterRunningLocked(&out)
		c.log.Info("resumed at %s", c.elapsed)
	case c.countdownFrom == 0:
		out.cue(domain.CueStart)
		out.haptic(domain.HapticLight)
		c.enterRunningLocked(&out)
		c.log.Info("started without countdown")
	default:
		c.countdown = c.countdownFrom
		c.setStateLocked(&out, domain.StateCountdown)
		c.emitCountdownLocked(&out)
		out.cue(domain.CueTick)
		c.installLocked(loopCountdown)
		c.log.Info("countdown from %d", c.countdown)
	}
	c.unlockAndFlush(&out)
	return nil
}

// Pause stops the running brew, keeping the elapsed time.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.state != domain.StateRunning {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	var out outbox
	c.cancelLocked()
	c.setStateLocked(&out, domain.StatePaused)
	c.log.Info("paused at %s", c.elapsed)
	c.unlockAndFlush(&out)
	return nil
}

// Reset stops any loop, zeroes the clock and returns to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	var out outbox
	c.resetLocked(&out)
	c.log.Info("reset")
	c.unlockAndFlush(&out)
}

// Skip finishes the brew now. It is allowed while running in a final wait
// segment, or while paused with time on the clock.
func (c *Controller) Skip() error {
	c.mu.Lock()
	if !c.canSkipLocked() {
		c.mu.Unlock()
		return domain.ErrCannotSkip
	}
	var out outbox
	out.haptic(domain.HapticWarning)
	c.cancelLocked()
	c.elapsed = c.tl.Total()
	c.publishLocked(&out)
	c.completeLocked(&out, true)
	c.log.Info("skipped to end (%s)", c.elapsed)
	c.unlockAndFlush(&out)
	return nil
}

// Status returns the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		State:     c.state,
		Snapshot:  timeline.SnapshotAt(c.tl, c.elapsed),
		Total:     c.tl.Total(),
		CanSkip:   c.canSkipLocked(),
		Completed: c.completed,
		Since:     c.since,
		Run:       c.run,
	}
	if c.state == domain.StateCountdown {
		n := c.countdown
		st.Countdown = &n
	}
	return st
}

// Close stops any loop for good and cancels in-flight cue calls.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
	c.cancel()
}

// ── loops ────────────────────────────────────────────────────────

// installLocked cancels the current loop and starts a new one.
func (c *Controller) installLocked(kind loopKind) {
	c.cancelLocked()
	c.handleSeq++
	h := &tickHandle{
		id:     c.handleSeq,
		kind:   kind,
		ticker: c.clock.NewTicker(c.tickInterval),
		stop:   make(chan struct{}),
		last:   c.clock.Now(),
	}
	c.handle = h
	go c.loop(h)
	c.log.Debug("installed %s loop #%d", kind, h.id)
}

func (c *Controller) cancelLocked() {
	h := c.handle
	if h == nil {
		return
	}
	c.handle = nil
	close(h.stop)
	h.ticker.Stop()
	c.log.Debug("cancelled %s loop #%d", h.kind, h.id)
}

func (c *Controller) loop(h *tickHandle) {
	for {
		select {
		case <-h.stop:
			return
		case now := <-h.ticker.C():
			c.onTick(h, now)
		}
	}
}

func (c *Controller) onTick(h *tickHandle, now time.Time) {
	if c.tickHook != nil {
		defer c.tickHook()
	}

	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		c.log.Debug("dropped stale tick for %s loop #%d", h.kind, h.id)
		return
	}

	var out outbox
	switch h.kind {
	case loopCountdown:
		c.countdownTickLocked(&out)
	case loopMain:
		delta := now.Sub(h.last)
		h.last = now
		c.runTickLocked(&out, max(0, delta))
	}
	c.unlockAndFlush(&out)
}

func (c *Controller) countdownTickLocked(out *outbox) {
	c.countdown--
	if c.countdown > 0 {
		c.emitCountdownLocked(out)
		out.cue(domain.CueTick)
		return
	}
	c.countdown = 0
	out.cue(domain.CueReady)
	out.haptic(domain.HapticMedium)
	c.enterRunningLocked(out)
}

func (c *Controller) runTickLocked(out *outbox, delta time.Duration) {
	total := c.tl.Total()
	c.elapsed = min(c.elapsed+delta, total)
	c.publishLocked(out)
	if c.elapsed >= total {
		c.completeLocked(out, false)
	}
}

// ── transitions ──────────────────────────────────────────────────

func (c *Controller) enterRunningLocked(out *outbox) {
	c.setStateLocked(out, domain.StateRunning)
	c.emitCountdownLocked(out)
	if c.lastIndex == timeline.NoSegment {
		c.lastIndex = timeline.ActiveSegmentIndex(c.tl, c.elapsed)
	}
	snap := timeline.SnapshotAt(c.tl, c.elapsed)
	out.emit(func(o Observer) { o.OnSnapshot(snap) })
	c.installLocked(loopMain)
}

func (c *Controller) completeLocked(out *outbox, skipped bool) {
	c.cancelLocked()
	c.completed = true
	c.setStateLocked(out, domain.StateCompleted)
	done := Completion{Elapsed: c.elapsed, Skipped: skipped, Run: c.run}
	out.emit(func(o Observer) { o.OnComplete(done) })
	out.cue(domain.CueComplete)
	out.haptic(domain.HapticSuccess)
	c.log.Info("brew complete at %s", c.elapsed)
}

func (c *Controller) resetLocked(out *outbox) {
	c.cancelLocked()
	c.elapsed = 0
	c.countdown = 0
	c.completed = false
	c.lastIndex = timeline.NoSegment
	c.setStateLocked(out, domain.StateIdle)
	c.emitCountdownLocked(out)
	snap := timeline.SnapshotAt(c.tl, 0)
	out.emit(func(o Observer) { o.OnSnapshot(snap) })
}

func (c *Controller) setStateLocked(out *outbox, s domain.BrewState) {
	if c.state == s {
		return
	}
	c.log.Debug("state %s -> %s", c.state, s)
	c.state = s
	c.since = c.clock.Now()
	out.emit(func(o Observer) { o.OnStateChanged(s) })
}

// publishLocked emits the snapshot for the current elapsed time and a
// stage change if the active segment moved since the last publish.
func (c *Controller) publishLocked(out *outbox) {
	snap := timeline.SnapshotAt(c.tl, c.elapsed)
	out.emit(func(o Observer) { o.OnSnapshot(snap) })

	if snap.Index == c.lastIndex || snap.Index == timeline.NoSegment {
		return
	}
	c.lastIndex = snap.Index
	info := c.tl.At(snap.Index).Info()
	change := StageChange{
		Index:     snap.Index,
		Count:     c.tl.Len(),
		IsWaiting: snap.Waiting,
		Label:     info.Label,
		Water:     info.Water,
	}
	out.emit(func(o Observer) { o.OnStageChanged(change) })
	out.cue(domain.CueTick)
	out.haptic(domain.HapticLight)
	c.log.Debug("stage %d/%d: %s", change.Index+1, change.Count, change.Label)
}

func (c *Controller) emitCountdownLocked(out *outbox) {
	if c.state != domain.StateCountdown {
		out.emit(func(o Observer) { o.OnCountdown(nil) })
		return
	}
	n := c.countdown
	out.emit(func(o Observer) { o.OnCountdown(&n) })
}

func (c *Controller) canSkipLocked() bool {
	if c.tl.Empty() {
		return false
	}
	switch c.state {
	case domain.StateRunning:
		i := timeline.ActiveSegmentIndex(c.tl, c.elapsed)
		return i == c.tl.Len()-1 && timeline.IsWait(c.tl.At(i))
	case domain.StatePaused:
		return c.elapsed > 0
	default:
		return false
	}
}

// ── side effects ─────────────────────────────────────────────────

// outbox collects everything a transition wants to tell the outside
// world. It is flushed after the lock is released.
type outbox struct {
	events  []func(Observer)
	cues    []domain.CueKind
	haptics []domain.HapticKind
}

func (o *outbox) emit(f func(Observer))       { o.events = append(o.events, f) }
func (o *outbox) cue(k domain.CueKind)        { o.cues = append(o.cues, k) }
func (o *outbox) haptic(k domain.HapticKind) { o.haptics = append(o.haptics, k) }

func (c *Controller) unlockAndFlush(out *outbox) {
	observers := make([]Observer, len(c.observers))
	for i, s := range c.observers {
		observers[i] = s.o
	}
	settings := c.settings
	c.mu.Unlock()

	for _, ev := range out.events {
		for _, o := range observers {
			c.deliver(o, ev)
		}
	}

	if c.cues == nil {
		return
	}
	if settings.SoundEnabled {
		for _, k := range out.cues {
			c.playCue(k)
		}
	}
	if settings.Haptics() {
		for _, k := range out.haptics {
			c.triggerHaptic(k)
		}
	}
}

func (c *Controller) deliver(o Observer, ev func(Observer)) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("observer panicked: %v", r)
		}
	}()
	ev(o)
}

func (c *Controller) playCue(k domain.CueKind) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("cue %s panicked: %v", k, r)
		}
	}()
	if err := c.cues.PlayCue(c.ctx, k); err != nil {
		c.log.Error("playing cue %s: %v", k, err)
	}
}

func (c *Controller) triggerHaptic(k domain.HapticKind) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("haptic %s panicked: %v", k, r)
		}
	}()
	if err := c.cues.TriggerHaptic(c.ctx, k); err != nil {
		c.log.Error("triggering haptic %s: %v", k, err)
	}
}
