package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/recipe"
	"github.com/hammamikhairi/ottobrew/internal/storage"
	"github.com/hammamikhairi/ottobrew/internal/timer"
)

// manualClock creates tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

type manualTicker struct{ c chan time.Time }

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               {}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(time.Duration) timer.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// tick advances the clock and fires the newest ticker.
func (c *manualClock) tick(t *testing.T, d time.Duration) {
	t.Helper()
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tk := c.tickers[len(c.tickers)-1]
	c.mu.Unlock()

	select {
	case tk.c <- now:
	case <-time.After(time.Second):
		t.Fatal("tick not received")
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

type fixture struct {
	eng     *Engine
	clock   *manualClock
	recipes *recipe.MemorySource
	store   *storage.MemoryStore
	ctrl    *timer.Controller
}

func setupEngine(t *testing.T) (*fixture, context.Context) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	ctx := context.Background()

	recipes := recipe.NewMemorySource(log)
	quick := &domain.Recipe{
		ID:   "quick",
		Name: "Quick",
		Params: domain.Params{Stages: []domain.Stage{
			{Duration: domain.Seconds(2), Water: "20g", Label: "Pour"},
			{Duration: domain.Seconds(1), Style: domain.StyleWait, Label: "Drain"},
		}},
	}
	if err := recipes.Add(ctx, quick); err != nil {
		t.Fatalf("add recipe: %v", err)
	}

	clock := &manualClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	ctrl := timer.New(nil, log, timer.WithClock(clock), timer.WithCountdown(0))
	store := storage.NewMemoryStore(log)
	eng := New(recipes, store, ctrl, log, WithNow(clock.Now))

	t.Cleanup(func() {
		eng.Close()
		ctrl.Close()
	})
	return &fixture{eng: eng, clock: clock, recipes: recipes, store: store, ctrl: ctrl}, ctx
}

func (f *fixture) elapsedIs(d time.Duration) func() bool {
	return func() bool { return f.eng.Status().Snapshot.Elapsed == d }
}

func (f *fixture) latest(t *testing.T, ctx context.Context) *domain.Session {
	t.Helper()
	sessions, err := f.eng.RecentSessions(ctx, 1)
	if err != nil {
		t.Fatalf("recent sessions: %v", err)
	}
	if len(sessions) == 0 {
		t.Fatal("no sessions recorded")
	}
	return sessions[0]
}

func TestSelectRecipe(t *testing.T) {
	f, ctx := setupEngine(t)

	tests := []struct {
		name    string
		id      string
		wantErr error
		total   time.Duration
	}{
		{"canonical", "quick", nil, 3 * time.Second},
		{"legacy", "kalita-wave", nil, 180 * time.Second},
		{"espresso", "espresso-double", nil, 28 * time.Second},
		{"unknown", "nonexistent", domain.ErrNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := f.eng.SelectRecipe(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.ID != tt.id || f.eng.Recipe().ID != tt.id {
				t.Fatalf("selected %s, want %s", f.eng.Recipe().ID, tt.id)
			}
			st := f.eng.Status()
			if st.State != domain.StateIdle || st.Total != tt.total {
				t.Fatalf("unexpected status %+v", st)
			}
		})
	}
}

func TestStartWithoutRecipe(t *testing.T) {
	f, ctx := setupEngine(t)
	if err := f.eng.Start(ctx); !errors.Is(err, domain.ErrNoRecipe) {
		t.Fatalf("expected ErrNoRecipe, got %v", err)
	}
	if _, err := f.eng.ExportLegacy(); !errors.Is(err, domain.ErrNoRecipe) {
		t.Fatalf("expected ErrNoRecipe from export, got %v", err)
	}
}

func TestBrewLifecycleRecordsSession(t *testing.T) {
	f, ctx := setupEngine(t)
	if _, err := f.eng.SelectRecipe(ctx, "quick"); err != nil {
		t.Fatalf("select: %v", err)
	}

	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	s := f.latest(t, ctx)
	if s.Status != domain.SessionActive || s.RecipeID != "quick" || s.Total != 3*time.Second || s.ID == "" {
		t.Fatalf("unexpected session after start %+v", s)
	}
	id := s.ID

	f.clock.tick(t, time.Second)
	waitUntil(t, "1s elapsed", f.elapsedIs(time.Second))

	if err := f.eng.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	s = f.latest(t, ctx)
	if s.ID != id || s.Status != domain.SessionPaused || s.Elapsed != time.Second {
		t.Fatalf("unexpected session after pause %+v", s)
	}

	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s = f.latest(t, ctx); s.ID != id || s.Status != domain.SessionActive {
		t.Fatalf("resume should continue the same session, got %+v", s)
	}

	f.clock.tick(t, 2*time.Second)
	waitUntil(t, "session completed", func() bool {
		s := f.latest(t, ctx)
		return s.Status == domain.SessionCompleted
	})
	s = f.latest(t, ctx)
	if s.ID != id || s.Elapsed != 3*time.Second {
		t.Fatalf("unexpected completed session %+v", s)
	}

	// Starting again is a new brew.
	f.clock.advance(time.Minute)
	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if s = f.latest(t, ctx); s.ID == id || s.Status != domain.SessionActive {
		t.Fatalf("restart should open a new session, got %+v", s)
	}
}

func TestLateCompletionDoesNotEndNewBrew(t *testing.T) {
	f, ctx := setupEngine(t)
	if _, err := f.eng.SelectRecipe(ctx, "quick"); err != nil {
		t.Fatalf("select: %v", err)
	}

	// Hold the tick goroutine inside the completion flush, before the
	// engine has seen OnComplete.
	held := make(chan struct{})
	release := make(chan struct{})
	delivered := make(chan timer.Completion, 1)
	var once sync.Once
	unsubscribe := f.ctrl.Subscribe(timer.ObserverFuncs{
		StateChanged: func(s domain.BrewState) {
			if s != domain.StateCompleted {
				return
			}
			once.Do(func() {
				close(held)
				<-release
			})
		},
		Complete: func(done timer.Completion) {
			select {
			case delivered <- done:
			default:
			}
		},
	})
	defer unsubscribe()

	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := f.latest(t, ctx).ID

	f.clock.tick(t, 3*time.Second)
	select {
	case <-held:
	case <-time.After(time.Second):
		t.Fatal("completion flush not reached")
	}

	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	close(release)

	var done timer.Completion
	select {
	case done = <-delivered:
	case <-time.After(time.Second):
		t.Fatal("completion not delivered")
	}
	if done.Run == f.eng.Status().Run {
		t.Fatalf("late completion carries the current run %d", done.Run)
	}

	if st := f.eng.Status().State; st != domain.StateRunning {
		t.Fatalf("expected the new brew running, got %s", st)
	}
	all, err := f.eng.RecentSessions(ctx, 0)
	if err != nil {
		t.Fatalf("recent sessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}
	for _, s := range all {
		if s.ID == first {
			if s.Status != domain.SessionCompleted || s.Elapsed != 3*time.Second {
				t.Fatalf("first brew should be completed at 3s, got %+v", s)
			}
			continue
		}
		if s.Status != domain.SessionActive || s.Elapsed != 0 {
			t.Fatalf("new brew should still be active, got %+v", s)
		}
	}
}

func TestResetAbandonsBrew(t *testing.T) {
	f, ctx := setupEngine(t)
	if _, err := f.eng.SelectRecipe(ctx, "quick"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.clock.tick(t, time.Second)
	waitUntil(t, "1s elapsed", f.elapsedIs(time.Second))

	if err := f.eng.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	s := f.latest(t, ctx)
	if s.Status != domain.SessionAbandoned || s.Elapsed != time.Second {
		t.Fatalf("expected abandoned session at 1s, got %+v", s)
	}
	if st := f.eng.Status(); st.State != domain.StateIdle {
		t.Fatalf("expected idle timer, got %s", st.State)
	}

	// Reset with nothing running records nothing new.
	if err := f.eng.Reset(ctx); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	all, _ := f.eng.RecentSessions(ctx, 0)
	if len(all) != 1 {
		t.Fatalf("expected 1 session, got %d", len(all))
	}
}

func TestSelectAbandonsRunningBrew(t *testing.T) {
	f, ctx := setupEngine(t)
	if _, err := f.eng.SelectRecipe(ctx, "quick"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.eng.SelectRecipe(ctx, "v60-4-6"); err != nil {
		t.Fatalf("select: %v", err)
	}
	s := f.latest(t, ctx)
	if s.RecipeID != "quick" || s.Status != domain.SessionAbandoned {
		t.Fatalf("expected the quick brew to be abandoned, got %+v", s)
	}
}

func TestSkipCompletesSession(t *testing.T) {
	f, ctx := setupEngine(t)
	if _, err := f.eng.SelectRecipe(ctx, "quick"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.eng.Skip(ctx); !errors.Is(err, domain.ErrCannotSkip) {
		t.Fatalf("skip while idle: expected ErrCannotSkip, got %v", err)
	}

	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.clock.tick(t, 2*time.Second)
	waitUntil(t, "final wait", func() bool { return f.eng.Status().CanSkip })

	if err := f.eng.Skip(ctx); err != nil {
		t.Fatalf("skip: %v", err)
	}
	s := f.latest(t, ctx)
	if s.Status != domain.SessionCompleted || s.Elapsed != 3*time.Second {
		t.Fatalf("expected completed session at 3s, got %+v", s)
	}
}

func TestTimelineCache(t *testing.T) {
	f, ctx := setupEngine(t)

	r, err := f.recipes.Get(ctx, "v60-4-6")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first := f.eng.Timeline(r)
	second := f.eng.Timeline(r)
	if f.eng.cache.Len() != 1 {
		t.Fatalf("expected 1 cached timeline, got %d", f.eng.cache.Len())
	}
	if first.Len() != second.Len() || first.Total() != second.Total() {
		t.Fatal("cached timeline differs from the built one")
	}

	changed := *r
	changed.Params.Stages = changed.Params.Stages[:2]
	if err := f.recipes.Update(ctx, &changed); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := f.eng.Timeline(&changed); got.Len() != 2 {
		t.Fatalf("new version should rebuild, got %d segments", got.Len())
	}
	if f.eng.cache.Len() != 2 {
		t.Fatalf("expected 2 cached timelines, got %d", f.eng.cache.Len())
	}
}

func TestExportLegacy(t *testing.T) {
	f, ctx := setupEngine(t)
	if _, err := f.eng.SelectRecipe(ctx, "v60-4-6"); err != nil {
		t.Fatalf("select: %v", err)
	}

	stages, err := f.eng.ExportLegacy()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(stages) != 5 {
		t.Fatalf("expected 5 legacy stages, got %d", len(stages))
	}
	first, last := stages[0], stages[4]
	if *first.Time != 45 || *first.PourTime != 10 || first.Water != "60g" {
		t.Fatalf("unexpected first stage %+v", first)
	}
	if *last.Time != 235 || last.Water != "300g" {
		t.Fatalf("unexpected last stage %+v", last)
	}
}

func TestSetSound(t *testing.T) {
	f, _ := setupEngine(t)
	f.eng.SetSound(false)
	if f.ctrl.Settings().SoundEnabled {
		t.Fatal("sound should be off")
	}
	f.eng.SetSound(true)
	if !f.ctrl.Settings().SoundEnabled {
		t.Fatal("sound should be on")
	}
}
