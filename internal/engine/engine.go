// Package engine ties recipes, the timeline builder and the brew timer
// together and keeps a record of every brew.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/migrate"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
	"github.com/hammamikhairi/ottobrew/internal/timer"
)

// Option configures the engine.
type Option func(*Engine)

// WithCacheSize sets how many built timelines are kept.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithNow replaces the wall clock used for session timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine manages the selected recipe and its brew sessions. It depends
// only on interfaces and the timer controller, and is fully testable with
// mocks.
type Engine struct {
	recipes domain.RecipeSource
	store   domain.SessionStore
	timer   *timer.Controller
	log     *logger.Logger

	cacheSize int
	cache     *lru.Cache[string, timeline.Timeline]
	now       func() time.Time

	unsubscribe func()

	mu      sync.Mutex
	recipe  *domain.Recipe
	session *domain.Session // record of the brew in progress, nil when idle
	run     uint64          // timer run the session belongs to
}

// New creates a brew engine driving ctrl.
func New(recipes domain.RecipeSource, store domain.SessionStore, ctrl *timer.Controller, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		recipes:   recipes,
		store:     store,
		timer:     ctrl,
		log:       log,
		cacheSize: 32,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	// lru.New only fails for a non-positive size.
	e.cache, _ = lru.New[string, timeline.Timeline](max(1, e.cacheSize))
	e.unsubscribe = ctrl.Subscribe(timer.ObserverFuncs{Complete: e.onComplete})
	return e
}

// Close detaches the engine from the timer.
func (e *Engine) Close() {
	e.unsubscribe()
}

// ListRecipes returns all available recipes.
func (e *Engine) ListRecipes(ctx context.Context) ([]domain.RecipeSummary, error) {
	return e.recipes.List(ctx)
}

// SearchRecipes returns recipes matching query.
func (e *Engine) SearchRecipes(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	return e.recipes.Search(ctx, query)
}

// Recipe returns the selected recipe, or nil.
func (e *Engine) Recipe() *domain.Recipe {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recipe
}

// Timeline returns the timeline for recipe, building it on first use.
// Timelines are cached by recipe ID and version.
func (e *Engine) Timeline(recipe *domain.Recipe) timeline.Timeline {
	key := fmt.Sprintf("%s@%d", recipe.ID, recipe.Version)
	if tl, ok := e.cache.Get(key); ok {
		e.log.Debug("timeline cache hit: %s", key)
		return tl
	}
	tl := timeline.Build(recipe, timeline.WithLogger(e.log))
	e.cache.Add(key, tl)
	e.log.Debug("built timeline %s: %d segments, %s", key, tl.Len(), tl.Total())
	return tl
}

// SelectRecipe loads a recipe into the timer. A brew in progress is
// abandoned.
func (e *Engine) SelectRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	recipe, err := e.recipes.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	tl := e.Timeline(recipe)

	e.timer.Load(tl)

	e.mu.Lock()
	prev := e.endSessionLocked(domain.SessionAbandoned)
	e.recipe = recipe
	e.mu.Unlock()

	if err := e.save(ctx, prev); err != nil {
		return nil, err
	}
	if tl.Empty() {
		e.log.Warn("recipe %s has no timed stages", recipe.ID)
	}
	e.log.Info("selected recipe %q (%d segments, %s)", recipe.Name, tl.Len(), tl.Total())
	return recipe, nil
}

// Start begins a new brew, or resumes a paused one.
//
// The engine lock is held across the timer call so the new session is
// tagged with the run the timer actually started.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.recipe == nil {
		e.mu.Unlock()
		return domain.ErrNoRecipe
	}
	before := e.timer.Status().State
	if err := e.timer.Start(); err != nil {
		e.mu.Unlock()
		return err
	}
	run := e.timer.Status().Run

	now := e.now()
	var prev, rec *domain.Session
	switch {
	case e.session != nil && run == e.run && before == domain.StatePaused:
		e.session.Status = domain.SessionActive
		e.session.UpdatedAt = now
		rec = e.recordLocked()
	case e.session == nil || run != e.run:
		if e.session != nil {
			status := domain.SessionAbandoned
			if before == domain.StateCompleted {
				// The previous run finished but its completion has
				// not been delivered yet.
				status = domain.SessionCompleted
				e.session.Elapsed = e.session.Total
			}
			prev = e.endSessionLocked(status)
		}
		e.run = run
		e.session = &domain.Session{
			ID:         uuid.NewString(),
			RecipeID:   e.recipe.ID,
			RecipeName: e.recipe.Name,
			Status:     domain.SessionActive,
			Total:      e.timer.Timeline().Total(),
			StartedAt:  now,
			UpdatedAt:  now,
		}
		rec = e.recordLocked()
		e.log.Info("brew session %s started for %q", rec.ID, rec.RecipeName)
	}
	e.mu.Unlock()

	if err := e.save(ctx, prev); err != nil {
		return err
	}
	return e.save(ctx, rec)
}

// Pause pauses the running brew.
func (e *Engine) Pause(ctx context.Context) error {
	if err := e.timer.Pause(); err != nil {
		return err
	}
	elapsed := e.timer.Status().Snapshot.Elapsed

	e.mu.Lock()
	if e.session != nil {
		e.session.Status = domain.SessionPaused
		e.session.Elapsed = elapsed
		e.session.UpdatedAt = e.now()
	}
	rec := e.recordLocked()
	e.mu.Unlock()

	return e.save(ctx, rec)
}

// Skip finishes the brew early. The session is recorded as completed by
// the timer's completion event.
func (e *Engine) Skip(ctx context.Context) error {
	return e.timer.Skip()
}

// Reset stops the timer. An unfinished brew is recorded as abandoned.
func (e *Engine) Reset(ctx context.Context) error {
	elapsed := e.timer.Status().Snapshot.Elapsed
	e.timer.Reset()

	e.mu.Lock()
	if e.session != nil {
		e.session.Elapsed = elapsed
	}
	rec := e.endSessionLocked(domain.SessionAbandoned)
	e.mu.Unlock()

	return e.save(ctx, rec)
}

// Status returns the timer status.
func (e *Engine) Status() timer.Status {
	return e.timer.Status()
}

// SetSound turns cue audio on or off, keeping the haptics preferences.
func (e *Engine) SetSound(enabled bool) {
	s := e.timer.Settings()
	s.SoundEnabled = enabled
	e.timer.SetSettings(s)
	e.log.Info("sound %s", onOff(enabled))
}

// SoundEnabled reports whether cue audio is on.
func (e *Engine) SoundEnabled() bool {
	return e.timer.Settings().SoundEnabled
}

// ExportLegacy returns the selected recipe's stages in the legacy
// cumulative schema.
func (e *Engine) ExportLegacy() ([]domain.Stage, error) {
	r := e.Recipe()
	if r == nil {
		return nil, domain.ErrNoRecipe
	}
	return migrate.ToLegacyFormat(migrate.AutoMigrateStages(r.Params.Stages)), nil
}

// RecentSessions returns up to limit brew records, newest first.
func (e *Engine) RecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	sessions, err := e.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// onComplete records the finished brew. It runs on the timer's goroutine.
func (e *Engine) onComplete(done timer.Completion) {
	e.mu.Lock()
	if done.Run != e.run {
		e.mu.Unlock()
		e.log.Debug("ignoring completion of earlier run %d", done.Run)
		return
	}
	if e.session != nil {
		e.session.Elapsed = done.Elapsed
	}
	rec := e.endSessionLocked(domain.SessionCompleted)
	e.mu.Unlock()

	if rec == nil {
		return
	}
	if err := e.save(context.Background(), rec); err != nil {
		e.log.Error("recording completed session: %v", err)
		return
	}
	e.log.Info("brew session %s completed in %s (skipped=%v)", rec.ID, done.Elapsed, done.Skipped)
}

// endSessionLocked closes the current record with status and returns a
// copy for saving, or nil if there was none.
func (e *Engine) endSessionLocked(status domain.SessionStatus) *domain.Session {
	if e.session == nil {
		return nil
	}
	e.session.Status = status
	e.session.UpdatedAt = e.now()
	rec := e.recordLocked()
	e.session = nil
	return rec
}

// recordLocked returns a copy of the current record, or nil.
func (e *Engine) recordLocked() *domain.Session {
	if e.session == nil {
		return nil
	}
	rec := *e.session
	return &rec
}

func (e *Engine) save(ctx context.Context, rec *domain.Session) error {
	if rec == nil {
		return nil
	}
	if err := e.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
