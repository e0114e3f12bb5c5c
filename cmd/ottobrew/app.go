package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/engine"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/migrate"
	"github.com/hammamikhairi/ottobrew/internal/recipe"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
)

// output is where the command loop writes. *display.UI satisfies it, and
// plainOutput does for line mode.
type output interface {
	Println(a ...any)
	Printf(format string, a ...any)
	PrintChat(text string)
	PrintHint(text string)
	PrintUrgent(text string)
}

// plainOutput writes undecorated lines. Safe for concurrent use.
type plainOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *plainOutput) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, a...)
}

func (p *plainOutput) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", a...)
}

func (p *plainOutput) PrintChat(text string)   { p.Println("  " + text) }
func (p *plainOutput) PrintHint(text string)   { p.Println("    " + text) }
func (p *plainOutput) PrintUrgent(text string) { p.Println("! " + text) }

type cliApp struct {
	engine *engine.Engine
	parser domain.CommandParser
	out    output
	log    *logger.Logger
	listed []domain.RecipeSummary // last list shown, for numeric selection
}

// run reads lines until ctx is done, the input closes or the user quits.
func (a *cliApp) run(ctx context.Context, lines <-chan string) {
	a.out.PrintChat("Welcome to OttoBrew.")
	a.showRecipes(ctx, "")

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-lines:
			if !ok {
				return
			}
		}

		cmd, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		a.log.Debug("command: %s (payload=%q)", cmd.Type, cmd.Payload)

		if cmd.Type == domain.CommandQuit {
			a.quit(ctx)
			return
		}
		a.handle(ctx, cmd)
	}
}

func (a *cliApp) handle(ctx context.Context, cmd *domain.Command) {
	switch cmd.Type {
	case domain.CommandHelp:
		a.showHelp()
	case domain.CommandList:
		a.showRecipes(ctx, cmd.Payload)
	case domain.CommandSelect:
		a.selectRecipe(ctx, cmd.Payload)
	case domain.CommandStart:
		a.start(ctx)
	case domain.CommandPause:
		a.pause(ctx)
	case domain.CommandReset:
		a.reset(ctx)
	case domain.CommandSkip:
		a.skip(ctx)
	case domain.CommandStatus:
		a.status()
	case domain.CommandStages:
		a.showStages()
	case domain.CommandExport:
		a.export()
	case domain.CommandSound:
		a.sound(cmd.Payload)
	case domain.CommandHistory:
		a.history(ctx)
	case domain.CommandUnknown:
		if cmd.Payload != "" {
			a.out.PrintHint(fmt.Sprintf("Didn't catch %q. Type 'help' for commands.", cmd.Payload))
		}
	}
}

func (a *cliApp) showRecipes(ctx context.Context, query string) {
	var (
		recipes []domain.RecipeSummary
		err     error
	)
	if query == "" {
		recipes, err = a.engine.ListRecipes(ctx)
	} else {
		recipes, err = a.engine.SearchRecipes(ctx, query)
	}
	if err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Error loading recipes: %v", err))
		return
	}
	if len(recipes) == 0 {
		a.out.PrintHint(fmt.Sprintf("No recipes match %q.", query))
		return
	}

	a.listed = recipes
	a.out.Println("")
	for i, r := range recipes {
		a.out.PrintChat(fmt.Sprintf("[%d] %s (%s)", i+1, r.Name, r.ID))
		if r.Description != "" {
			a.out.PrintHint(r.Description)
		}
		if len(r.Tags) > 0 {
			a.out.PrintHint("Tags: " + strings.Join(r.Tags, ", "))
		}
	}
	a.out.Println("")
	a.out.PrintChat("Pick a recipe by number or ID, or type 'help' for commands.")
}

// selectRecipe accepts a list number, a recipe ID, or a query with exactly
// one match.
func (a *cliApp) selectRecipe(ctx context.Context, payload string) {
	id := payload
	if n, err := strconv.Atoi(payload); err == nil {
		if n < 1 || n > len(a.listed) {
			a.out.PrintHint(fmt.Sprintf("No recipe number %d. Type 'list' to see them.", n))
			return
		}
		id = a.listed[n-1].ID
	}

	r, err := a.engine.SelectRecipe(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		matches, serr := a.engine.SearchRecipes(ctx, payload)
		if serr == nil && len(matches) == 1 {
			r, err = a.engine.SelectRecipe(ctx, matches[0].ID)
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.out.PrintHint(fmt.Sprintf("No recipe matches %q.", payload))
			return
		}
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}

	a.out.PrintChat(fmt.Sprintf("=== %s ===", r.Name))
	p := r.Params
	var facts []string
	for _, f := range []struct{ name, value string }{
		{"coffee", p.Coffee}, {"water", p.Water}, {"ratio", p.Ratio}, {"grind", p.GrindSize}, {"temp", p.Temp},
	} {
		if f.value != "" {
			facts = append(facts, f.name+" "+f.value)
		}
	}
	if len(facts) > 0 {
		a.out.PrintHint(strings.Join(facts, ", "))
	}
	tl := a.engine.Timeline(r)
	if tl.Empty() {
		a.out.PrintUrgent("This recipe has no timed stages.")
		return
	}
	a.out.PrintHint(fmt.Sprintf("%d segments, %s total, %.0fg water.", tl.Len(), clock(tl.Total()), tl.TotalWater()))
	a.out.PrintChat("Type 'start' when you're ready.")
}

func (a *cliApp) start(ctx context.Context) {
	err := a.engine.Start(ctx)
	switch {
	case errors.Is(err, domain.ErrNoRecipe):
		a.out.PrintHint("Pick a recipe first.")
	case errors.Is(err, domain.ErrEmptyTimeline):
		a.out.PrintUrgent("This recipe has no timed stages.")
	case err != nil:
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
	}
}

func (a *cliApp) pause(ctx context.Context) {
	err := a.engine.Pause(ctx)
	switch {
	case errors.Is(err, domain.ErrNotRunning):
		a.out.PrintHint("Nothing is brewing.")
	case err != nil:
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
	}
}

func (a *cliApp) reset(ctx context.Context) {
	if err := a.engine.Reset(ctx); err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.out.PrintChat("Timer reset.")
}

func (a *cliApp) skip(ctx context.Context) {
	err := a.engine.Skip(ctx)
	switch {
	case errors.Is(err, domain.ErrCannotSkip):
		a.out.PrintHint("Skip works during the final wait, or while paused.")
	case err != nil:
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
	}
}

func (a *cliApp) status() {
	r := a.engine.Recipe()
	if r == nil {
		a.out.PrintHint("No recipe selected.")
		return
	}
	st := a.engine.Status()
	snap := st.Snapshot
	tl := a.engine.Timeline(r)

	a.out.PrintChat(fmt.Sprintf("%s: %s, %s / %s", r.Name, st.State, clock(snap.Elapsed), clock(st.Total)))
	if st.Countdown != nil {
		a.out.PrintHint(fmt.Sprintf("Starting in %d.", *st.Countdown))
	}
	if snap.Index != timeline.NoSegment {
		info := tl.At(snap.Index).Info()
		a.out.PrintHint(fmt.Sprintf("Stage %d/%d %s, %.0f%% done", snap.Index+1, tl.Len(), info.Label, snap.Progress*100))
	}
	line := fmt.Sprintf("Water %.0fg of %.0fg", snap.Water, tl.TotalWater())
	if snap.FlowRate > 0 {
		line += fmt.Sprintf(", pour at %.1f g/s", snap.FlowRate)
	}
	a.out.PrintHint(line)
	if st.CanSkip {
		a.out.PrintHint("Skip is available.")
	}
}

func (a *cliApp) showStages() {
	r := a.engine.Recipe()
	if r == nil {
		a.out.PrintHint("No recipe selected.")
		return
	}
	tl := a.engine.Timeline(r)
	if tl.Espresso {
		a.out.PrintHint("Espresso shot timer.")
	}
	for i, seg := range tl.Segments {
		info := seg.Info()
		action := "pour to"
		if timeline.IsWait(seg) {
			action = "hold at"
		}
		line := fmt.Sprintf("%2d. %s-%s  %s, %s %.0fg", i+1, clock(info.Start), clock(info.End), info.Label, action, info.Water)
		if info.Valve != domain.ValveUnset {
			line += fmt.Sprintf(" (valve %s)", info.Valve)
		}
		a.out.PrintChat(line)
		if info.Detail != "" {
			a.out.PrintHint(info.Detail)
		}
	}
}

// export prints the selected recipe in the legacy cumulative schema as
// YAML.
func (a *cliApp) export() {
	r := a.engine.Recipe()
	if r == nil {
		a.out.PrintHint("No recipe selected.")
		return
	}
	stages, err := a.engine.ExportLegacy()
	if err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	legacy := *r
	legacy.Params.Stages = stages
	data, err := recipe.Marshal(&legacy)
	if err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.out.PrintHint(fmt.Sprintf("Legacy schema, %d stages, %s total water:", len(stages), migrate.FormatWater(legacyWater(stages))))
	a.out.Println(strings.TrimRight(string(data), "\n"))
}

func (a *cliApp) sound(payload string) {
	enabled := !a.engine.SoundEnabled()
	switch payload {
	case "on":
		enabled = true
	case "off":
		enabled = false
	}
	a.engine.SetSound(enabled)
	if enabled {
		a.out.PrintChat("Sound on.")
	} else {
		a.out.PrintChat("Sound off.")
	}
}

func (a *cliApp) history(ctx context.Context) {
	sessions, err := a.engine.RecentSessions(ctx, 10)
	if err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	if len(sessions) == 0 {
		a.out.PrintHint("No brews yet.")
		return
	}
	for _, s := range sessions {
		a.out.PrintChat(fmt.Sprintf("%s  %-9s %s  %s / %s",
			s.StartedAt.Format("15:04"), s.Status, s.RecipeName, clock(s.Elapsed), clock(s.Total)))
	}
}

func (a *cliApp) quit(ctx context.Context) {
	switch a.engine.Status().State {
	case domain.StateCountdown, domain.StateRunning, domain.StatePaused:
		if err := a.engine.Reset(ctx); err != nil {
			a.log.Error("abandoning brew: %v", err)
		}
	}
	a.out.PrintChat("Bye.")
}

func (a *cliApp) showHelp() {
	a.out.PrintChat("Commands:")
	a.out.PrintHint("list / search <q>   Show recipes, optionally filtered")
	a.out.PrintHint("1, 2, select <id>   Select a recipe")
	a.out.PrintHint("start / go          Start, or resume a paused brew")
	a.out.PrintHint("pause / hold        Pause the brew")
	a.out.PrintHint("skip / done         Finish early (final wait, or paused)")
	a.out.PrintHint("reset / stop        Stop and rewind the timer")
	a.out.PrintHint("status / .          Show progress")
	a.out.PrintHint("stages / plan       Show the timeline")
	a.out.PrintHint("export              Print the recipe in the legacy schema")
	a.out.PrintHint("sound [on|off]      Toggle cue audio")
	a.out.PrintHint("history             Show recent brews")
	a.out.PrintHint("quit / exit         Abandon any brew and exit")
}

func legacyWater(stages []domain.Stage) float64 {
	var total float64
	for _, s := range stages {
		total = max(total, migrate.ParseWater(s.Water))
	}
	return total
}

func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
