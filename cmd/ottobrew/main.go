// OttoBrew is a terminal pour-over and espresso brew timer.
//
// Usage:
//
//	ottobrew [-recipe id] [-recipes-dir dir] [-audio oto|malgo|none] [-plain]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/hammamikhairi/ottobrew/internal/conversation"
	"github.com/hammamikhairi/ottobrew/internal/cue"
	"github.com/hammamikhairi/ottobrew/internal/display"
	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/engine"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/recipe"
	"github.com/hammamikhairi/ottobrew/internal/storage"
	"github.com/hammamikhairi/ottobrew/internal/timer"
)

// Environment overrides, also read from .env. Flags win.
const (
	envRecipesDir = "OTTOBREW_RECIPES_DIR"
	envLogLevel   = "OTTOBREW_LOG_LEVEL"
	envAudio      = "OTTOBREW_AUDIO"
	envCountdown  = "OTTOBREW_COUNTDOWN"
)

func main() {
	_ = godotenv.Load()

	recipeID := flag.String("recipe", "", "recipe ID to select at startup")
	recipesDir := flag.String("recipes-dir", os.Getenv(envRecipesDir), "directory of YAML/JSON recipe files to load")
	logLevel := flag.String("log-level", envOr(envLogLevel, "normal"), "log level: off, normal or verbose")
	logFile := flag.String("log-file", ".ottobrew/ottobrew.log", "file to write logs to (use \"stderr\" to log to console)")
	audio := flag.String("audio", envOr(envAudio, cue.BackendOto), "cue audio backend: oto, malgo or none")
	volume := flag.Float64("volume", 0.8, "cue volume between 0 and 1")
	countdown := flag.Int("countdown", envInt(envCountdown, 3), "countdown seconds before a fresh brew")
	haptics := flag.Bool("haptics", true, "ring the terminal bell for haptic pulses")
	plain := flag.Bool("plain", false, "line mode without the full-screen UI")
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using normal\n", err)
	}

	// Logs go to a file by default so the UI stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		if dir := filepath.Dir(*logFile); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}
	// Audio libraries log through the standard logger.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(level, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Recipes: built-ins, then any files on disk.
	recipes := recipe.NewMemorySource(log.Named("recipes"))
	if *recipesDir != "" {
		n, err := recipe.Import(ctx, recipes, *recipesDir, log.Named("recipes"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: loading recipes from %s: %v\n", *recipesDir, err)
		} else {
			log.Info("loaded %d recipe(s) from %s", n, *recipesDir)
		}
	}
	store := storage.NewMemoryStore(log.Named("sessions"), storage.WithCapacity(100))

	cues, closeCues := buildCues(ctx, *audio, *volume, *haptics, log.Named("cue"))
	defer closeCues()

	settings := domain.DefaultSettings()
	settings.HapticsEnabled = *haptics
	settings.HapticsSupported = true

	ctrl := timer.New(cues, log.Named("timer"),
		timer.WithCountdown(*countdown),
		timer.WithSettings(settings),
	)
	defer ctrl.Close()

	eng := engine.New(recipes, store, ctrl, log.Named("engine"))
	defer eng.Close()

	if *plain {
		runPlain(ctx, eng, ctrl, *recipeID, log)
		return
	}
	runTUI(ctx, eng, ctrl, *recipeID, log)
}

// buildCues opens the audio backend. Without a device the timer still
// gets a dispatcher, and it only logs.
func buildCues(ctx context.Context, backend string, volume float64, haptics bool, log *logger.Logger) (domain.CueDispatcher, func()) {
	sink, err := cue.NewSink(backend, log)
	if err != nil {
		log.Error("audio disabled: %v", err)
		return cue.NewNoOp(log), func() {}
	}

	opts := []cue.Option{cue.WithVolume(volume)}
	if haptics {
		opts = append(opts, cue.WithHapticWriter(os.Stderr))
	}
	d := cue.NewDispatcher(sink, log, opts...)
	d.Start(ctx)
	return d, func() {
		if err := d.Close(); err != nil {
			log.Error("closing audio: %v", err)
		}
	}
}

func runPlain(ctx context.Context, eng *engine.Engine, ctrl *timer.Controller, recipeID string, log *logger.Logger) {
	out := &plainOutput{w: os.Stdout}
	notifier := conversation.NewCLINotifier(log, out.Printf)
	unsubscribe := ctrl.Subscribe(timer.NewNotifyObserver(notifier, log))
	defer unsubscribe()

	go timer.NewWatcher(ctrl, notifier, log.Named("watcher")).Run(ctx)

	app := newApp(eng, out, log)
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	if recipeID != "" {
		app.selectRecipe(ctx, recipeID)
	}
	app.run(ctx, lines)
}

func runTUI(ctx context.Context, eng *engine.Engine, ctrl *timer.Controller, recipeID string, log *logger.Logger) {
	ui := display.NewUI(ctrl)
	notifier := conversation.NewCLINotifier(log, ui.Printf)
	app := newApp(eng, ui, log)

	fmt.Println(display.RenderBanner("Type 'help' for commands, 'quit' to exit."))

	go func() {
		ui.WaitReady()
		unsubscribeUI := ctrl.Subscribe(ui)
		unsubscribeNotify := ctrl.Subscribe(timer.NewNotifyObserver(notifier, log))
		defer unsubscribeUI()
		defer unsubscribeNotify()
		go timer.NewWatcher(ctrl, notifier, log.Named("watcher")).Run(ctx)

		if recipeID != "" {
			app.selectRecipe(ctx, recipeID)
		}
		app.run(ctx, ui.InputChan())
		ui.Quit()
	}()

	go func() {
		<-ctx.Done()
		ui.Quit()
	}()

	// Bubble Tea owns the terminal and blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
}

func newApp(eng *engine.Engine, out output, log *logger.Logger) *cliApp {
	return &cliApp{
		engine: eng,
		parser: conversation.NewKeywordParser(log.Named("parser")),
		out:    out,
		log:    log,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}
