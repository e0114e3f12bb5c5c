package domain

import "context"

// RecipeSource provides recipes. Implementations can be in-memory (built-in),
// file-based, or backed by the host's own recipe library.
type RecipeSource interface {
	List(ctx context.Context) ([]RecipeSummary, error)
	Get(ctx context.Context, id string) (*Recipe, error)
	Search(ctx context.Context, query string) ([]RecipeSummary, error)
}

// SessionStore keeps brew session records.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]*Session, error)
}

// CommandParser converts raw user input into structured commands.
type CommandParser interface {
	Parse(ctx context.Context, input string) (*Command, error)
}

// Notifier delivers messages to the user. Implementations can write to
// stdout or a terminal UI.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// CueDispatcher plays audio cues and haptic pulses. Both calls must return
// quickly; playback happens elsewhere. Errors are reported but never stop
// the caller.
type CueDispatcher interface {
	PlayCue(ctx context.Context, kind CueKind) error
	TriggerHaptic(ctx context.Context, kind HapticKind) error
}
