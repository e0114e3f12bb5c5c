package domain

import "time"

// BrewState is the lifecycle state of the brew timer.
type BrewState int

const (
	StateIdle BrewState = iota
	StateCountdown
	StateRunning
	StatePaused
	StateCompleted
)

// String returns a human-readable brew state.
func (s BrewState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCountdown:
		return "countdown"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Session is the bookkeeping record of one brew. It is written by the
// engine, never by the timer controller.
type Session struct {
	ID         string
	RecipeID   string
	RecipeName string
	Status     SessionStatus
	Elapsed    time.Duration // elapsed brew time at the last update
	Total      time.Duration // timeline length when the session started
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// SessionStatus tracks how a brew session ended, if it has.
type SessionStatus int

const (
	SessionActive SessionStatus = iota
	SessionPaused
	SessionCompleted
	SessionAbandoned
)

// String returns a human-readable session status.
func (s SessionStatus) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionPaused:
		return "paused"
	case SessionCompleted:
		return "completed"
	case SessionAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}
