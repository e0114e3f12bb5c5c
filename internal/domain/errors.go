package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrEmptyTimeline = errors.New("timeline has no segments")
	ErrNotRunning    = errors.New("brew is not running")
	ErrCannotSkip    = errors.New("nothing to skip")
	ErrNoRecipe      = errors.New("no recipe selected")
)
