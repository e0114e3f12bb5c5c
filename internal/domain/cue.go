package domain

// CueKind is an abstract audio cue requested by the timer.
type CueKind int

const (
	CueStart CueKind = iota
	CueTick
	CueReady
	CueComplete
)

// String returns the cue name.
func (c CueKind) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueTick:
		return "tick"
	case CueReady:
		return "ready"
	case CueComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// HapticKind is an abstract haptic pulse requested by the timer.
type HapticKind int

const (
	HapticLight HapticKind = iota
	HapticMedium
	HapticSuccess
	HapticWarning
)

// String returns the haptic name.
func (h HapticKind) String() string {
	switch h {
	case HapticLight:
		return "light"
	case HapticMedium:
		return "medium"
	case HapticSuccess:
		return "success"
	case HapticWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Settings are the host preferences the timer reads. The timer never
// writes them.
type Settings struct {
	SoundEnabled     bool
	HapticsEnabled   bool
	HapticsSupported bool
}

// DefaultSettings enables sound and leaves haptics off.
func DefaultSettings() Settings {
	return Settings{SoundEnabled: true}
}

// Haptics reports whether haptic pulses should be sent at all.
func (s Settings) Haptics() bool {
	return s.HapticsEnabled && s.HapticsSupported
}
