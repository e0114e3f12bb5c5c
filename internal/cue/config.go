// Package cue plays the timer's audio cues and haptic pulses on the local
// machine.
package cue

import (
	"errors"
	"time"
)

// Audio parameters shared by every sink.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// frameBytes is the size of one PCM frame.
const frameBytes = BitDepth / 8 * ChannelCount

// Backend names accepted by NewSink.
const (
	BackendOto   = "oto"
	BackendMalgo = "malgo"
	BackendNone  = "none"
)

// ErrQueueFull is returned when a cue is dropped because the playback
// queue is full.
var ErrQueueFull = errors.New("cue queue full")

// Tone is one sine burst.
type Tone struct {
	Freq     float64 // Hz; 0 is silence
	Duration time.Duration
	Gain     float64 // 0..1
}
