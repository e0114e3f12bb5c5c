package cue

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
)

// fade is the attack/release ramp applied to every tone to avoid clicks.
const fade = 5 * time.Millisecond

// Pattern returns the tone sequence for a cue.
func Pattern(kind domain.CueKind) []Tone {
	switch kind {
	case domain.CueStart:
		return []Tone{
			{Freq: 660, Duration: 90 * time.Millisecond, Gain: 0.5},
			{Freq: 880, Duration: 140 * time.Millisecond, Gain: 0.5},
		}
	case domain.CueTick:
		return []Tone{{Freq: 1200, Duration: 40 * time.Millisecond, Gain: 0.35}}
	case domain.CueReady:
		return []Tone{{Freq: 990, Duration: 220 * time.Millisecond, Gain: 0.55}}
	case domain.CueComplete:
		return []Tone{
			{Freq: 784, Duration: 120 * time.Millisecond, Gain: 0.5},
			{Freq: 0, Duration: 40 * time.Millisecond},
			{Freq: 988, Duration: 120 * time.Millisecond, Gain: 0.5},
			{Freq: 0, Duration: 40 * time.Millisecond},
			{Freq: 1319, Duration: 260 * time.Millisecond, Gain: 0.5},
		}
	default:
		return nil
	}
}

// Render synthesizes tones as signed 16-bit little-endian mono PCM at
// SampleRate. volume scales every tone's gain and is clamped to [0, 1].
func Render(tones []Tone, volume float64) []byte {
	volume = math.Max(0, math.Min(1, volume))

	total := 0
	for _, t := range tones {
		total += samples(t.Duration)
	}
	pcm := make([]byte, 0, total*frameBytes)

	for _, t := range tones {
		n := samples(t.Duration)
		ramp := min(samples(fade), n/2)
		amp := t.Gain * volume * math.MaxInt16
		for i := 0; i < n; i++ {
			v := 0.0
			if t.Freq > 0 {
				v = amp * math.Sin(2*math.Pi*t.Freq*float64(i)/SampleRate)
				switch {
				case i < ramp:
					v *= float64(i) / float64(ramp)
				case i >= n-ramp:
					v *= float64(n-1-i) / float64(ramp)
				}
			}
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(int16(math.Round(v))))
		}
	}
	return pcm
}

func samples(d time.Duration) int {
	return int(d.Seconds() * SampleRate)
}
