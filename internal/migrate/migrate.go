// Package migrate converts recipe stages between the legacy schema
// (cumulative time, optional pour time, cumulative water) and the canonical
// schema (per-stage duration, per-stage water, waits as their own stages).
//
// Every function here is lenient: missing or malformed fields resolve to
// defaults and nothing returns an error.
package migrate

import (
	"github.com/hammamikhairi/ottobrew/internal/domain"
)

// DefaultStageSeconds is the window assumed for a legacy stage that has no
// cumulative time.
const DefaultStageSeconds = 30

// WaitLabel is the label given to wait stages split out of legacy stages.
const WaitLabel = "Wait"

// IsLegacyFormat reports whether stages use the legacy schema: at least one
// stage carries a cumulative time and none carries a duration. Empty or
// mixed lists are treated as canonical so they are never re-migrated.
func IsLegacyFormat(stages []domain.Stage) bool {
	hasTime := false
	for _, s := range stages {
		if s.Duration != nil {
			return false
		}
		if s.Time != nil {
			hasTime = true
		}
	}
	return hasTime
}

// CanonicalSeconds is the duration of a canonical stage. Bypass and
// beverage stages take no time; any other stage without a duration gets
// DefaultStageSeconds, the same default a legacy stage without a
// cumulative time gets. Negative durations clamp to zero.
func CanonicalSeconds(s domain.Stage) int {
	switch {
	case s.Style.Instant():
		return 0
	case s.Duration == nil:
		return DefaultStageSeconds
	}
	return max(0, *s.Duration)
}

// AutoMigrateStages returns canonical stages. Legacy input is migrated;
// anything else is returned unchanged, so applying it twice is the same as
// applying it once.
func AutoMigrateStages(stages []domain.Stage) []domain.Stage {
	if !IsLegacyFormat(stages) {
		return stages
	}
	return MigrateStages(stages)
}

// MigrateStages converts legacy stages to canonical ones. Each timed legacy
// stage becomes a pour stage carrying its own water delta, followed by a
// wait stage when the pour does not fill the stage window. Bypass and
// beverage stages are copied through with zero duration and their water as
// written.
func MigrateStages(legacy []domain.Stage) []domain.Stage {
	out := make([]domain.Stage, 0, len(legacy)*2)

	prevTime := 0
	prevWater := 0.0

	for _, s := range legacy {
		if s.Style.Instant() {
			out = append(out, domain.Stage{
				Duration: domain.Seconds(0),
				Label:    s.Label,
				Water:    s.Water,
				Detail:   s.Detail,
				Style:    s.Style,
				Valve:    s.Valve,
			})
			continue
		}

		stageTime := prevTime + DefaultStageSeconds
		if s.Time != nil {
			stageTime = *s.Time
		}
		window := max(0, stageTime-prevTime)

		water := ParseWater(s.Water)
		delta := max(0, water-prevWater)

		if s.Style == domain.StyleWait {
			out = append(out, domain.Stage{
				Duration: domain.Seconds(window),
				Label:    s.Label,
				Detail:   s.Detail,
				Style:    domain.StyleWait,
				Valve:    s.Valve,
			})
		} else {
			pour := window
			if s.PourTime != nil {
				pour = min(max(0, *s.PourTime), window)
			}

			out = append(out, domain.Stage{
				Duration: domain.Seconds(pour),
				Label:    s.Label,
				Water:    FormatWater(delta),
				Detail:   s.Detail,
				Style:    s.Style,
				Valve:    s.Valve,
			})

			if wait := window - pour; wait > 0 {
				out = append(out, domain.Stage{
					Duration: domain.Seconds(wait),
					Label:    WaitLabel,
					Style:    domain.StyleWait,
					Valve:    s.Valve,
				})
			}
		}

		prevTime = max(prevTime, stageTime)
		prevWater = max(prevWater, water)
	}

	return out
}

// ToLegacyFormat converts canonical stages back to the legacy schema for
// export. Wait stages are folded into the cumulative time of the timed
// stage before them; a wait with nothing timed before it becomes a
// zero-pour stage styled "other". Labels of folded waits are lost, but
// total duration and total water are preserved.
func ToLegacyFormat(canonical []domain.Stage) []domain.Stage {
	out := make([]domain.Stage, 0, len(canonical))

	cumTime := 0
	cumWater := 0.0
	lastTimed := -1

	for _, s := range canonical {
		d := CanonicalSeconds(s)

		switch {
		case s.Style.Instant():
			out = append(out, domain.Stage{
				Time:   domain.Seconds(cumTime),
				Label:  s.Label,
				Water:  s.Water,
				Detail: s.Detail,
				Style:  s.Style,
				Valve:  s.Valve,
			})
			lastTimed = -1

		case s.Style == domain.StyleWait:
			cumTime += d
			if lastTimed >= 0 {
				out[lastTimed].Time = domain.Seconds(cumTime)
				continue
			}
			out = append(out, domain.Stage{
				Time:     domain.Seconds(cumTime),
				PourTime: domain.Seconds(0),
				Label:    s.Label,
				Water:    FormatWater(cumWater),
				Detail:   s.Detail,
				Style:    domain.StyleOther,
				Valve:    s.Valve,
			})
			lastTimed = len(out) - 1

		default:
			cumTime += d
			cumWater += ParseWater(s.Water)
			out = append(out, domain.Stage{
				Time:     domain.Seconds(cumTime),
				PourTime: domain.Seconds(d),
				Label:    s.Label,
				Water:    FormatWater(cumWater),
				Detail:   s.Detail,
				Style:    s.Style,
				Valve:    s.Valve,
			})
			lastTimed = len(out) - 1
		}
	}

	return out
}
