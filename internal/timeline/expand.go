package timeline

import (
	"strings"
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
	"github.com/hammamikhairi/ottobrew/internal/migrate"
)

// DefaultExtractionSeconds is the shot time used when an espresso
// extraction stage has no duration.
const DefaultExtractionSeconds = 25

// espressoMarkers are matched case-insensitively against stage labels and
// details when the recipe does not declare its method.
var espressoMarkers = []string{"espresso", "意式", "浓缩"}

// ExpandOption configures Expand.
type ExpandOption func(*expandConfig)

type expandConfig struct {
	method domain.Method
	log    *logger.Logger
}

// WithMethod passes the recipe's declared brewing method. A declared
// method overrides stage-based detection.
func WithMethod(m domain.Method) ExpandOption {
	return func(c *expandConfig) {
		c.method = m
	}
}

// WithLogger enables debug logging of branch selection and dropped stages.
func WithLogger(log *logger.Logger) ExpandOption {
	return func(c *expandConfig) {
		c.log = log
	}
}

// Build migrates the recipe's stages if needed and expands them.
func Build(recipe *domain.Recipe, opts ...ExpandOption) Timeline {
	if recipe == nil {
		return Timeline{}
	}
	stages := migrate.AutoMigrateStages(recipe.Params.Stages)
	return Expand(stages, append([]ExpandOption{WithMethod(recipe.Method)}, opts...)...)
}

// Expand produces the timeline for stages. Exactly one branch applies, in
// this order: espresso, legacy schema, canonical schema. Segments that
// would have no duration are left out.
func Expand(stages []domain.Stage, opts ...ExpandOption) Timeline {
	cfg := expandConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var tl Timeline
	switch {
	case IsEspresso(stages, cfg.method):
		tl = expandEspresso(stages, cfg.log)
	case migrate.IsLegacyFormat(stages):
		tl = expandLegacy(stages)
	default:
		tl = expandCanonical(stages)
	}

	if cfg.log != nil {
		cfg.log.Debug("expanded %d stages into %d segments (espresso=%v, total=%s, water=%.1fg)",
			len(stages), tl.Len(), tl.Espresso, tl.Total(), tl.TotalWater())
	}
	return tl
}

// IsEspresso decides whether stages describe an espresso-style recipe. A
// declared method wins; otherwise extraction or beverage stages, or an
// espresso marker in any label or detail, mark the recipe as espresso.
func IsEspresso(stages []domain.Stage, method domain.Method) bool {
	switch method {
	case domain.MethodEspresso:
		return true
	case domain.MethodPourOver:
		return false
	}

	for _, s := range stages {
		if s.Style == domain.StyleExtraction || s.Style == domain.StyleBeverage {
			return true
		}
	}
	for _, s := range stages {
		if hasEspressoMarker(s.Label) || hasEspressoMarker(s.Detail) {
			return true
		}
	}
	return false
}

func hasEspressoMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range espressoMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// expandEspresso emits a single pour segment for the shot. Only the first
// extraction stage is used so the timeline stays gapless; beverage
// additions never appear.
func expandEspresso(stages []domain.Stage, log *logger.Logger) Timeline {
	tl := Timeline{Espresso: true}

	idx := -1
	extra := 0
	for i, s := range stages {
		if s.Style != domain.StyleExtraction {
			continue
		}
		if idx < 0 {
			idx = i
		} else {
			extra++
		}
	}
	if idx < 0 {
		if len(stages) == 0 {
			return tl
		}
		idx = 0
	}
	if extra > 0 && log != nil {
		log.Debug("espresso recipe has %d extra extraction stages, using stage %d", extra, idx)
	}

	s := stages[idx]
	secs := DefaultExtractionSeconds
	switch {
	case s.Duration != nil:
		secs = *s.Duration
	case s.Time != nil:
		secs = *s.Time
	}
	if secs <= 0 {
		return tl
	}

	tl.Segments = []Segment{PourSegment{
		SegmentInfo: SegmentInfo{
			Label:  s.Label,
			Detail: s.Detail,
			Start:  0,
			End:    seconds(secs),
			Water:  migrate.ParseWater(s.Water),
			Valve:  s.Valve,
			Source: idx,
		},
		Style: s.Style,
	}}
	return tl
}

// expandCanonical chains stages back to back. Bypass stages are not part of
// the timer. A stage with no duration gets the migrator's default window; a
// pour with an explicit zero duration still adds its water, which shows up
// as a step at the start of the next segment.
func expandCanonical(stages []domain.Stage) Timeline {
	var tl Timeline
	var at time.Duration
	water := 0.0

	for i, s := range stages {
		if s.Style == domain.StyleBypass {
			continue
		}

		d := migrate.CanonicalSeconds(s)
		end := at + seconds(d)

		if s.Style == domain.StyleWait {
			if d > 0 {
				tl.Segments = append(tl.Segments, WaitSegment{SegmentInfo{
					Label: s.Label, Detail: s.Detail, Start: at, End: end,
					Water: water, Valve: s.Valve, Source: i,
				}})
				at = end
			}
			continue
		}

		startWater := water
		water += migrate.ParseWater(s.Water)
		if d == 0 {
			continue
		}
		tl.Segments = append(tl.Segments, PourSegment{
			SegmentInfo: SegmentInfo{
				Label: s.Label, Detail: s.Detail, Start: at, End: end,
				Water: water, Valve: s.Valve, Source: i,
			},
			Style:      s.Style,
			StartWater: startWater,
		})
		at = end
	}
	return tl
}

// expandLegacy splits each legacy stage window into a pour followed by a
// wait. Without an explicit pour time, the first third of the window is
// the pour.
func expandLegacy(stages []domain.Stage) Timeline {
	var tl Timeline
	prev := 0
	water := 0.0

	for i, s := range stages {
		if s.Style.Instant() {
			continue
		}

		stageTime := prev + migrate.DefaultStageSeconds
		if s.Time != nil {
			stageTime = *s.Time
		}
		target := max(water, migrate.ParseWater(s.Water))

		window := stageTime - prev
		if window <= 0 {
			water = target
			continue
		}

		pour := window / 3
		if s.PourTime != nil {
			pour = min(max(0, *s.PourTime), window)
		}
		if s.Style == domain.StyleWait {
			pour = 0
		}

		start := seconds(prev)
		split := seconds(prev + pour)
		if pour > 0 {
			tl.Segments = append(tl.Segments, PourSegment{
				SegmentInfo: SegmentInfo{
					Label: s.Label, Detail: s.Detail, Start: start, End: split,
					Water: target, Valve: s.Valve, Source: i,
				},
				Style:      s.Style,
				StartWater: water,
			})
		}
		if pour < window {
			label := migrate.WaitLabel
			if pour == 0 {
				label = s.Label
			}
			tl.Segments = append(tl.Segments, WaitSegment{SegmentInfo{
				Label: label, Detail: s.Detail, Start: split, End: seconds(stageTime),
				Water: target, Valve: s.Valve, Source: i,
			}})
		}

		water = target
		prev = stageTime
	}
	return tl
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
