// Package timeline turns declarative recipe stages into a flat, absolute
// schedule of pour and wait segments, and answers questions about that
// schedule at a given elapsed time.
package timeline

import (
	"time"

	"github.com/hammamikhairi/ottobrew/internal/domain"
)

// Segment is one entry of a Timeline. It is either a PourSegment or a
// WaitSegment; consumers type-switch on it.
type Segment interface {
	Info() SegmentInfo
	isSegment()
}

// SegmentInfo holds the fields shared by every segment kind.
type SegmentInfo struct {
	Label  string
	Detail string
	Start  time.Duration // offset from brew start
	End    time.Duration
	Water  float64 // cumulative grams at End
	Valve  domain.ValveState
	Source int // index of the declarative stage this came from
}

// Info returns the shared fields.
func (i SegmentInfo) Info() SegmentInfo { return i }

// Duration returns End - Start.
func (i SegmentInfo) Duration() time.Duration { return i.End - i.Start }

// PourSegment is a segment during which water is added, linearly from
// StartWater to Water.
type PourSegment struct {
	SegmentInfo
	Style      domain.PourStyle
	StartWater float64 // cumulative grams at Start
}

// WaitSegment is a segment during which the water level is held.
type WaitSegment struct {
	SegmentInfo
}

func (PourSegment) isSegment() {}
func (WaitSegment) isSegment() {}

// IsWait reports whether seg is a wait segment.
func IsWait(seg Segment) bool {
	_, ok := seg.(WaitSegment)
	return ok
}

// Timeline is an ordered, gapless list of segments. A Timeline value is
// never mutated after it is built; a recipe change builds a new one.
type Timeline struct {
	Segments []Segment
	Espresso bool // built by the espresso branch
}

// Len returns the number of segments.
func (t Timeline) Len() int { return len(t.Segments) }

// Empty reports whether the timeline has no segments.
func (t Timeline) Empty() bool { return len(t.Segments) == 0 }

// At returns segment i.
func (t Timeline) At(i int) Segment { return t.Segments[i] }

// Total returns the end of the last segment, or 0 when empty.
func (t Timeline) Total() time.Duration {
	if t.Empty() {
		return 0
	}
	return t.Segments[len(t.Segments)-1].Info().End
}

// TotalWater returns the cumulative water at the end of the last segment.
func (t Timeline) TotalWater() float64 {
	if t.Empty() {
		return 0
	}
	return t.Segments[len(t.Segments)-1].Info().Water
}
