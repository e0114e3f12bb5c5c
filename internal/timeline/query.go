package timeline

import (
	"sort"
	"time"
)

// NoSegment is returned by ActiveSegmentIndex when no segment applies.
const NoSegment = -1

// Snapshot is the timer state at one instant. It is a value computed from
// a Timeline and an elapsed time; it is never updated in place.
type Snapshot struct {
	Elapsed  time.Duration
	Index    int     // active segment, or NoSegment
	Progress float64 // fraction of the active segment done, 0..1
	Water    float64 // cumulative grams delivered so far
	FlowRate float64 // target grams per second, 0 outside pours
	Waiting  bool    // active segment is a wait
}

// ActiveSegmentIndex returns the segment containing t. Segments are
// half-open [Start, End) except the last, which is closed, so a time on a
// shared boundary belongs to the later segment. A time past the end maps
// to the last segment. Empty timelines and negative times give NoSegment.
func ActiveSegmentIndex(tl Timeline, t time.Duration) int {
	n := tl.Len()
	if n == 0 || t < 0 {
		return NoSegment
	}
	i := sort.Search(n, func(i int) bool {
		return t < tl.Segments[i].Info().End
	})
	if i == n {
		return n - 1
	}
	return i
}

// SegmentProgress returns how far t is through segment i, in percent.
func SegmentProgress(tl Timeline, i int, t time.Duration) float64 {
	if i < 0 || i >= tl.Len() {
		return 0
	}
	info := tl.Segments[i].Info()
	switch {
	case t <= info.Start:
		return 0
	case t >= info.End:
		return 100
	default:
		return float64(t-info.Start) / float64(info.End-info.Start) * 100
	}
}

// CumulativeWater returns the grams delivered by time t, given the active
// segment index i. Waits hold their level; pours interpolate linearly and
// reach their target at their end. NoSegment means the brew is over and
// yields the final amount.
func CumulativeWater(tl Timeline, t time.Duration, i int) float64 {
	if i < 0 || i >= tl.Len() {
		return tl.TotalWater()
	}

	switch seg := tl.Segments[i].(type) {
	case WaitSegment:
		return seg.Water
	case PourSegment:
		within := t - seg.Start
		d := seg.Duration()
		switch {
		case within <= 0:
			return seg.StartWater
		case within >= d:
			return seg.Water
		default:
			return seg.StartWater + (seg.Water-seg.StartWater)*float64(within)/float64(d)
		}
	default:
		return 0
	}
}

// TargetFlowRate returns the grams per second a pour segment asks for.
// Waits and zero-length segments return 0.
func TargetFlowRate(seg Segment) float64 {
	switch s := seg.(type) {
	case PourSegment:
		secs := s.Duration().Seconds()
		if secs <= 0 {
			return 0
		}
		return (s.Water - s.StartWater) / secs
	case WaitSegment:
		return 0
	default:
		return 0
	}
}

// SnapshotAt computes the snapshot for elapsed time t.
func SnapshotAt(tl Timeline, t time.Duration) Snapshot {
	i := ActiveSegmentIndex(tl, t)
	snap := Snapshot{
		Elapsed: t,
		Index:   i,
		Water:   CumulativeWater(tl, t, i),
	}
	if i == NoSegment {
		return snap
	}

	seg := tl.Segments[i]
	snap.Progress = SegmentProgress(tl, i, t) / 100
	snap.Waiting = IsWait(seg)
	if t < seg.Info().End {
		snap.FlowRate = TargetFlowRate(seg)
	}
	return snap
}
