package display

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
	"github.com/hammamikhairi/ottobrew/internal/timer"
)

type stubSource struct {
	mu sync.Mutex
	st timer.Status
	tl timeline.Timeline
}

func (s *stubSource) Status() timer.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

func (s *stubSource) Timeline() timeline.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl
}

func (s *stubSource) set(st timer.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
}

func bloomThenWait() timeline.Timeline {
	return timeline.Timeline{Segments: []timeline.Segment{
		timeline.PourSegment{SegmentInfo: timeline.SegmentInfo{Label: "Bloom", End: 10 * time.Second, Water: 50}},
		timeline.WaitSegment{SegmentInfo: timeline.SegmentInfo{Label: "Rest", Start: 10 * time.Second, End: 40 * time.Second, Water: 50}},
	}}
}

func newTestModel(src BrewSource) (model, chan string) {
	in := make(chan string, 4)
	return newModel(src, in, make(chan struct{}), nil), in
}

func TestViewShowsActiveStage(t *testing.T) {
	tl := bloomThenWait()
	src := &stubSource{tl: tl}
	src.set(timer.Status{
		State:    domain.StateRunning,
		Snapshot: timeline.SnapshotAt(tl, 15*time.Second),
		Total:    tl.Total(),
	})

	m, _ := newTestModel(src)
	updated, _ := m.Update(refreshMsg{})
	view := updated.(model).View()

	for _, want := range []string{"RUNNING", "Stage 2/2 Rest, hold at 50g", "0:15 / 0:40", "50g / 50g"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewCountdown(t *testing.T) {
	tl := bloomThenWait()
	n := 2
	src := &stubSource{tl: tl}
	src.set(timer.Status{State: domain.StateCountdown, Countdown: &n, Snapshot: timeline.SnapshotAt(tl, 0), Total: tl.Total()})

	m, _ := newTestModel(src)
	if view := m.View(); !strings.Contains(view, "2...") {
		t.Fatalf("countdown not shown:\n%s", view)
	}
}

func TestViewWithoutRecipe(t *testing.T) {
	m, _ := newTestModel(&stubSource{})
	if view := m.View(); strings.Contains(view, "Stage") {
		t.Fatalf("no brew should be drawn without a timeline:\n%s", view)
	}
	if m.title() != "OttoBrew" {
		t.Fatalf("unexpected title %q", m.title())
	}
}

func TestHotkeysSubmitCommands(t *testing.T) {
	tests := []struct {
		key  tea.KeyType
		want string
	}{
		{tea.KeyCtrlS, "start"},
		{tea.KeyCtrlP, "pause"},
		{tea.KeyCtrlR, "reset"},
		{tea.KeyCtrlK, "skip"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m, in := newTestModel(&stubSource{})
			m.Update(tea.KeyMsg{Type: tt.key})
			select {
			case got := <-in:
				if got != tt.want {
					t.Fatalf("expected %q, got %q", tt.want, got)
				}
			default:
				t.Fatal("nothing submitted")
			}
		})
	}
}

func TestEnterSubmitsTypedLine(t *testing.T) {
	m, in := newTestModel(&stubSource{})
	m.input.SetValue("select kalita-wave")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := <-in; got != "select kalita-wave" {
		t.Fatalf("unexpected line %q", got)
	}
	if v := updated.(model).input.Value(); v != "" {
		t.Fatalf("input not cleared: %q", v)
	}

	// Blank lines are not submitted.
	m.input.SetValue("   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	select {
	case got := <-in:
		t.Fatalf("blank line submitted: %q", got)
	default:
	}
}

func TestFmtClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{235 * time.Second, "3:55"},
		{1500 * time.Millisecond, "0:02"},
	}
	for _, tt := range tests {
		if got := fmtClock(tt.d); got != tt.want {
			t.Errorf("fmtClock(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
