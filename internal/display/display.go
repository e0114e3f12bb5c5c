// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type renders the brew in progress (state, active stage, a
// stage progress bar and an overall bar) above an input prompt. All
// application output is printed above the rendered area via
// Program.Println / Printf, so concurrent writes never garble the
// display. The UI subscribes to the timer as an observer and redraws on
// every event.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/timeline"
	"github.com/hammamikhairi/ottobrew/internal/timer"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	stateStyles = map[domain.BrewState]lipgloss.Style{
		domain.StateIdle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a")),
		domain.StateCountdown: lipgloss.NewStyle().Foreground(lipgloss.Color("#fde68a")).Bold(true),
		domain.StateRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#bbf7d0")).Bold(true),
		domain.StatePaused:    lipgloss.NewStyle().Foreground(lipgloss.Color("#fdba74")).Italic(true),
		domain.StateCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5")).Bold(true),
	}

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const promptText = "brew> "

// BrewSource is what the UI reads to draw the brew. *timer.Controller
// satisfies it.
type BrewSource interface {
	Status() timer.Status
	Timeline() timeline.Timeline
}

// ── UI ───────────────────────────────────────────────────────────

// Compile-time interface check.
var _ timer.Observer = (*UI)(nil)

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely call
// [UI.Println], [UI.Printf], and read from [UI.InputChan] at any time
// after [UI.WaitReady] returns.
type UI struct {
	source  BrewSource
	program atomic.Pointer[tea.Program]
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(source BrewSource) *UI {
	return &UI{
		source:  source,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe. Falls back to
// fmt.Println when the program is not running.
func (u *UI) Println(a ...any) {
	if p := u.program.Load(); p != nil && !u.done.Load() {
		p.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line.
func (u *UI) Printf(format string, a ...any) {
	if p := u.program.Load(); p != nil && !u.done.Load() {
		p.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines and hotkey commands.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// PrintChat prints a conversational line.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("brew") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if p := u.program.Load(); p != nil {
		p.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	m := newModel(u.source, u.inputCh, u.readyCh, u.PrintUserInput)
	p := tea.NewProgram(m)
	u.program.Store(p)
	_, err := p.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// Timer events only trigger a redraw; the model pulls a consistent
// status from the source.

func (u *UI) OnSnapshot(timeline.Snapshot)     { u.refresh() }
func (u *UI) OnStageChanged(timer.StageChange) { u.refresh() }
func (u *UI) OnCountdown(*int)                 { u.refresh() }
func (u *UI) OnComplete(timer.Completion)      { u.refresh() }
func (u *UI) OnStateChanged(domain.BrewState)  { u.refresh() }

func (u *UI) refresh() {
	if p := u.program.Load(); p != nil && !u.done.Load() {
		p.Send(refreshMsg{})
	}
}

// ── Key bindings ─────────────────────────────────────────────────

type keyMap struct {
	Start key.Binding
	Pause key.Binding
	Reset key.Binding
	Skip  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "start")),
		Pause: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "pause")),
		Reset: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Skip:  key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "skip")),
		Help:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "more")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Reset, k.Skip},
		{k.Help, k.Quit},
	}
}

type hotkey struct {
	binding key.Binding
	line    string
}

// hotkeys map a binding to the command line it submits.
func (k keyMap) hotkeys() []hotkey {
	return []hotkey{
		{k.Start, "start"},
		{k.Pause, "pause"},
		{k.Reset, "reset"},
		{k.Skip, "skip"},
	}
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	source  BrewSource
	input   textinput.Model
	stage   progress.Model
	overall progress.Model
	help    help.Model
	keys    keyMap
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string) // prints user input into scrollback
	status  timer.Status
	tl      timeline.Timeline
	width   int
}

// Messages.
type (
	tickMsg    time.Time
	refreshMsg struct{}
)

func newModel(source BrewSource, inputCh chan<- string, readyCh chan struct{}, echo func(string)) model {
	ti := textinput.New()
	// Plain-text prompt; styled prompts break textinput's width math.
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	m := model{
		source:  source,
		input:   ti,
		stage:   progress.New(progress.WithGradient("#a16207", "#fde68a"), progress.WithoutPercentage(), progress.WithWidth(40)),
		overall: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    defaultKeys(),
		inputCh: inputCh,
		readyCh: readyCh,
		echoFn:  echo,
	}
	m.pull()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		for _, hk := range m.keys.hotkeys() {
			if key.Matches(msg, hk.binding) {
				return m, m.submit(hk.line)
			}
		}
		if msg.Type == tea.KeyEnter {
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) == "" {
				return m, nil
			}
			return m, m.submit(v)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText)
		}
		m.help.Width = msg.Width
		barW := min(max(msg.Width-24, 10), 60)
		m.stage.Width = barW
		m.overall.Width = barW
		return m, nil

	case refreshMsg:
		m.pull()
		return m, tea.SetWindowTitle(m.title())

	case tickMsg:
		m.pull()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(m.title()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands a line to the command loop and echoes it. The send never
// blocks the event loop; a full queue drops the line.
func (m model) submit(line string) tea.Cmd {
	select {
	case m.inputCh <- line:
	default:
		return nil
	}
	echoFn := m.echoFn
	if echoFn == nil {
		return nil
	}
	return func() tea.Msg {
		echoFn(line)
		return nil
	}
}

func (m *model) pull() {
	if m.source == nil {
		return
	}
	m.status = m.source.Status()
	m.tl = m.source.Timeline()
}

func (m model) title() string {
	st := m.status
	if m.tl.Empty() || st.State == domain.StateIdle {
		return "OttoBrew"
	}
	return fmt.Sprintf("OttoBrew | %s %s / %s", st.State, fmtClock(st.Snapshot.Elapsed), fmtClock(st.Total))
}

func (m model) View() string {
	var b strings.Builder

	if !m.tl.Empty() {
		b.WriteString(m.renderBrew())
		b.WriteByte('\n')
	}
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBrew() string {
	st := m.status
	snap := st.Snapshot

	style, ok := stateStyles[st.State]
	if !ok {
		style = metaStyle
	}
	head := style.Render(strings.ToUpper(st.State.String()))
	if st.Countdown != nil {
		head += " " + stateStyles[domain.StateCountdown].Render(fmt.Sprintf("%d...", *st.Countdown))
	}
	if line := m.stageLine(snap); line != "" {
		head += "  " + labelStyle.Render(line)
	}
	if st.CanSkip {
		head += metaStyle.Render("  (skip available)")
	}

	w := m.width
	if w <= 0 {
		w = 80
	}

	var b strings.Builder
	b.WriteString(barBg.Width(w).Render(" " + head + " "))
	b.WriteByte('\n')
	b.WriteString(" " + m.stage.ViewAs(snap.Progress) + "  " +
		metaStyle.Render(fmt.Sprintf("stage %3.0f%%", snap.Progress*100)))
	b.WriteByte('\n')

	var overall float64
	if st.Total > 0 {
		overall = min(float64(snap.Elapsed)/float64(st.Total), 1)
	}
	b.WriteString(" " + m.overall.ViewAs(overall) + "  " +
		metaStyle.Render(fmt.Sprintf("%s / %s  %.0fg / %.0fg",
			fmtClock(snap.Elapsed), fmtClock(st.Total), snap.Water, m.tl.TotalWater())))
	return b.String()
}

func (m model) stageLine(snap timeline.Snapshot) string {
	if snap.Index == timeline.NoSegment || snap.Index >= m.tl.Len() {
		return ""
	}
	info := m.tl.At(snap.Index).Info()
	verb := "pour to"
	if snap.Waiting {
		verb = "hold at"
	}
	line := fmt.Sprintf("Stage %d/%d %s, %s %.0fg", snap.Index+1, m.tl.Len(), info.Label, verb, info.Water)
	if snap.FlowRate > 0 {
		line += fmt.Sprintf(" (%.1f g/s)", snap.FlowRate)
	}
	return line
}

// ── Helpers ──────────────────────────────────────────────────────

func fmtClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
