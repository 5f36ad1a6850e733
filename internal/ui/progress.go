package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"missingkeys/internal/engine"
)

// Status is the lifecycle state of one pair.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event reports progress of one pair. Phase is meaningful for StatusWorking;
// Missing for StatusDone.
type Event struct {
	Pair    string
	Status  Status
	Phase   engine.Phase
	Missing int
}

// Hooks returns engine callbacks that forward progress into events.
// The sends block, so the channel must be drained until the run returns.
func Hooks(events chan<- Event) (onPhase func(string, engine.Phase), onPair func(engine.PairResult)) {
	onPhase = func(pair string, ph engine.Phase) {
		events <- Event{Pair: pair, Status: StatusWorking, Phase: ph}
	}
	onPair = func(pr engine.PairResult) {
		ev := Event{Pair: pr.Name, Status: StatusDone, Missing: len(pr.Missing)}
		if pr.Err != nil {
			ev.Status = StatusError
		}
		events <- ev
	}
	return onPhase, onPair
}

type progressModel struct {
	title   string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	items   []pairItem
	index   map[string]int
	width   int
	done    bool
}

type pairItem struct {
	name    string
	status  Status
	phase   engine.Phase
	missing int
}

type eventMsg Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders pair progress.
// Pairs not listed up front are appended as their first event arrives.
func NewProgressModel(title string, pairs []string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int, len(pairs)),
		width:   80,
	}
	for _, name := range pairs {
		m.item(name)
	}
	return m
}

func (m *progressModel) item(name string) *pairItem {
	idx, ok := m.index[name]
	if !ok {
		idx = len(m.items)
		m.items = append(m.items, pairItem{name: name})
		m.index[name] = idx
	}
	return &m.items[idx]
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-12-4, 20)
	for _, it := range m.items {
		label := it.label()
		b.WriteString("  ")
		b.WriteString(styleStatus(it.status).Render(fmt.Sprintf("%12s", label)))
		b.WriteString(" ")
		b.WriteString(truncate(it.name, nameWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev Event) tea.Cmd {
	if ev.Pair == "" {
		return nil
	}
	it := m.item(ev.Pair)
	it.status = ev.Status
	if ev.Status == StatusWorking {
		it.phase = ev.Phase
	}
	if ev.Status == StatusDone {
		it.missing = ev.Missing
	}
	return m.prog.SetPercent(m.fraction())
}

func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range m.items {
		switch it.status {
		case StatusDone, StatusError:
			total++
		case StatusWorking:
			total += progressFromPhase(it.phase)
		}
	}
	return total / float64(len(m.items))
}

func (it pairItem) label() string {
	switch it.status {
	case StatusWorking:
		return string(it.phase)
	case StatusDone:
		if it.missing > 0 {
			return fmt.Sprintf("%d missing", it.missing)
		}
		return "ok"
	case StatusError:
		return "error"
	default:
		return "queued"
	}
}

func progressFromPhase(ph engine.Phase) float64 {
	switch ph {
	case engine.PhaseLoad:
		return 0.1
	case engine.PhaseFlatten:
		return 0.4
	case engine.PhaseDiff:
		return 0.6
	case engine.PhaseLocate:
		return 0.8
	default:
		return 0
	}
}

func styleStatus(status Status) lipgloss.Style {
	switch status {
	case StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
