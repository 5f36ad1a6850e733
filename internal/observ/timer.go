package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase accumulates the time spent in one named cycle phase.
type Phase struct {
	Name  string
	Dur   time.Duration
	Count int
	Note  string
}

// Timer aggregates phase durations across pairs. Safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	index  map[string]int
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 8), index: make(map[string]int, 8)}
}

// Track returns a func that adds the elapsed time to phase name when called.
// A nil Timer returns a no-op.
func (t *Timer) Track(name string) func() {
	if t == nil {
		return func() {}
	}
	start := time.Now()
	return func() { t.Add(name, time.Since(start)) }
}

// Add records one run of phase name.
func (t *Timer) Add(name string, d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.index[name]
	if !ok {
		idx = len(t.phases)
		t.index[name] = idx
		t.phases = append(t.phases, Phase{Name: name})
	}
	t.phases[idx].Dur += d
	t.phases[idx].Count++
}

// Note attaches a free-form annotation to phase name.
func (t *Timer) Note(name, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.index[name]; ok {
		t.phases[idx].Note = note
	}
}

// Summary renders the phases in first-seen order.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-12s %8.2f ms  x%d", p.Name, p.DurationMS, p.Count)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-12s %8.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the serialisable form of a Phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Count      int     `json:"count"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates all phases.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the phases and their summed duration in milliseconds.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Count:      phase.Count,
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
