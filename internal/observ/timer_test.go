package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerAggregatesByName(t *testing.T) {
	tm := NewTimer()
	tm.Add("flatten", 2*time.Millisecond)
	tm.Add("diff", time.Millisecond)
	tm.Add("flatten", 3*time.Millisecond)
	tm.Note("diff", "2 missing")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(r.Phases))
	}
	if r.Phases[0].Name != "flatten" || r.Phases[0].Count != 2 || r.Phases[0].DurationMS != 5 {
		t.Fatalf("unexpected flatten phase: %+v", r.Phases[0])
	}
	if r.TotalMS != 6 {
		t.Fatalf("expected total 6ms, got %v", r.TotalMS)
	}
	if !strings.Contains(tm.Summary(), "// 2 missing") {
		t.Fatalf("summary lacks note:\n%s", tm.Summary())
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Track("locate")()
		}()
	}
	wg.Wait()
	if got := tm.Report().Phases[0].Count; got != 16 {
		t.Fatalf("expected 16 runs, got %d", got)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Track("load")()
	tm.Add("load", time.Second)
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer must report nothing")
	}
}
