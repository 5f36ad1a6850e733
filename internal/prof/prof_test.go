package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Heap:  filepath.Join(dir, "heap.pprof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	s, err := Start(opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	for _, p := range []string{opts.CPU, opts.Heap, opts.Trace} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}
}

func TestStartFailsOnBadPath(t *testing.T) {
	_, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.pprof")})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	// CPU profiling must not be left running.
	s, err := Start(Options{CPU: filepath.Join(t.TempDir(), "cpu.pprof")})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	_ = s.Stop()
}

func TestNilSessionStop(t *testing.T) {
	var s *Session
	if err := s.Stop(); err != nil {
		t.Fatalf("nil stop: %v", err)
	}
	if !(Options{}).Empty() {
		t.Fatal("zero options should be empty")
	}
}
