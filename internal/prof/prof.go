// Package prof runs CPU, heap and runtime-trace profiling for one CLI invocation.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
)

// Options names the output files. Empty paths disable that profile.
type Options struct {
	CPU   string
	Heap  string
	Trace string
}

func (o Options) Empty() bool {
	return o.CPU == "" && o.Heap == "" && o.Trace == ""
}

// Session is an active set of profiles. Stop is idempotent.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	once      sync.Once
	err       error
}

// Start enables the requested profiles. On failure nothing is left running.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err == nil {
			if err = trace.Start(f); err != nil {
				_ = f.Close()
			}
		}
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends the profiles and writes the heap snapshot. A nil Session is a no-op.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		var errs []error
		if s.traceFile != nil {
			trace.Stop()
			errs = append(errs, s.traceFile.Close())
		}
		errs = append(errs, s.stopCPU())
		if s.opts.Heap != "" {
			errs = append(errs, writeHeap(s.opts.Heap))
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
