package main

import (
	"io"

	"missingkeys/internal/observ"
)

func printTimings(out io.Writer, timer *observ.Timer) {
	if out == nil || timer == nil {
		return
	}
	if len(timer.Report().Phases) == 0 {
		return
	}
	if _, err := io.WriteString(out, timer.Summary()); err != nil {
		panic(err)
	}
}
