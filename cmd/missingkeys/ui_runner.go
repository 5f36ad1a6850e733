package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"missingkeys/internal/engine"
	"missingkeys/internal/ui"
)

type checkOutcome struct {
	result *engine.Result
	err    error
}

// runCheckWithUI drives engine.Run while a progress view renders on stderr.
func runCheckWithUI(ctx context.Context, title string, pairs []string, p engine.Provider, req engine.Request) (*engine.Result, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		reqCopy := req
		reqCopy.OnPhase, reqCopy.OnPair = ui.Hooks(events)
		res, err := engine.Run(ctx, p, reqCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, pairs, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the run is not blocked on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
