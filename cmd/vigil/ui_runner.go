package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"vigil/internal/driver"
	"vigil/internal/ui"
)

type scanOutcome struct {
	results []driver.ScanResult
	err     error
}

// runScanWithUI drives ScanFiles behind a live progress view.
func runScanWithUI(ctx context.Context, title string, files []string, opts driver.ScanOptions) ([]driver.ScanResult, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan scanOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.ScanFiles(ctx, files, optsCopy)
		outcomeCh <- scanOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
