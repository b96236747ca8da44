package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/invigil/invigil/internal/draft"
	"github.com/invigil/invigil/internal/lookup"
	"github.com/invigil/invigil/internal/tui"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Open the interactive invigilation console",
	Long: `Open the full-screen console: file incident reports with live
student lookup, mark attendance against session rosters, and watch the
activity feed update as other invigilators work.

Unsubmitted reports are autosaved and offered back on the next start.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	store, err := draft.NewFileStore(cfg.Draft.Path)
	if err != nil {
		return fmt.Errorf("preparing draft store: %w", err)
	}

	// Lookup transitions arrive from timer goroutines; bridge them into
	// the update loop through a channel drained until the program exits.
	lookupCh := make(chan lookup.Snapshot, 8)
	done := make(chan struct{})
	defer close(done)
	ctrl := lookup.New(apiClient.LookupStudent, lookup.DefaultDelay, func(s lookup.Snapshot) {
		select {
		case lookupCh <- s:
		case <-done:
		}
	})

	box := &tui.DraftBox{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	saver := draft.NewSaver(store, draft.DefaultInterval, box.Get, logger)
	saver.Start()
	defer saver.Stop()

	app := tui.NewApp(apiClient, ctrl, store, box)
	p := tea.NewProgram(app, tea.WithAltScreen())

	go func() {
		for {
			select {
			case snap := <-lookupCh:
				p.Send(tui.LookupMsg(snap))
			case <-done:
				return
			}
		}
	}()

	ctx := cmd.Context()
	events, err := apiClient.Subscribe(ctx)
	if err != nil {
		logger.Warn("event stream unavailable, feed will not auto-refresh", "error", err)
	} else {
		go func() {
			for ev := range events {
				p.Send(tui.EventMsg(ev))
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}

	// Persist whatever is on the form so a quit mid-report survives.
	saver.Flush()
	return nil
}
