package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/sheetboard/internal/feed"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the watch dashboard for one loader until the user quits or ctx
// is cancelled. The loader is polled every interval in the background.
func Run(ctx context.Context, loader *feed.Loader, interval time.Duration, logger *slog.Logger, opts ...Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	poller := feed.NewPoller(loader.Load, interval, func(u feed.Update) {
		program.Send(SnapshotMsg{Snapshot: u.Snapshot, Err: u.Err})
	}, logger)

	opts = append(opts, WithRefresh(poller.Refresh))
	program = tea.NewProgram(New(loader.Pipeline(), opts...),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx)
	}()

	_, err := program.Run()
	interrupted := ctx.Err() != nil
	cancel()
	<-done

	if err != nil && !interrupted && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard UI failed: %w", err)
	}
	return nil
}
