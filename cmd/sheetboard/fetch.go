package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Veraticus/sheetboard/internal/cli"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds parallel sheet reads to stay under the API quota.
const fetchConcurrency = 4

type fetchOutcome struct {
	err    error
	name   string
	origin pipeline.Origin
	rows   int
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [dashboard...]",
		Short: "Fetch sheets into the local snapshot cache",
		Long: `Read every dashboard's sheet once and store it in the snapshot cache, so
reports keep working when the sheet cannot be reached.

Without names every configured dashboard is fetched.`,
		RunE: runFetch,
	}
	cmd.Flags().Bool("quiet", false, "do not show a progress bar")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	boards, err := a.dashboards(args)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	var bar *progressbar.ProgressBar
	if !quiet {
		bar = cli.NewProgressBar(os.Stderr, len(boards), "Fetching sheets...")
	}

	outcomes := make([]fetchOutcome, len(boards))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(fetchConcurrency)
	for i, d := range boards {
		loader := a.loader(d)
		g.Go(func() error {
			snap, err := loader.Load(ctx)
			out := fetchOutcome{name: d.Name, err: err}
			if err == nil {
				out.origin = snap.Origin
				out.rows = len(snap.Rows)
			} else {
				slog.Warn("fetch failed", "dashboard", d.Name, "error", err)
			}
			outcomes[i] = out

			if bar != nil {
				mu.Lock()
				_ = bar.Add(1)
				mu.Unlock()
			}
			// One failing sheet must not stop the others.
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderFetch(outcomes))

	failed := 0
	for _, o := range outcomes {
		if o.err != nil || o.origin == pipeline.OriginCache {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d dashboards could not be fetched", failed, len(outcomes))
	}
	return nil
}

func renderFetch(outcomes []fetchOutcome) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(cli.SubtleStyle).
		Headers("Dashboard", "Rows", "Status")

	for _, o := range outcomes {
		var status string
		switch {
		case o.err != nil:
			status = cli.FormatError(o.err.Error())
		case o.origin == pipeline.OriginCache:
			status = cli.FormatWarning("sheet unavailable, cache kept")
		default:
			status = cli.FormatSuccess("cached")
		}
		t.Row(o.name, fmt.Sprint(o.rows), status)
	}
	return t.Render()
}
