package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sheetboard/internal/cli"
	"github.com/Veraticus/sheetboard/internal/config"
	"github.com/Veraticus/sheetboard/internal/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func dashboardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboards",
		Aliases: []string{"ls"},
		Short:   "List the configured dashboards",
		Long: `List the built-in and configured dashboards with their sheet range, grouping
column, metrics and when their sheet was last cached.`,
		Args: cobra.NoArgs,
		RunE: runDashboards,
	}
}

func runDashboards(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	catalog, err := config.LoadDashboards(viper.GetViper())
	if err != nil {
		return err
	}

	// The cache is optional here; without it the column stays empty.
	var store *storage.SQLiteStorage
	if s, err := initStorage(ctx, settings); err == nil {
		store = s
		defer func() { _ = store.Close() }()
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(cli.SubtleStyle).
		Headers("Name", "Title", "Range", "Group by", "Metrics", "Cached")

	for _, d := range catalog.All() {
		cached := ""
		if store != nil {
			if snap, err := store.LatestSnapshot(ctx, d.SpreadsheetID, d.ReadRange()); err == nil {
				cached = since(snap.FetchedAt)
			}
		}
		keys := make([]string, len(d.Metrics))
		for i, m := range d.Metrics {
			keys[i] = m.Key
		}
		t.Row(d.Name, d.Title, d.ReadRange(), d.GroupColumn, strings.Join(keys, ", "), cached)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Dashboards"))
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
