package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/sheetboard/internal/cli"
	"github.com/Veraticus/sheetboard/internal/filter"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/sheets"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <dashboard>",
		Short: "Print a dashboard for one period",
		Long: `Fetch a dashboard's sheet and print its totals, chart and ranking for a period.

Periods are anchored the way the dashboards always worked: today and yesterday
follow the wall clock in the business timezone, while week and month follow
the latest date found in the sheet.

Examples:
  sheetboard report vendas --period week
  sheetboard report vendas --period custom --month 8 --year 2025
  sheetboard report vendas --filter VENDEDOR=Ana,Bruno --format csv
  sheetboard report adm --period month --export`,
		Args: cobra.ExactArgs(1),
		RunE: runReport,
	}

	addSelectionFlags(cmd)
	cmd.Flags().String("format", "table", "output format (table, json, csv)")
	cmd.Flags().String("metric", "", "metric to chart (default: the dashboard's primary metric)")
	cmd.Flags().Bool("export", false, "also write the report to the export spreadsheet")
	cmd.Flags().Bool("no-cache", false, "do not read or write the snapshot cache")
	cmd.Flags().Int("width", 80, "chart width for table output")

	return cmd
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("period", "p", "", "period: today, yesterday, week, month or custom (default from config)")
	cmd.Flags().String("month", "", "month for the custom period (1-12)")
	cmd.Flags().String("year", "", "year for the custom period (report needs it with --period custom; watch defaults to the current year)")
	cmd.Flags().StringArrayP("filter", "f", nil, "category filter COLUMN=value[,value...] (repeatable)")
}

// selectionFromFlags builds the selection from the period and filter flags.
func selectionFromFlags(cmd *cobra.Command, fallback period.Kind) (pipeline.Selection, error) {
	kind := fallback
	if p, _ := cmd.Flags().GetString("period"); p != "" {
		k, err := period.ParseKind(p)
		if err != nil {
			return pipeline.Selection{}, err
		}
		kind = k
	}

	month, _ := cmd.Flags().GetString("month")
	year, _ := cmd.Flags().GetString("year")
	filters, _ := cmd.Flags().GetStringArray("filter")

	categories, err := parseFilters(filters)
	if err != nil {
		return pipeline.Selection{}, err
	}

	return pipeline.Selection{
		Period:      kind,
		CustomMonth: month,
		CustomYear:  year,
		Categories:  categories,
	}, nil
}

// parseFilters reads COLUMN=a,b pairs. Repeating a column adds values.
func parseFilters(raw []string) (filter.Selection, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	sel := filter.Selection{}
	for _, f := range raw {
		column, values, ok := strings.Cut(f, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid filter %q (want COLUMN=value[,value...])", f)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				sel[column] = append(sel[column], v)
			}
		}
		if _, seen := sel[column]; !seen {
			sel[column] = nil
		}
	}
	return sel, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" && format != "csv" {
		return fmt.Errorf("invalid format %q (want table, json or csv)", format)
	}

	noCache, _ := cmd.Flags().GetBool("no-cache")
	a, err := newApp(ctx, noCache)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	d, err := a.catalog.Get(args[0])
	if err != nil {
		return err
	}
	sel, err := selectionFromFlags(cmd, a.settings.DefaultPeriod)
	if err != nil {
		return err
	}

	loader := a.loader(d)
	snap, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", d.Name, err)
	}
	if snap.Origin == pipeline.OriginCache {
		slog.Warn("sheet unavailable, using cached snapshot", "dashboard", d.Name, "fetched_at", snap.FetchedAt)
	}

	res := loader.Pipeline().Run(snap, sel, time.Now())

	metric, _ := cmd.Flags().GetString("metric")
	if metric == "" {
		metric = d.Primary().Key
	}
	width, _ := cmd.Flags().GetInt("width")
	if err := writeResult(cmd.OutOrStdout(), format, d, res, metric, width); err != nil {
		return err
	}

	if export, _ := cmd.Flags().GetBool("export"); export {
		writer, err := sheets.NewWriter(ctx, sheetsConfig(), a.logger)
		if err != nil {
			return fmt.Errorf("failed to create sheets writer: %w", err)
		}
		if err := writer.Write(ctx, cli.NewReport(d, res)); err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		slog.Info("report exported", "dashboard", d.Name, "window", res.Window.String())
	}

	return nil
}

func writeResult(w io.Writer, format string, d model.Dashboard, res pipeline.Result, metric string, width int) error {
	switch format {
	case "json":
		return cli.WriteJSON(w, res)
	case "csv":
		return cli.WriteCSV(w, d, res)
	default:
		_, err := fmt.Fprintln(w, cli.RenderResult(res, metric, d.GroupColumn, width))
		return err
	}
}
