package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/service"
	"github.com/shopspring/decimal"
)

// TotalLabel labels the summary row of exported tables.
const TotalLabel = "Total"

// Table flattens a result into a header and rows. Grouped dashboards get
// one row per group, the rest one row per day. A total row closes the table.
func Table(d model.Dashboard, res pipeline.Result) ([]string, [][]string) {
	first := d.GroupColumn
	if first == "" {
		first = "Data"
	}
	headers := []string{first}
	for _, m := range res.Metrics {
		headers = append(headers, m.Title)
	}

	var rows [][]string
	if d.GroupColumn != "" {
		for _, g := range res.Groups {
			rows = append(rows, valueRow(g.Label, res, g.Totals.Get))
		}
	} else {
		for _, day := range res.Daily {
			rows = append(rows, valueRow(day.Date.String(), res, day.Totals.Get))
		}
	}
	rows = append(rows, valueRow(TotalLabel, res, res.Totals.Get))
	return headers, rows
}

func valueRow(label string, res pipeline.Result, get func(string) decimal.Decimal) []string {
	row := make([]string, 0, len(res.Metrics)+1)
	row = append(row, label)
	for _, m := range res.Metrics {
		row = append(row, FormatValue(get(m.Key)))
	}
	return row
}

// NewReport converts a result into a report for a ReportWriter. Numeric
// cells are exported as numbers so spreadsheets can chart them.
func NewReport(d model.Dashboard, res pipeline.Result) *service.Report {
	headers, rows := Table(d, res)
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		cells[0] = row[0]
		for j := 1; j < len(row); j++ {
			if v, err := decimal.NewFromString(row[j]); err == nil {
				cells[j] = v.InexactFloat64()
			} else {
				cells[j] = row[j]
			}
		}
		out[i] = cells
	}

	return &service.Report{
		GeneratedAt: res.GeneratedAt,
		Dashboard:   d,
		Window:      fmt.Sprintf("%s (%s)", res.Window.Kind.Label(), res.Window),
		Headers:     headers,
		Rows:        out,
	}
}

// WriteJSON writes the full result as indented JSON.
func WriteJSON(w io.Writer, res pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// WriteCSV writes the flattened result table as CSV.
func WriteCSV(w io.Writer, d model.Dashboard, res pipeline.Result) error {
	headers, rows := Table(d, res)
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}
