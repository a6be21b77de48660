package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/Veraticus/sheetboard/internal/aggregate"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

// MaxChartBars caps the bars drawn per chart; the rest are summarised.
const MaxChartBars = 15

// FormatValue renders a metric total: whole numbers without decimals,
// everything else with two.
func FormatValue(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.StringFixed(2)
}

// RenderHeader shows the dashboard title, the window and the data source.
func RenderHeader(res pipeline.Result) string {
	var b strings.Builder
	b.WriteString(FormatTitle(res.Title))
	b.WriteString("  ")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("%s · %s", res.Window.Kind.Label(), res.Window)))
	b.WriteString("\n")

	meta := fmt.Sprintf("%d of %d rows", res.Matched, res.Total)
	if res.Skipped > 0 {
		meta += fmt.Sprintf(" · %d without a date", res.Skipped)
	}
	if res.Latest != "" {
		meta += " · latest " + res.Latest
	}
	if !res.FetchedAt.IsZero() {
		meta += " · fetched " + res.FetchedAt.Local().Format("15:04:05")
	}
	b.WriteString(SubtleStyle.Render(meta))

	if res.Origin == pipeline.OriginCache {
		b.WriteString("\n")
		b.WriteString(FormatWarning(fmt.Sprintf("%s sheet unavailable, showing cached data from %s",
			CacheIcon, res.FetchedAt.Local().Format(time.DateTime))))
	}
	return b.String()
}

// RenderTotals renders one line per metric with its total.
func RenderTotals(res pipeline.Result) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers("Metric", "Total").
		StyleFunc(cellStyle)

	for _, m := range res.Metrics {
		t.Row(m.Title, FormatValue(res.Totals.Get(m.Key)))
	}
	return t.Render()
}

// RenderGroups renders the per-group totals, one column per metric.
func RenderGroups(res pipeline.Result, groupLabel string) string {
	if len(res.Groups) == 0 {
		return SubtleStyle.Render("No data for this period")
	}

	headers := []string{groupLabel}
	for _, m := range res.Metrics {
		headers = append(headers, m.Title)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(cellStyle)

	for _, g := range res.Groups {
		row := []string{g.Label}
		for _, m := range res.Metrics {
			row = append(row, FormatValue(g.Totals.Get(m.Key)))
		}
		t.Row(row...)
	}
	return t.Render()
}

func cellStyle(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return TableHeaderStyle
	}
	return TableCellStyle
}

// RenderChart draws a bar chart of a series. Bars beyond MaxChartBars are
// folded into an "others" bar so the chart stays legible.
func RenderChart(points []aggregate.Point, width, height int) string {
	if len(points) == 0 {
		return SubtleStyle.Render("No data for this period")
	}
	width = max(width, 20)
	height = max(height, 6)

	points = foldTail(points, MaxChartBars)
	bars := make([]barchart.BarData, len(points))
	for i, p := range points {
		bars[i] = barchart.BarData{
			Label: shorten(p.Label, max(width/len(points)-1, 3)),
			Values: []barchart.BarValue{{
				Name:  p.Label,
				Value: p.Value.InexactFloat64(),
				Style: lipgloss.NewStyle().Foreground(BarColors[i%len(BarColors)]),
			}},
		}
	}

	chart := barchart.New(width, height)
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

// RenderLegend lists each bar's full label and value.
func RenderLegend(points []aggregate.Point) string {
	points = foldTail(points, MaxChartBars)
	lines := make([]string, len(points))
	for i, p := range points {
		swatch := lipgloss.NewStyle().Foreground(BarColors[i%len(BarColors)]).Render("■")
		lines[i] = fmt.Sprintf("%s %s %s", swatch, p.Label, SubtleStyle.Render(FormatValue(p.Value)))
	}
	return strings.Join(lines, "\n")
}

func foldTail(points []aggregate.Point, limit int) []aggregate.Point {
	if len(points) <= limit {
		return points
	}
	out := append([]aggregate.Point(nil), points[:limit-1]...)
	rest := decimal.Zero
	for _, p := range points[limit-1:] {
		rest = rest.Add(p.Value)
	}
	return append(out, aggregate.Point{Label: fmt.Sprintf("+%d others", len(points)-limit+1), Value: rest})
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// RenderResult renders the header, totals, the chart of one metric and,
// for grouped dashboards, the group table.
func RenderResult(res pipeline.Result, metricKey, groupLabel string, width int) string {
	sections := []string{RenderHeader(res), RenderTotals(res)}

	if m, ok := MetricByKey(res, metricKey); ok {
		points := res.Series[m.Key]
		sections = append(sections,
			TitleStyle.Render(m.Title),
			RenderChart(points, width, 12),
			RenderLegend(points),
		)
	}

	if groupLabel != "" {
		sections = append(sections, RenderGroups(res, groupLabel))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// MetricByKey finds a result metric by key or column. An empty key picks
// the first metric.
func MetricByKey(res pipeline.Result, key string) (model.Metric, bool) {
	for _, m := range res.Metrics {
		if key == "" || m.Key == key || m.Column == key {
			return m, true
		}
	}
	return model.Metric{}, false
}

// PeriodBar renders the period choices with the active one highlighted.
func PeriodBar(active period.Kind) string {
	keys := map[period.Kind]string{
		period.Today:     "t",
		period.Yesterday: "y",
		period.Week:      "w",
		period.Month:     "m",
		period.Custom:    "c",
	}
	parts := make([]string, len(period.Kinds))
	for i, k := range period.Kinds {
		label := fmt.Sprintf("%s %s", keys[k], k.Label())
		if k == active {
			parts[i] = SelectedStyle.Render(label)
		} else {
			parts[i] = OptionStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
