package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sheetboard/internal/cli"
	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.renderLoading()
	}

	sections := []string{
		m.renderHeader(),
		m.renderFilters(),
		m.renderBody(),
		m.renderStatus(),
		m.help.View(m.keymap),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderLoading() string {
	d := m.pipeline.Dashboard()
	lines := []string{
		m.theme.Title.Render(cli.ChartIcon + " " + d.Title),
		"",
		m.theme.Subtitle.Render("Loading " + d.ReadRange() + "..."),
	}
	if m.lastError != nil {
		lines = append(lines, "", m.theme.StatusError.Render(common.UserMessage(m.lastError)))
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) renderHeader() string {
	res := m.result
	title := m.theme.Title.Render(cli.ChartIcon + " " + res.Title)
	window := m.theme.Subtitle.Render(res.Window.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", window)
}

func (m Model) renderFilters() string {
	line := cli.PeriodBar(m.selection.Period)
	if m.selection.Period == period.Custom {
		month := time.Date(m.customYear, m.customMonth, 1, 0, 0, 0, 0, time.UTC).Format("01/2006")
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, "  ", m.theme.Bold.Render("◀ "+month+" ▶"))
	}

	for _, column := range m.facets {
		label := m.theme.Subtitle.Render(column + ": ")
		if column == m.Facet() && len(m.facets) > 1 {
			label = m.theme.Selected.Render(column + ": ")
		}
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, "  ", label, m.theme.Bold.Render(m.FilterLabel(column)))
	}
	return line
}

func (m Model) renderBody() string {
	res := m.result
	width := max(m.width-4, 20)

	sections := []string{cli.RenderTotals(res)}
	if metric, ok := cli.MetricByKey(res, m.MetricKey()); ok {
		points := res.Series[metric.Key]
		sections = append(sections,
			m.theme.Bold.Render(metric.Title),
			cli.RenderChart(points, width, m.chartHeight()),
		)
	}
	if column := m.pipeline.Dashboard().GroupColumn; column != "" && len(m.selection.Categories[column]) == 0 {
		sections = append(sections, cli.RenderGroups(res, column))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) chartHeight() int {
	return min(max(m.height/3, 6), 16)
}

func (m Model) renderStatus() string {
	res := m.result
	parts := []string{fmt.Sprintf("%d of %d rows", res.Matched, res.Total)}
	if res.Latest != "" {
		parts = append(parts, "latest "+res.Latest)
	}
	parts = append(parts, "updated "+m.fetchedAt.In(m.pipeline.Location()).Format("15:04:05"))
	status := m.theme.StatusBar.Render(strings.Join(parts, " · "))

	switch {
	case m.refreshing:
		status += "  " + m.theme.StatusOK.Render("refreshing...")
	case m.lastError != nil:
		status += "  " + m.theme.StatusError.Render(common.UserMessage(m.lastError))
	case res.Origin == pipeline.OriginCache:
		status += "  " + m.theme.StatusStale.Render("offline, showing cached data")
	}
	return status
}
