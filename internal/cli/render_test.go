package cli

import (
	"strings"
	"testing"

	"github.com/Veraticus/sheetboard/internal/aggregate"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"42", "42"},
		{"42.00", "42"},
		{"-3", "-3"},
		{"1.5", "1.50"},
		{"1234.567", "1234.57"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFoldTail(t *testing.T) {
	points := make([]aggregate.Point, 20)
	for i := range points {
		points[i] = aggregate.Point{Label: string(rune('a' + i)), Value: decimal.NewFromInt(1)}
	}

	folded := foldTail(points, MaxChartBars)
	require.Len(t, folded, MaxChartBars)
	last := folded[len(folded)-1]
	assert.Equal(t, "+6 others", last.Label)
	assert.True(t, decimal.NewFromInt(6).Equal(last.Value))

	assert.Len(t, foldTail(points[:3], MaxChartBars), 3)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "Ana", shorten("Ana", 5))
	assert.Equal(t, "Gabr…", shorten("Gabriela", 5))
	assert.Equal(t, "Ç", shorten("ÇÃO", 1))
}

func TestRenderChart(t *testing.T) {
	assert.Contains(t, RenderChart(nil, 40, 10), "No data")

	out := RenderChart([]aggregate.Point{
		{Label: "Ana", Value: decimal.NewFromInt(10)},
		{Label: "Bruno", Value: decimal.NewFromInt(4)},
	}, 40, 10)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestRenderResult(t *testing.T) {
	res := runBoard(t, salesBoard(), period.Month)
	res.Origin = pipeline.OriginCache

	out := RenderResult(res, "leads", "VENDEDOR", 60)
	assert.Contains(t, out, "Vendas")
	assert.Contains(t, out, "01/09/2025 - 30/09/2025")
	assert.Contains(t, out, "3 of 3 rows")
	assert.Contains(t, out, "cached data")
	assert.Contains(t, out, "Bruno")
	assert.Contains(t, out, "120.50")
}

func TestRenderGroups_Empty(t *testing.T) {
	res := runBoard(t, salesBoard(), period.Custom)
	assert.Contains(t, RenderGroups(res, "VENDEDOR"), "No data for this period")
}

func TestMetricByKey(t *testing.T) {
	res := runBoard(t, salesBoard(), period.Month)

	m, ok := MetricByKey(res, "")
	require.True(t, ok)
	assert.Equal(t, "leads", m.Key)

	m, ok = MetricByKey(res, "FATURAMENTO")
	require.True(t, ok)
	assert.Equal(t, "faturamento", m.Key)

	_, ok = MetricByKey(res, "missing")
	assert.False(t, ok)
}

func TestPeriodBar(t *testing.T) {
	out := PeriodBar(period.Week)
	for _, k := range period.Kinds {
		assert.Contains(t, out, k.Label())
	}
}
