package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/Veraticus/sheetboard/internal/dates"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(owner string, leads, sales model.Value) model.Record {
	r := model.Record{"LEADS": leads, "VENDAS": sales}
	if owner != "" {
		r["VENDEDOR"] = model.Text(owner)
	}
	return r
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		in   model.Value
		want string
	}{
		{name: "number", in: model.Number(5), want: "5"},
		{name: "fraction", in: model.Number(0.1), want: "0.1"},
		{name: "numeric text", in: model.Text(" 3 "), want: "3"},
		{name: "blank", in: model.Text(""), want: "0"},
		{name: "words", in: model.Text("cinco"), want: "0"},
		{name: "nan text", in: model.Text("NaN"), want: "0"},
		{name: "nan number", in: model.Number(math.NaN()), want: "0"},
		{name: "infinite number", in: model.Number(math.Inf(1)), want: "0"},
		{name: "comma decimal", in: model.Text("1,5"), want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(Coerce(tt.in)), "got %s", Coerce(tt.in))
		})
	}
}

func TestSum(t *testing.T) {
	records := []model.Record{
		rec("Ana", model.Text("5"), model.Number(1)),
		rec("Bruno", model.Number(3), model.Text("")),
		rec("Ana", model.Text("x"), model.Number(2)),
		{"VENDEDOR": model.Text("Carla")},
	}

	totals := Sum(records, []string{"LEADS", "VENDAS", "FATURAMENTO"})
	assert.True(t, dec("8").Equal(totals.Get("LEADS")))
	assert.True(t, dec("3").Equal(totals.Get("VENDAS")))
	assert.True(t, decimal.Zero.Equal(totals.Get("FATURAMENTO")))
	assert.Len(t, totals, 3)
	assert.InDelta(t, 8.0, totals.Float("LEADS"), 1e-9)
}

func TestSum_DecimalPrecision(t *testing.T) {
	records := make([]model.Record, 10)
	for i := range records {
		records[i] = model.Record{"FATURAMENTO": model.Number(0.1)}
	}
	totals := Sum(records, []string{"FATURAMENTO"})
	assert.Equal(t, "1", totals.Get("FATURAMENTO").String())
}

func TestSum_EmptyDataset(t *testing.T) {
	totals := Sum(nil, []string{"LEADS", "VENDAS"})
	require.Len(t, totals, 2)
	for field, v := range totals {
		assert.True(t, v.IsZero(), field)
	}
	assert.True(t, Sum(nil, nil).Get("LEADS").IsZero())
}

func TestSum_NonNegativeInputsGiveNonNegativeTotals(t *testing.T) {
	var records []model.Record
	for i := 0; i < 50; i++ {
		records = append(records, model.Record{
			"A": model.Number(float64(i % 7)),
			"B": model.Text("n/a"),
		})
	}
	totals := Sum(records, []string{"A", "B"})
	for field, v := range totals {
		assert.False(t, v.IsNegative(), field)
	}
}

func TestSum_Idempotent(t *testing.T) {
	records := []model.Record{
		rec("Ana", model.Number(2), model.Number(1)),
		rec("Bruno", model.Number(4), model.Text("3")),
	}
	fields := []string{"LEADS", "VENDAS"}

	assert.Equal(t, Sum(records, fields), Sum(records, fields))
	assert.Equal(t, ByGroup(records, "VENDEDOR", fields, "LEADS"), ByGroup(records, "VENDEDOR", fields, "LEADS"))
}

func TestByGroup(t *testing.T) {
	records := []model.Record{
		rec("Ana", model.Number(2), model.Number(1)),
		rec("Bruno", model.Number(5), model.Number(0)),
		rec("", model.Number(100), model.Number(100)),
		rec("Carla", model.Number(2), model.Number(4)),
		rec("Ana", model.Number(1), model.Number(1)),
		rec("Davi", model.Number(3), model.Number(0)),
	}

	groups := ByGroup(records, "VENDEDOR", []string{"LEADS", "VENDAS"}, "LEADS")
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Label
	}

	// Ana and Davi tie on 3 leads; Ana was seen first.
	assert.Equal(t, []string{"Bruno", "Ana", "Davi", "Carla"}, labels)
	assert.True(t, dec("2").Equal(groups[1].Totals.Get("VENDAS")))
}

func TestByGroup_PrimaryDefaultsToFirstField(t *testing.T) {
	records := []model.Record{
		rec("Ana", model.Number(1), model.Number(9)),
		rec("Bruno", model.Number(2), model.Number(0)),
	}
	groups := ByGroup(records, "VENDEDOR", []string{"LEADS", "VENDAS"}, "")
	require.Len(t, groups, 2)
	assert.Equal(t, "Bruno", groups[0].Label)
}

func TestByGroup_Empty(t *testing.T) {
	groups := ByGroup(nil, "VENDEDOR", []string{"LEADS"}, "LEADS")
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestSeries(t *testing.T) {
	groups := []Group{
		{Label: "Ana", Totals: Totals{"LEADS": dec("3"), "VENDAS": dec("1")}},
		{Label: "Bruno", Totals: Totals{"LEADS": dec("2"), "VENDAS": dec("4")}},
		{Label: "Carla", Totals: Totals{"LEADS": dec("1"), "VENDAS": dec("1")}},
	}

	series := Series(groups, "VENDAS")
	require.Len(t, series, 3)
	assert.Equal(t, "Bruno", series[0].Label)
	assert.Equal(t, "Ana", series[1].Label)
	assert.Equal(t, "Carla", series[2].Label)
}

func TestByDate(t *testing.T) {
	parser := dates.Parser{}
	dateOf := func(r model.Record) (dates.ParsedDate, bool) {
		v, ok := r.Get("DATA")
		if !ok {
			return dates.ParsedDate{}, false
		}
		return parser.Parse(v.String())
	}

	records := []model.Record{
		{"DATA": model.Text("02/08/2025"), "LEADS": model.Number(1)},
		{"DATA": model.Text("01/08/2025"), "LEADS": model.Number(2)},
		{"DATA": model.Text("02/08/2025"), "LEADS": model.Number(4)},
		{"DATA": model.Text("ontem"), "LEADS": model.Number(8)},
	}

	days := ByDate(records, dateOf, []string{"LEADS"})
	require.Len(t, days, 2)
	assert.Equal(t, dates.ParsedDate{Day: 1, Month: time.August, Year: 2025}, days[0].Date)
	assert.True(t, dec("2").Equal(days[0].Totals.Get("LEADS")))
	assert.True(t, dec("5").Equal(days[1].Totals.Get("LEADS")))
}

func TestOptions(t *testing.T) {
	records := []model.Record{
		rec("Bruno", model.Number(1), model.Number(1)),
		rec("Ana", model.Number(1), model.Number(1)),
		rec("", model.Number(1), model.Number(1)),
		rec("Bruno", model.Number(1), model.Number(1)),
	}
	assert.Equal(t, []string{"Ana", "Bruno"}, Options(records, "VENDEDOR"))
	assert.Empty(t, Options(nil, "VENDEDOR"))
}
