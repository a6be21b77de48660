// Package aggregate sums metric columns into totals and chart-ready series.
package aggregate

import (
	"sort"
	"strings"

	"github.com/Veraticus/sheetboard/internal/dates"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Totals maps a metric column to its summed value.
type Totals map[string]decimal.Decimal

// Get returns the total for a field, zero when absent.
func (t Totals) Get(field string) decimal.Decimal {
	if v, ok := t[field]; ok {
		return v
	}
	return decimal.Zero
}

// Float returns the total for a field as a float64 for charting.
func (t Totals) Float(field string) float64 {
	return t.Get(field).InexactFloat64()
}

// Group is the totals for one category value.
type Group struct {
	Totals Totals `json:"totals"`
	Label  string `json:"label"`
}

// Point is a single labelled value in a chart series.
type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Day is the totals for one calendar date.
type Day struct {
	Totals Totals           `json:"totals"`
	Date   dates.ParsedDate `json:"date"`
}

// Coerce converts a cell into a number. Anything that is not a finite
// number counts as zero.
func Coerce(v model.Value) decimal.Decimal {
	if v.IsNumber {
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.Text))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Sum adds the named fields across all records. Every field is present in
// the result, even when no record carries it.
func Sum(records []model.Record, fields []string) Totals {
	totals := zero(fields)
	for _, r := range records {
		add(totals, r, fields)
	}
	return totals
}

// ByGroup sums the fields per value of groupField. Records with a blank
// group are left out. Groups are ordered by the primary field, largest
// first; equal groups keep the order they were first seen in.
func ByGroup(records []model.Record, groupField string, fields []string, primary string) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, r := range records {
		label := r.String(groupField)
		if label == "" {
			continue
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label, Totals: zero(fields)})
		}
		add(groups[i].Totals, r, fields)
	}

	if primary == "" && len(fields) > 0 {
		primary = fields[0]
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Totals.Get(primary).GreaterThan(groups[j].Totals.Get(primary))
	})

	if groups == nil {
		return []Group{}
	}
	return groups
}

// Series extracts one field from grouped totals as a chart series, largest
// value first with ties in their existing order.
func Series(groups []Group, field string) []Point {
	points := make([]Point, len(groups))
	for i, g := range groups {
		points[i] = Point{Label: g.Label, Value: g.Totals.Get(field)}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value.GreaterThan(points[j].Value)
	})
	return points
}

// ByDate sums the fields per calendar date, oldest first. dateOf returns the
// parsed date of a record and false when it has none; those records are
// skipped.
func ByDate(records []model.Record, dateOf func(model.Record) (dates.ParsedDate, bool), fields []string) []Day {
	index := make(map[string]int)
	days := []Day{}

	for _, r := range records {
		d, ok := dateOf(r)
		if !ok {
			continue
		}
		key := dates.FromTime(d.Time()).String()
		i, seen := index[key]
		if !seen {
			i = len(days)
			index[key] = i
			days = append(days, Day{Date: dates.FromTime(d.Time()), Totals: zero(fields)})
		}
		add(days[i].Totals, r, fields)
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Time().Before(days[j].Date.Time())
	})
	return days
}

// Options lists the distinct non-blank values of a column, sorted.
func Options(records []model.Record, field string) []string {
	values := lo.Uniq(lo.FilterMap(records, func(r model.Record, _ int) (string, bool) {
		v := r.String(field)
		return v, v != ""
	}))
	sort.Strings(values)
	return values
}

func zero(fields []string) Totals {
	totals := make(Totals, len(fields))
	for _, f := range fields {
		totals[f] = decimal.Zero
	}
	return totals
}

func add(totals Totals, r model.Record, fields []string) {
	for _, f := range fields {
		v, ok := r[f]
		if !ok {
			continue
		}
		totals[f] = totals[f].Add(Coerce(v))
	}
}
