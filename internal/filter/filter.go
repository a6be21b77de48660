// Package filter selects the records that fall inside a period window and
// match the chosen category values.
package filter

import (
	"strings"

	"github.com/Veraticus/sheetboard/internal/dates"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/period"
)

// Row is a record with its parsed date attached. HasDate is false when the
// record's date could not be read.
type Row struct {
	Record  model.Record
	Date    dates.ParsedDate
	HasDate bool
}

// Selection maps a category column to the accepted values. A column with no
// values places no constraint on the records.
type Selection map[string][]string

// Active returns the columns that actually constrain records.
func (s Selection) Active() []string {
	var fields []string
	for field, values := range s {
		if len(nonBlank(values)) > 0 {
			fields = append(fields, field)
		}
	}
	return fields
}

// Matches reports whether a record satisfies every category constraint.
func (s Selection) Matches(r model.Record) bool {
	for field, values := range s {
		values = nonBlank(values)
		if len(values) == 0 {
			continue
		}
		if !contains(values, r.String(field)) {
			return false
		}
	}
	return true
}

// Apply returns the rows inside the window that match the selection. Rows
// without a readable date never match.
func Apply(rows []Row, window period.Window, sel Selection) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !row.HasDate || !window.Contains(row.Date) {
			continue
		}
		if !sel.Matches(row.Record) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Records strips the parsed dates from a slice of rows.
func Records(rows []Row) []model.Record {
	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.Record
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if strings.TrimSpace(candidate) == v {
			return true
		}
	}
	return false
}

func nonBlank(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
