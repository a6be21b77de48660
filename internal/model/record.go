// Package model defines the core data types shared across sheetboard.
package model

import (
	"math"
	"strconv"
	"strings"
)

// Value is a single spreadsheet cell, holding either text or a number.
type Value struct {
	Text     string
	Number   float64
	IsNumber bool
}

// Text creates a text value.
func Text(s string) Value {
	return Value{Text: s}
}

// Number creates a numeric value.
func Number(n float64) Value {
	return Value{Number: n, IsNumber: true}
}

// Cell converts a raw cell string into a Value. Trimmed strings that parse
// as finite numbers become numbers; everything else stays text untouched.
func Cell(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Text(raw)
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Text(raw)
	}
	return Number(n)
}

// String returns the value as it would be displayed.
func (v Value) String() string {
	if v.IsNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// IsBlank reports whether the value carries no content.
func (v Value) IsBlank() bool {
	return !v.IsNumber && strings.TrimSpace(v.Text) == ""
}

// Record is one spreadsheet row keyed by column header.
type Record map[string]Value

// Get returns the value for the first column in names that is present and
// not blank.
func (r Record) Get(names ...string) (Value, bool) {
	for _, name := range names {
		if v, ok := r[name]; ok && !v.IsBlank() {
			return v, true
		}
	}
	return Value{}, false
}

// String returns the display string for a column, or "" when absent.
func (r Record) String(name string) string {
	v, ok := r[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}
