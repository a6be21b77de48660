package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Dashboard validation errors.
var (
	ErrMissingSpreadsheet = errors.New("dashboard has no spreadsheet id")
	ErrMissingDateColumn  = errors.New("dashboard has no date column")
	ErrMissingMetrics     = errors.New("dashboard has no metrics")
)

// Metric is one numeric column charted by a dashboard.
type Metric struct {
	Key    string `mapstructure:"key" json:"key"`
	Column string `mapstructure:"column" json:"column"`
	Title  string `mapstructure:"title" json:"title"`
}

// Dashboard maps a spreadsheet's columns onto the shared pipeline.
type Dashboard struct {
	Name            string        `mapstructure:"-" json:"name"`
	Title           string        `mapstructure:"title" json:"title"`
	SpreadsheetID   string        `mapstructure:"spreadsheet_id" json:"spreadsheet_id"`
	SheetName       string        `mapstructure:"sheet" json:"sheet"`
	Range           string        `mapstructure:"range" json:"range,omitempty"`
	GroupColumn     string        `mapstructure:"group_column" json:"group_column,omitempty"`
	PrimaryMetric   string        `mapstructure:"primary_metric" json:"primary_metric,omitempty"`
	DateColumns     []string      `mapstructure:"date_columns" json:"date_columns"`
	CategoryColumns []string      `mapstructure:"category_columns" json:"category_columns,omitempty"`
	Metrics         []Metric      `mapstructure:"metrics" json:"metrics"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" json:"refresh_interval"`
}

// ReadRange returns the A1 range to fetch.
func (d Dashboard) ReadRange() string {
	if d.Range != "" {
		return d.Range
	}
	sheet := d.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!A:Z"
}

// MetricColumns returns the sheet columns of every metric, in order.
func (d Dashboard) MetricColumns() []string {
	cols := make([]string, len(d.Metrics))
	for i, m := range d.Metrics {
		cols[i] = m.Column
	}
	return cols
}

// Metric finds a metric by key or column name.
func (d Dashboard) Metric(name string) (Metric, bool) {
	for _, m := range d.Metrics {
		if m.Key == name || m.Column == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Primary returns the metric used to order grouped results.
func (d Dashboard) Primary() Metric {
	if m, ok := d.Metric(d.PrimaryMetric); ok {
		return m
	}
	if len(d.Metrics) > 0 {
		return d.Metrics[0]
	}
	return Metric{}
}

// HasCategory reports whether column is one of the dashboard's filters.
func (d Dashboard) HasCategory(column string) bool {
	for _, c := range d.CategoryColumns {
		if c == column {
			return true
		}
	}
	return column != "" && column == d.GroupColumn
}

// Validate checks that the dashboard can be fetched and aggregated.
func (d Dashboard) Validate() error {
	if strings.TrimSpace(d.SpreadsheetID) == "" {
		return fmt.Errorf("%s: %w", d.Name, ErrMissingSpreadsheet)
	}
	if len(d.DateColumns) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrMissingDateColumn)
	}
	if len(d.Metrics) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrMissingMetrics)
	}
	seen := make(map[string]bool, len(d.Metrics))
	for _, m := range d.Metrics {
		if m.Key == "" || m.Column == "" {
			return fmt.Errorf("%s: metric needs both key and column", d.Name)
		}
		if seen[m.Key] {
			return fmt.Errorf("%s: duplicate metric key %q", d.Name, m.Key)
		}
		seen[m.Key] = true
	}
	if d.RefreshInterval < 0 {
		return fmt.Errorf("%s: refresh interval cannot be negative", d.Name)
	}
	return nil
}
