// Package service defines the interfaces shared between the data sources,
// the cache and the presentation layers.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/sheetboard/internal/model"
)

// GridSource returns the raw cell grid of a sheet range. The first row is
// the header row.
type GridSource interface {
	Fetch(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
}

// Snapshot is a persisted grid fetched from a sheet.
type Snapshot struct {
	FetchedAt     time.Time
	ID            string
	SpreadsheetID string
	ReadRange     string
	Grid          [][]string
	RowCount      int
}

// SnapshotStore persists fetched grids so the dashboards still render when
// the sheet cannot be reached.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LatestSnapshot(ctx context.Context, spreadsheetID, readRange string) (*Snapshot, error)
	PruneSnapshots(ctx context.Context, spreadsheetID, readRange string, keep int) (int64, error)
	Close() error
}

// Report is a rendered dashboard result ready to be exported.
type Report struct {
	GeneratedAt time.Time
	Dashboard   model.Dashboard
	Window      string
	Headers     []string
	Rows        [][]any
}

// ReportWriter exports a report somewhere outside the process.
type ReportWriter interface {
	Write(ctx context.Context, report *Report) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults fills zero fields with the standard retry policy.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.MaxDelay < o.InitialDelay {
		o.MaxDelay = o.InitialDelay
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}
