package tui

import (
	"time"

	"github.com/Veraticus/sheetboard/internal/pipeline"
)

// SnapshotMsg delivers a finished fetch. A failed fetch carries Err and
// leaves the previous snapshot on screen.
type SnapshotMsg struct {
	Snapshot *pipeline.Snapshot
	Err      error
}

// clockMsg re-runs the selection so today and yesterday roll over at
// midnight without a new fetch.
type clockMsg time.Time
