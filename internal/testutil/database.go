// Package testutil holds fixtures shared by the package tests: a migrated
// snapshot cache and a builder for sheet grids.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/sheetboard/internal/service"
	"github.com/Veraticus/sheetboard/internal/storage"
)

// TestDB wraps a migrated snapshot cache living in the test's temp dir.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated cache that is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{Storage: store, t: t}
}

// Seed stores a grid as the cached copy of a sheet range.
func (db *TestDB) Seed(spreadsheetID, readRange string, at time.Time, grid [][]string) {
	db.t.Helper()
	err := db.Storage.SaveSnapshot(context.Background(), &service.Snapshot{
		SpreadsheetID: spreadsheetID,
		ReadRange:     readRange,
		FetchedAt:     at,
		Grid:          grid,
	})
	if err != nil {
		db.t.Fatalf("failed to seed snapshot: %v", err)
	}
}

// MustLatest returns the newest cached grid for a range or fails the test.
func (db *TestDB) MustLatest(spreadsheetID, readRange string) *service.Snapshot {
	db.t.Helper()
	snap, err := db.Storage.LatestSnapshot(context.Background(), spreadsheetID, readRange)
	if err != nil {
		db.t.Fatalf("no cached snapshot for %s %s: %v", spreadsheetID, readRange, err)
	}
	return snap
}
