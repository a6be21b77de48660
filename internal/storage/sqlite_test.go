package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store
}

func testSnapshot(at time.Time, rows ...[]string) *service.Snapshot {
	grid := append([][]string{{"DATA", "LEADS"}}, rows...)
	return &service.Snapshot{
		SpreadsheetID: "sheet",
		ReadRange:     "2025!A:Z",
		FetchedAt:     at,
		Grid:          grid,
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)

	older := testSnapshot(base, []string{"01/08/2025", "5"})
	newer := testSnapshot(base.Add(time.Minute), []string{"01/08/2025", "5"}, []string{"02/08/2025", "3"})
	require.NoError(t, store.SaveSnapshot(ctx, newer))
	require.NoError(t, store.SaveSnapshot(ctx, older))

	assert.NotEmpty(t, newer.ID)
	assert.Equal(t, 2, newer.RowCount)

	got, err := store.LatestSnapshot(ctx, "sheet", "2025!A:Z")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, newer.Grid, got.Grid)
	assert.True(t, got.FetchedAt.Equal(newer.FetchedAt))
	assert.Equal(t, 2, got.RowCount)
}

func TestLatestSnapshot_NotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.LatestSnapshot(context.Background(), "sheet", "other!A:Z")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPruneSnapshots(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		require.NoError(t, store.SaveSnapshot(ctx, testSnapshot(base.Add(time.Duration(i)*time.Minute))))
	}

	removed, err := store.PruneSnapshots(ctx, "sheet", "2025!A:Z", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	latest, err := store.LatestSnapshot(ctx, "sheet", "2025!A:Z")
	require.NoError(t, err)
	assert.True(t, latest.FetchedAt.Equal(base.Add(4*time.Minute)))
}

func TestSaveSnapshot_Retention(t *testing.T) {
	store := createTestStorage(t)
	store.SetRetention(1)
	ctx := context.Background()
	base := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, store.SaveSnapshot(ctx, testSnapshot(base.Add(time.Duration(i)*time.Second))))
	}

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSaveSnapshot_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveSnapshot(ctx, nil), ErrNilParameter)

	snap := testSnapshot(time.Now())
	snap.SpreadsheetID = " "
	assert.ErrorIs(t, store.SaveSnapshot(ctx, snap), ErrEmptyString)

	snap = testSnapshot(time.Time{})
	assert.ErrorIs(t, store.SaveSnapshot(ctx, snap), ErrInvalidGrid)
}

func TestSaveSnapshot_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewWithDB(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO snapshots").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = store.SaveSnapshot(context.Background(), testSnapshot(time.Now()))
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSnapshot_PruneFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewWithDB(db)
	store.SetRetention(3)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO snapshots").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM snapshots").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err = store.SaveSnapshot(context.Background(), testSnapshot(time.Now()))
	assert.ErrorContains(t, err, "failed to prune snapshots")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestSnapshot_CorruptGrid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"id", "spreadsheet_id", "read_range", "fetched_at", "row_count", "grid"}).
		AddRow("abc", "sheet", "2025!A:Z", int64(1), 1, "not json")
	mock.ExpectQuery("SELECT id, spreadsheet_id").WithArgs("sheet", "2025!A:Z").WillReturnRows(rows)

	_, err = NewWithDB(db).LatestSnapshot(context.Background(), "sheet", "2025!A:Z")
	assert.ErrorContains(t, err, "failed to decode grid")
	assert.NoError(t, mock.ExpectationsWereMet())
}
