package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/service"
	"github.com/google/uuid"
)

// SaveSnapshot stores a fetched grid. An empty ID is filled with a new UUID.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap *service.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	grid, err := json.Marshal(snap.Grid)
	if err != nil {
		return fmt.Errorf("failed to encode grid: %w", err)
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.RowCount = max(len(snap.Grid)-1, 0)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, spreadsheet_id, read_range, fetched_at, row_count, grid)
			VALUES (?, ?, ?, ?, ?, ?)`,
			snap.ID, snap.SpreadsheetID, snap.ReadRange, snap.FetchedAt.UTC().UnixNano(), snap.RowCount, string(grid))
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		if s.keep > 0 {
			if _, err := pruneTx(ctx, tx, snap.SpreadsheetID, snap.ReadRange, s.keep); err != nil {
				return err
			}
		}
		return nil
	})
}

// LatestSnapshot returns the most recently fetched grid for a sheet range,
// or common.ErrNotFound.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context, spreadsheetID, readRange string) (*service.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		snap      service.Snapshot
		fetchedAt int64
		grid      string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, spreadsheet_id, read_range, fetched_at, row_count, grid
		FROM snapshots
		WHERE spreadsheet_id = ? AND read_range = ?
		ORDER BY fetched_at DESC
		LIMIT 1`,
		spreadsheetID, readRange,
	).Scan(&snap.ID, &snap.SpreadsheetID, &snap.ReadRange, &fetchedAt, &snap.RowCount, &grid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot for %s %s: %w", spreadsheetID, readRange, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(grid), &snap.Grid); err != nil {
		return nil, fmt.Errorf("failed to decode grid of snapshot %s: %w", snap.ID, err)
	}
	snap.FetchedAt = time.Unix(0, fetchedAt).UTC()
	return &snap, nil
}

// PruneSnapshots deletes all but the newest keep snapshots of a sheet range
// and returns how many were removed.
func (s *SQLiteStorage) PruneSnapshots(ctx context.Context, spreadsheetID, readRange string, keep int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		removed, err = pruneTx(ctx, tx, spreadsheetID, readRange, keep)
		return err
	})
	return removed, err
}

func pruneTx(ctx context.Context, tx *sql.Tx, spreadsheetID, readRange string, keep int) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE spreadsheet_id = ? AND read_range = ?
		AND id NOT IN (
			SELECT id FROM snapshots
			WHERE spreadsheet_id = ? AND read_range = ?
			ORDER BY fetched_at DESC
			LIMIT ?
		)`,
		spreadsheetID, readRange, spreadsheetID, readRange, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	return n, nil
}
