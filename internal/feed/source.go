// Package feed keeps dashboard snapshots fresh: it fetches sheet grids,
// caches them, falls back to the cache when the sheet is unreachable and
// polls on a fixed interval.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/service"
	"github.com/Veraticus/sheetboard/internal/sheets"
)

// Fetched is a grid together with where and when it was obtained.
type Fetched struct {
	FetchedAt time.Time
	Origin    pipeline.Origin
	Grid      [][]string
}

// CachingSource reads from the remote sheet, saves every successful read
// and serves the last saved grid when the remote read fails.
type CachingSource struct {
	remote service.GridSource
	store  service.SnapshotStore
	logger *slog.Logger
	now    func() time.Time
}

// NewCachingSource creates a caching source. store may be nil, in which
// case nothing is cached.
func NewCachingSource(remote service.GridSource, store service.SnapshotStore, logger *slog.Logger) *CachingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingSource{
		remote: remote,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Load fetches a sheet range. An empty sheet is a valid, empty result.
func (c *CachingSource) Load(ctx context.Context, spreadsheetID, readRange string) (*Fetched, error) {
	grid, err := c.remote.Fetch(ctx, spreadsheetID, readRange)
	fetchedAt := c.now()

	switch {
	case err == nil:
		c.save(ctx, spreadsheetID, readRange, grid, fetchedAt)
		return &Fetched{Grid: grid, FetchedAt: fetchedAt, Origin: pipeline.OriginRemote}, nil

	case errors.Is(err, common.ErrNoData):
		c.logger.Info("sheet range is empty", "spreadsheet_id", spreadsheetID, "range", readRange)
		return &Fetched{Grid: [][]string{}, FetchedAt: fetchedAt, Origin: pipeline.OriginRemote}, nil

	case ctx.Err() != nil:
		return nil, ctx.Err()
	}

	if c.store == nil {
		return nil, err
	}

	snap, cacheErr := c.store.LatestSnapshot(ctx, spreadsheetID, readRange)
	if cacheErr != nil {
		if !errors.Is(cacheErr, common.ErrNotFound) {
			c.logger.Warn("failed to read snapshot cache", "error", cacheErr)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrSheetUnavailable, err)
	}

	c.logger.Warn("sheet unavailable, serving cached snapshot",
		"spreadsheet_id", spreadsheetID,
		"range", readRange,
		"cached_at", snap.FetchedAt,
		"error", err)

	return &Fetched{Grid: snap.Grid, FetchedAt: snap.FetchedAt, Origin: pipeline.OriginCache}, nil
}

func (c *CachingSource) save(ctx context.Context, spreadsheetID, readRange string, grid [][]string, at time.Time) {
	if c.store == nil {
		return
	}
	err := c.store.SaveSnapshot(ctx, &service.Snapshot{
		SpreadsheetID: spreadsheetID,
		ReadRange:     readRange,
		FetchedAt:     at,
		Grid:          grid,
	})
	if err != nil {
		// The fresh grid is still served.
		c.logger.Warn("failed to cache snapshot", "spreadsheet_id", spreadsheetID, "error", err)
	}
}

// Loader turns a dashboard's sheet into a pipeline snapshot.
type Loader struct {
	source   *CachingSource
	pipeline *pipeline.Pipeline
}

// NewLoader binds a source to a dashboard pipeline.
func NewLoader(source *CachingSource, p *pipeline.Pipeline) *Loader {
	return &Loader{source: source, pipeline: p}
}

// Pipeline returns the dashboard pipeline the loader feeds.
func (l *Loader) Pipeline() *pipeline.Pipeline {
	return l.pipeline
}

// Load fetches the dashboard's range and parses it into a snapshot.
func (l *Loader) Load(ctx context.Context) (*pipeline.Snapshot, error) {
	d := l.pipeline.Dashboard()
	fetched, err := l.source.Load(ctx, d.SpreadsheetID, d.ReadRange())
	if err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", d.Name, err)
	}
	return l.pipeline.NewSnapshot(sheets.ParseGrid(fetched.Grid), fetched.FetchedAt, fetched.Origin), nil
}
