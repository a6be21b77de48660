package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/sheetboard/internal/dates"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/Veraticus/sheetboard/internal/sheets"
	"github.com/Veraticus/sheetboard/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_SQLiteCacheRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	board := model.Dashboard{
		Name:          "vendas",
		SpreadsheetID: "sheet",
		Range:         "2025!A:Z",
		DateColumns:   []string{"DATA"},
		GroupColumn:   "VENDEDOR",
		Metrics:       []model.Metric{{Key: "leads", Column: "LEADS"}},
	}
	grid := testutil.NewGrid(t, "DATA", "VENDEDOR", "LEADS").
		Row("01/08/2025", "Ana", "5").
		Row("02/08/2025", "Bruno", "3").
		Row("sem data", "Ana", "9").
		Build()

	remote := sheets.NewMockReader(map[string][][]string{"sheet": grid})
	p := pipeline.New(board, dates.Parser{}, time.UTC)
	loader := NewLoader(newSource(remote, db.Storage), p)

	fresh, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipeline.OriginRemote, fresh.Origin)
	assert.Equal(t, grid, db.MustLatest("sheet", "2025!A:Z").Grid)

	remote.FetchFunc = func(context.Context, string, string) ([][]string, error) {
		return nil, errors.New("quota exceeded")
	}
	cached, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipeline.OriginCache, cached.Origin)
	assert.True(t, fixedNow.Equal(cached.FetchedAt))

	sel := pipeline.Selection{Period: period.Week}
	want := p.Run(fresh, sel, fixedNow)
	got := p.Run(cached, sel, fixedNow)
	assert.Equal(t, want.Matched, got.Matched)
	assert.Equal(t, 1, got.Skipped)
	assert.True(t, decimal.NewFromInt(8).Equal(got.Totals.Get("leads")))
}

func TestLoader_SeededCacheWithoutRemote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	at := time.Date(2025, time.July, 31, 18, 0, 0, 0, time.UTC)
	db.Seed("sheet", "2025!A:Z", at, testutil.NewGrid(t, "DATA", "LEADS").Row("31/07/2025", "2").Build())

	remote := sheets.NewMockReader(nil)
	remote.FetchFunc = func(context.Context, string, string) ([][]string, error) {
		return nil, errors.New("network unreachable")
	}
	board := model.Dashboard{
		Name:          "adm",
		SpreadsheetID: "sheet",
		Range:         "2025!A:Z",
		DateColumns:   []string{"DATA"},
		Metrics:       []model.Metric{{Key: "leads", Column: "LEADS"}},
	}
	loader := NewLoader(newSource(remote, db.Storage), pipeline.New(board, dates.Parser{}, time.UTC))

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipeline.OriginCache, snap.Origin)
	assert.Equal(t, "31/07/2025", snap.Latest.String())
	assert.True(t, at.Equal(snap.FetchedAt))
}
