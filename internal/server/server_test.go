package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/sheetboard/internal/certs"
	"github.com/Veraticus/sheetboard/internal/dates"
	"github.com/Veraticus/sheetboard/internal/feed"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC)

func salesPipeline() *pipeline.Pipeline {
	return pipeline.New(model.Dashboard{
		Name:            "vendas",
		Title:           "Vendas",
		SpreadsheetID:   "sheet",
		DateColumns:     []string{"DATA"},
		GroupColumn:     "VENDEDOR",
		CategoryColumns: []string{"ORIGEM"},
		Metrics:         []model.Metric{{Key: "leads", Column: "LEADS", Title: "Leads"}},
	}, dates.Parser{Now: func() time.Time { return testNow }}, time.UTC)
}

func admPipeline() *pipeline.Pipeline {
	return pipeline.New(model.Dashboard{
		Name:          "adm",
		Title:         "Administrativo",
		SpreadsheetID: "sheet-adm",
		DateColumns:   []string{"DATA"},
		Metrics:       []model.Metric{{Key: "boleto", Column: "BOLETO", Title: "Boleto"}},
	}, dates.Parser{Now: func() time.Time { return testNow }}, time.UTC)
}

func salesSnapshot(p *pipeline.Pipeline) *pipeline.Snapshot {
	row := func(date, owner, origin, leads string) model.Record {
		return model.Record{
			"DATA":     model.Text(date),
			"VENDEDOR": model.Text(owner),
			"ORIGEM":   model.Text(origin),
			"LEADS":    model.Text(leads),
		}
	}
	return p.NewSnapshot([]model.Record{
		row("14/09/2025", "Ana", "site", "4"),
		row("14/09/2025", "Bruno", "indicação", "2"),
		row("10/09/2025", "Ana", "site", "1"),
		row("20/08/2025", "Carla", "site", "7"),
	}, testNow, pipeline.OriginRemote)
}

type fixture struct {
	registry *Registry
	api      *WebAPI
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	sales := salesPipeline()
	registry := NewRegistry(sales, admPipeline())
	registry.now = func() time.Time { return testNow }
	registry.Update("vendas", feed.Update{Snapshot: salesSnapshot(sales)})

	handler := NewHandler(registry, period.Yesterday)
	handler.now = func() time.Time { return testNow }

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return fixture{registry: registry, api: NewWebAPI(logger, Config{Addr: "127.0.0.1:0"}, handler)}
}

func (f fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.api.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestListDashboards(t *testing.T) {
	f := newFixture(t)

	var boards []DashboardInfo
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/dashboards", &boards))
	require.Len(t, boards, 2)

	assert.Equal(t, "adm", boards[0].Name)
	assert.False(t, boards[0].Ready)

	assert.Equal(t, "vendas", boards[1].Name)
	assert.True(t, boards[1].Ready)
	assert.Equal(t, 4, boards[1].Rows)
	assert.Equal(t, pipeline.OriginRemote, boards[1].Origin)
}

func TestGetSummary(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		matched int
		leads   string
	}{
		{name: "default period", query: "", matched: 2, leads: "6"},
		{name: "week", query: "?period=week", matched: 3, leads: "7"},
		{name: "portuguese alias", query: "?period=semana", matched: 3, leads: "7"},
		{name: "custom month", query: "?period=custom&month=8&year=2025", matched: 1, leads: "7"},
		{name: "custom without month", query: "?period=custom&year=2025", matched: 0, leads: "0"},
		{name: "owner filter", query: "?period=month&VENDEDOR=Ana", matched: 2, leads: "5"},
		{name: "comma separated", query: "?period=month&VENDEDOR=Ana,Bruno", matched: 3, leads: "7"},
		{name: "repeated values", query: "?period=month&VENDEDOR=Ana&VENDEDOR=Bruno", matched: 3, leads: "7"},
		{name: "blank filter", query: "?period=month&VENDEDOR=", matched: 3, leads: "7"},
		{name: "category column", query: "?period=month&ORIGEM=site", matched: 2, leads: "5"},
		{name: "unknown column ignored", query: "?period=month&LEADS=4", matched: 3, leads: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var res struct {
				Totals  map[string]string `json:"totals"`
				Matched int               `json:"matched"`
			}
			require.Equal(t, http.StatusOK, f.get(t, "/api/v1/dashboards/vendas/summary"+tt.query, &res))
			assert.Equal(t, tt.matched, res.Matched)
			assert.Equal(t, tt.leads, res.Totals["leads"])
		})
	}
}

func TestGetSummary_Errors(t *testing.T) {
	f := newFixture(t)
	var body errorResponse

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/dashboards/vendas/summary?period=decade", &body))
	assert.Contains(t, body.Error, "unknown period")

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/dashboards/missing/summary", &body))
	assert.Equal(t, "unknown dashboard missing", body.Error)

	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/api/v1/dashboards/adm/summary", &body))
	assert.Equal(t, "dashboard data is still loading", body.Error)

	f.registry.Update("adm", feed.Update{Err: errors.New("quota exceeded")})
	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/api/v1/dashboards/adm/summary", &body))
	assert.Equal(t, "quota exceeded", body.Error)
}

func TestGetSummary_FailedPollKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.registry.Update("vendas", feed.Update{Err: errors.New("timeout")})

	var res struct {
		Matched int `json:"matched"`
	}
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/dashboards/vendas/summary", &res))
	assert.Equal(t, 2, res.Matched)

	var boards []DashboardInfo
	f.get(t, "/api/v1/dashboards", &boards)
	assert.Equal(t, "timeout", boards[1].Error)
}

func TestGetOptions(t *testing.T) {
	f := newFixture(t)

	var opts OptionsResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/dashboards/vendas/options/VENDEDOR", &opts))
	assert.Equal(t, []string{"Ana", "Bruno", "Carla"}, opts.Values)

	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/dashboards/vendas/options/ORIGEM", &opts))
	assert.Equal(t, []string{"indicação", "site"}, opts.Values)

	var body errorResponse
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/dashboards/vendas/options/LEADS", &body))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	var status map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/healthz", &status))
	assert.Equal(t, "loading", status["adm"])
	assert.Equal(t, "ok", status["vendas"])

	adm := admPipeline()
	snap := adm.NewSnapshot(nil, testNow, pipeline.OriginCache)
	f.registry.Update("adm", feed.Update{Snapshot: snap})
	assert.Equal(t, http.StatusOK, f.get(t, "/healthz", &status))
	assert.Equal(t, "cached", status["adm"])
}

func TestRegistry_Watch(t *testing.T) {
	p := salesPipeline()
	registry := NewRegistry(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := feed.NewLoader(feed.NewCachingSource(staticGrid{}, nil, nil), p)
	done := make(chan struct{})
	go func() {
		defer close(done)
		registry.Watch(ctx, loader, time.Hour, nil)
	}()

	require.Eventually(t, func() bool {
		b, err := registry.Get("vendas")
		return err == nil && b.Snapshot != nil
	}, time.Second, 5*time.Millisecond)

	b, _ := registry.Get("vendas")
	assert.Len(t, b.Snapshot.Rows, 1)

	cancel()
	<-done
}

func TestWebAPI_StartStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- f.api.Start(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

type staticGrid struct{}

func (staticGrid) Fetch(context.Context, string, string) ([][]string, error) {
	return [][]string{{"DATA", "VENDEDOR", "LEADS"}, {"14/09/2025", "Ana", "3"}}, nil
}

func TestWebAPI_ServesTLS(t *testing.T) {
	cfg, err := certs.NewFileManager(t.TempDir()).TLSConfig()
	require.NoError(t, err)

	f := newFixture(t)
	api := NewWebAPI(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), Config{TLS: cfg}, NewHandler(f.registry, period.Week))

	srv := httptest.NewUnstartedServer(api.Handler())
	srv.TLS = cfg
	srv.StartTLS()
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/v1/dashboards")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
