package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/filter"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

var errUnknownField = errors.New("unknown category column")

// reservedParams are the summary query parameters that are not category
// filters.
var reservedParams = map[string]bool{"period": true, "month": true, "year": true}

// DashboardInfo describes a served dashboard.
type DashboardInfo struct {
	UpdatedAt       time.Time       `json:"updated_at"`
	FetchedAt       time.Time       `json:"fetched_at"`
	Name            string          `json:"name"`
	Title           string          `json:"title"`
	GroupColumn     string          `json:"group_column,omitempty"`
	Origin          pipeline.Origin `json:"origin,omitempty"`
	Error           string          `json:"error,omitempty"`
	CategoryColumns []string        `json:"category_columns,omitempty"`
	Metrics         []model.Metric  `json:"metrics"`
	Rows            int             `json:"rows"`
	Ready           bool            `json:"ready"`
}

// OptionsResponse lists the values of one category column.
type OptionsResponse struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the dashboard API from a registry.
type Handler struct {
	registry      *Registry
	now           func() time.Time
	defaultPeriod period.Kind
}

// NewHandler creates a handler. Summaries without a period use
// defaultPeriod.
func NewHandler(registry *Registry, defaultPeriod period.Kind) *Handler {
	if defaultPeriod == "" {
		defaultPeriod = period.Yesterday
	}
	return &Handler{
		registry:      registry,
		now:           time.Now,
		defaultPeriod: defaultPeriod,
	}
}

// ListDashboards returns every dashboard and the state of its data.
func (h *Handler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	out := make([]DashboardInfo, 0, len(names))
	for _, name := range names {
		b, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, info(b))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func info(b Board) DashboardInfo {
	d := b.Pipeline.Dashboard()
	i := DashboardInfo{
		Name:            d.Name,
		Title:           d.Title,
		GroupColumn:     d.GroupColumn,
		CategoryColumns: d.CategoryColumns,
		Metrics:         d.Metrics,
		UpdatedAt:       b.UpdatedAt,
		Ready:           b.Snapshot != nil,
	}
	if b.Snapshot != nil {
		i.FetchedAt = b.Snapshot.FetchedAt
		i.Origin = b.Snapshot.Origin
		i.Rows = len(b.Snapshot.Rows)
	}
	if b.Err != nil {
		i.Error = common.UserMessage(b.Err)
	}
	return i
}

// GetSummary runs a selection against a dashboard's latest snapshot.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}

	sel, err := h.selection(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, r, http.StatusOK, b.Pipeline.Run(b.Snapshot, sel, h.now()))
}

// GetOptions lists the distinct values of a category column.
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}

	field := chi.URLParam(r, "field")
	if !b.Pipeline.Dashboard().HasCategory(field) {
		writeError(w, r, http.StatusNotFound, common.NewUserError(
			"dashboard has no category column "+field, errUnknownField))
		return
	}

	writeJSON(w, r, http.StatusOK, OptionsResponse{
		Field:  field,
		Values: b.Pipeline.Options(b.Snapshot, field),
	})
}

// Health reports whether every dashboard has data to serve.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	for _, name := range h.registry.Names() {
		b, err := h.registry.Get(name)
		switch {
		case err != nil:
			continue
		case b.Snapshot == nil:
			status[name] = "loading"
			code = http.StatusServiceUnavailable
		case b.Snapshot.Origin == pipeline.OriginCache:
			status[name] = "cached"
		default:
			status[name] = "ok"
		}
	}
	writeJSON(w, r, code, status)
}

// board resolves the dashboard in the URL. It writes the error response
// itself and reports false when the request cannot be served.
func (h *Handler) board(w http.ResponseWriter, r *http.Request) (Board, bool) {
	name := strings.ToLower(chi.URLParam(r, "name"))
	b, err := h.registry.Get(name)
	if err != nil {
		writeError(w, r, http.StatusNotFound, common.NewUserError("unknown dashboard "+name, err))
		return Board{}, false
	}
	if b.Snapshot == nil {
		msg := "dashboard data is still loading"
		if b.Err != nil {
			msg = common.UserMessage(b.Err)
		}
		writeError(w, r, http.StatusServiceUnavailable, common.NewUserError(msg, common.ErrNoData))
		return Board{}, false
	}
	return b, true
}

// selection reads the period, the custom month and any category filters
// from the query string. Filters take comma separated values and may be
// repeated.
func (h *Handler) selection(r *http.Request) (pipeline.Selection, error) {
	q := r.URL.Query()

	kind := h.defaultPeriod
	if p := q.Get("period"); p != "" {
		k, err := period.ParseKind(p)
		if err != nil {
			return pipeline.Selection{}, err
		}
		kind = k
	}

	sel := pipeline.Selection{
		Period:      kind,
		CustomMonth: q.Get("month"),
		CustomYear:  q.Get("year"),
	}
	for column, values := range q {
		if reservedParams[column] {
			continue
		}
		var chosen []string
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					chosen = append(chosen, part)
				}
			}
		}
		if sel.Categories == nil {
			sel.Categories = filter.Selection{}
		}
		sel.Categories[column] = chosen
	}
	return sel, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.Logger(r.Context()).Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, errorResponse{Error: common.UserMessage(err)})
}
