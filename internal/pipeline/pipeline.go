// Package pipeline runs the period filter and aggregation for one dashboard.
//
// A Pipeline is built once per dashboard from its column mapping. Every
// fetched sheet becomes a Snapshot, which parses each row's date and finds
// the latest date exactly once. Selections are then run against the
// snapshot as often as the user changes them.
package pipeline

import (
	"time"

	"github.com/Veraticus/sheetboard/internal/aggregate"
	"github.com/Veraticus/sheetboard/internal/dates"
	"github.com/Veraticus/sheetboard/internal/filter"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/Veraticus/sheetboard/internal/period"
)

// Origin records where a snapshot's rows came from.
type Origin string

const (
	// OriginRemote means the rows were fetched from the spreadsheet.
	OriginRemote Origin = "remote"
	// OriginCache means the rows were read from the local snapshot cache.
	OriginCache Origin = "cache"
)

// Snapshot is an immutable, date-parsed view of one fetch.
type Snapshot struct {
	FetchedAt time.Time
	Origin    Origin
	Rows      []filter.Row
	Latest    dates.ParsedDate
	Skipped   int
	HasLatest bool
}

// Records returns every record in the snapshot.
func (s *Snapshot) Records() []model.Record {
	if s == nil {
		return nil
	}
	return filter.Records(s.Rows)
}

// Selection is the user's current choice of period and categories.
type Selection struct {
	Categories  filter.Selection `json:"categories,omitempty"`
	Period      period.Kind      `json:"period"`
	CustomMonth string           `json:"month,omitempty"`
	CustomYear  string           `json:"year,omitempty"`
}

// Result is everything the presentation layer needs for one selection.
type Result struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	FetchedAt   time.Time                    `json:"fetched_at"`
	Window      period.Window                `json:"window"`
	Totals      aggregate.Totals             `json:"totals"`
	Series      map[string][]aggregate.Point `json:"series"`
	Dashboard   string                       `json:"dashboard"`
	Title       string                       `json:"title"`
	Origin      Origin                       `json:"origin"`
	Latest      string                       `json:"latest_date,omitempty"`
	Groups      []aggregate.Group            `json:"groups"`
	Daily       []aggregate.Day              `json:"daily"`
	Metrics     []model.Metric               `json:"metrics"`
	Selection   Selection                    `json:"selection"`
	Matched     int                          `json:"matched"`
	Total       int                          `json:"total"`
	Skipped     int                          `json:"skipped"`
}

// Pipeline binds a dashboard's column mapping to the shared filter and
// aggregation logic.
type Pipeline struct {
	location  *time.Location
	parser    dates.Parser
	dashboard model.Dashboard
}

// New creates a pipeline. loc is the business timezone for today and
// yesterday; nil means UTC.
func New(dashboard model.Dashboard, parser dates.Parser, loc *time.Location) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	if parser.Location == nil {
		parser.Location = loc
	}
	return &Pipeline{
		dashboard: dashboard,
		parser:    parser,
		location:  loc,
	}
}

// Dashboard returns the dashboard this pipeline serves.
func (p *Pipeline) Dashboard() model.Dashboard {
	return p.dashboard
}

// Location returns the business timezone.
func (p *Pipeline) Location() *time.Location {
	return p.location
}

// DateOf parses the date of a record using the dashboard's date columns.
func (p *Pipeline) DateOf(r model.Record) (dates.ParsedDate, bool) {
	v, ok := r.Get(p.dashboard.DateColumns...)
	if !ok {
		return dates.ParsedDate{}, false
	}
	return p.parser.Parse(v.String())
}

// NewSnapshot parses every record's date and finds the latest one.
func (p *Pipeline) NewSnapshot(records []model.Record, fetchedAt time.Time, origin Origin) *Snapshot {
	snap := &Snapshot{
		FetchedAt: fetchedAt,
		Origin:    origin,
		Rows:      make([]filter.Row, len(records)),
	}

	parsed := make([]dates.ParsedDate, 0, len(records))
	for i, r := range records {
		d, ok := p.DateOf(r)
		snap.Rows[i] = filter.Row{Record: r, Date: d, HasDate: ok}
		if ok {
			parsed = append(parsed, d)
		} else {
			snap.Skipped++
		}
	}

	snap.Latest, snap.HasLatest = period.LatestDate(parsed)
	return snap
}

// Window resolves the selection's period against a snapshot.
func (p *Pipeline) Window(snap *Snapshot, sel Selection, now time.Time) period.Window {
	req := period.Request{
		Kind:        sel.Period,
		Now:         now,
		Location:    p.location,
		CustomMonth: sel.CustomMonth,
		CustomYear:  sel.CustomYear,
	}
	if snap != nil {
		req.Latest = snap.Latest
		req.HasLatest = snap.HasLatest
	}
	return period.Resolve(req)
}

// Run filters the snapshot by the selection and aggregates the matches.
// A nil snapshot behaves like an empty sheet.
func (p *Pipeline) Run(snap *Snapshot, sel Selection, now time.Time) Result {
	if snap == nil {
		snap = &Snapshot{}
	}

	window := p.Window(snap, sel, now)
	sel.Categories = p.knownCategories(sel.Categories)
	matched := filter.Records(filter.Apply(snap.Rows, window, sel.Categories))

	columns := p.dashboard.MetricColumns()
	primary := p.dashboard.Primary().Column

	result := Result{
		Dashboard:   p.dashboard.Name,
		Title:       p.dashboard.Title,
		Metrics:     p.dashboard.Metrics,
		Selection:   sel,
		Window:      window,
		Origin:      snap.Origin,
		FetchedAt:   snap.FetchedAt,
		GeneratedAt: now,
		Matched:     len(matched),
		Total:       len(snap.Rows),
		Skipped:     snap.Skipped,
		Totals:      p.byKey(aggregate.Sum(matched, columns)),
		Groups:      []aggregate.Group{},
		Series:      make(map[string][]aggregate.Point, len(p.dashboard.Metrics)),
	}
	if snap.HasLatest {
		result.Latest = snap.Latest.String()
	}

	daily := aggregate.ByDate(matched, p.DateOf, columns)
	result.Daily = make([]aggregate.Day, len(daily))
	for i, d := range daily {
		result.Daily[i] = aggregate.Day{Date: d.Date, Totals: p.byKey(d.Totals)}
	}

	if p.dashboard.GroupColumn != "" {
		groups := aggregate.ByGroup(matched, p.dashboard.GroupColumn, columns, primary)
		for _, g := range groups {
			result.Groups = append(result.Groups, aggregate.Group{Label: g.Label, Totals: p.byKey(g.Totals)})
		}
		for _, m := range p.dashboard.Metrics {
			result.Series[m.Key] = aggregate.Series(result.Groups, m.Key)
		}
		return result
	}

	for _, m := range p.dashboard.Metrics {
		points := make([]aggregate.Point, len(result.Daily))
		for i, d := range result.Daily {
			points[i] = aggregate.Point{Label: d.Date.String(), Value: d.Totals.Get(m.Key)}
		}
		result.Series[m.Key] = points
	}
	return result
}

// Options lists the values available for a category column across the
// whole snapshot, regardless of the current selection.
func (p *Pipeline) Options(snap *Snapshot, column string) []string {
	return aggregate.Options(snap.Records(), column)
}

// knownCategories drops selections on columns the dashboard does not
// filter by.
func (p *Pipeline) knownCategories(sel filter.Selection) filter.Selection {
	if len(sel) == 0 {
		return sel
	}
	out := make(filter.Selection, len(sel))
	for column, values := range sel {
		if p.dashboard.HasCategory(column) {
			out[column] = values
		}
	}
	return out
}

// byKey rekeys column totals by metric key.
func (p *Pipeline) byKey(totals aggregate.Totals) aggregate.Totals {
	out := make(aggregate.Totals, len(p.dashboard.Metrics))
	for _, m := range p.dashboard.Metrics {
		out[m.Key] = totals.Get(m.Column)
	}
	return out
}
