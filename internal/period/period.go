// Package period resolves named reporting periods into inclusive date windows.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/sheetboard/internal/dates"
)

// Kind names a reporting period.
type Kind string

const (
	// Today is the current calendar day in the business timezone.
	Today Kind = "today"
	// Yesterday is the day before Today.
	Yesterday Kind = "yesterday"
	// Week is the seven days ending on the latest date in the dataset.
	Week Kind = "week"
	// Month is the calendar month of the latest date in the dataset.
	Month Kind = "month"
	// Custom is an explicit month and year chosen by the caller.
	Custom Kind = "custom"
)

// Kinds lists every period kind in display order.
var Kinds = []Kind{Today, Yesterday, Week, Month, Custom}

var aliases = map[string]Kind{
	"hoje":   Today,
	"ontem":  Yesterday,
	"semana": Week,
	"mes":    Month,
	"mês":    Month,
}

// ParseKind reads a period kind, accepting the Portuguese names used by the
// original dashboards.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if string(k) == key {
			return k, nil
		}
	}
	if k, ok := aliases[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown period %q (want today, yesterday, week, month or custom)", s)
}

// Label returns a human readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case Today:
		return "Today"
	case Yesterday:
		return "Yesterday"
	case Week:
		return "Last 7 days"
	case Month:
		return "This month"
	case Custom:
		return "Custom month"
	default:
		return string(k)
	}
}

// Window is an inclusive range of calendar dates. Start and End are
// midnight UTC. An Empty window matches nothing.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Kind  Kind      `json:"kind"`
	Empty bool      `json:"empty"`
}

// Contains reports whether the date falls inside the window.
func (w Window) Contains(d dates.ParsedDate) bool {
	if w.Empty {
		return false
	}
	t := d.Time()
	return !t.Before(w.Start) && !t.After(w.End)
}

// String renders the window as "DD/MM/YYYY - DD/MM/YYYY".
func (w Window) String() string {
	if w.Empty {
		return "no dates"
	}
	return dates.FromTime(w.Start).String() + " - " + dates.FromTime(w.End).String()
}

// Days returns the number of calendar days covered by the window.
func (w Window) Days() int {
	if w.Empty {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Request carries everything Resolve needs.
type Request struct {
	// Now is the wall clock; only today and yesterday use it.
	Now time.Time

	// Location is the business timezone. Nil means UTC.
	Location *time.Location

	// Latest is the most recent date in the dataset, valid when HasLatest.
	Latest    dates.ParsedDate
	HasLatest bool
	Kind      Kind

	// CustomMonth (1-12) and CustomYear are raw selector values.
	CustomMonth string
	CustomYear  string
}

// Resolve computes the window for a request. Unresolvable requests return
// an empty window instead of failing.
func Resolve(req Request) Window {
	switch req.Kind {
	case Today:
		day := civil(req.Now, req.Location)
		return Window{Kind: Today, Start: day, End: day}

	case Yesterday:
		day := civil(req.Now, req.Location).AddDate(0, 0, -1)
		return Window{Kind: Yesterday, Start: day, End: day}

	case Week:
		if !req.HasLatest {
			return empty(Week)
		}
		end := req.Latest.Time()
		return Window{Kind: Week, Start: end.AddDate(0, 0, -6), End: end}

	case Month:
		if !req.HasLatest {
			return empty(Month)
		}
		anchor := req.Latest.Time()
		return monthWindow(Month, anchor.Year(), anchor.Month())

	case Custom:
		month, year, ok := customMonth(req.CustomMonth, req.CustomYear)
		if !ok {
			return empty(Custom)
		}
		return monthWindow(Custom, year, month)

	default:
		return empty(req.Kind)
	}
}

// LatestDate returns the most recent date in the list.
func LatestDate(ds []dates.ParsedDate) (dates.ParsedDate, bool) {
	var (
		latest dates.ParsedDate
		found  bool
	)
	for _, d := range ds {
		if !found || d.Time().After(latest.Time()) {
			latest = d
			found = true
		}
	}
	return latest, found
}

func civil(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthWindow(kind Kind, year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Kind: kind, Start: start, End: start.AddDate(0, 1, -1)}
}

func customMonth(rawMonth, rawYear string) (time.Month, int, bool) {
	rawMonth, rawYear = strings.TrimSpace(rawMonth), strings.TrimSpace(rawYear)
	if rawMonth == "" || rawYear == "" {
		return 0, 0, false
	}
	m, err := strconv.Atoi(rawMonth)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(rawYear)
	if err != nil || y < 1 {
		return 0, 0, false
	}
	return time.Month(m), y, true
}

func empty(kind Kind) Window {
	return Window{Kind: kind, Empty: true}
}
