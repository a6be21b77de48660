// Package dates parses the day-first date strings used in dashboard sheets.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearPolicy decides what happens to dates written without a year.
type YearPolicy string

const (
	// YearCurrent assumes the current year of the reference clock.
	YearCurrent YearPolicy = "current"
	// YearError rejects dates that have no year.
	YearError YearPolicy = "error"
	// YearExplicit uses a configured fallback year.
	YearExplicit YearPolicy = "explicit"
)

// ParseYearPolicy converts a configuration string into a YearPolicy.
func ParseYearPolicy(s string) (YearPolicy, error) {
	switch p := YearPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case YearCurrent, YearError, YearExplicit:
		return p, nil
	case "":
		return YearCurrent, nil
	default:
		return "", fmt.Errorf("unknown year policy %q (want current, error or explicit)", s)
	}
}

// ParsedDate is a calendar date read from a sheet cell.
//
// Day and Month are kept exactly as written; no calendar validation is done
// unless the parser runs in strict mode.
type ParsedDate struct {
	Day   int        `json:"day"`
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// Time returns the date at midnight UTC. Out-of-range days and months
// normalise the way time.Date does, so 31/02/2025 becomes 3 March.
func (d ParsedDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as DD/MM/YYYY.
func (d ParsedDate) String() string {
	return Format(d)
}

// Format renders a date in the DD/MM/YYYY layout used by the sheets.
func Format(d ParsedDate) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// FromTime converts a time into a ParsedDate using its own location.
func FromTime(t time.Time) ParsedDate {
	y, m, d := t.Date()
	return ParsedDate{Day: d, Month: m, Year: y}
}

// Parser turns raw date strings into ParsedDates.
type Parser struct {
	// Now supplies the reference clock for YearCurrent. Defaults to time.Now.
	Now func() time.Time

	// Location is the business timezone used to read the current year.
	Location *time.Location

	// Policy controls two-part dates. Defaults to YearCurrent.
	Policy YearPolicy

	// FallbackYear is used by YearExplicit.
	FallbackYear int

	// Strict rejects dates that do not exist on the calendar.
	Strict bool
}

// Parse reads a DD/MM or DD/MM/YYYY string. Each part is read up to its
// first non-digit, so form timestamps like "15/08/2025 10:30:00" parse as
// their date. It reports false when a part has no leading digits; callers
// skip those records.
func (p Parser) Parse(raw string) (ParsedDate, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return ParsedDate{}, false
	}

	day, ok := leadingInt(parts[0])
	if !ok {
		return ParsedDate{}, false
	}
	month, ok := leadingInt(parts[1])
	if !ok {
		return ParsedDate{}, false
	}

	var year int
	if len(parts) == 3 {
		if year, ok = leadingInt(parts[2]); !ok {
			return ParsedDate{}, false
		}
	} else if year, ok = p.missingYear(); !ok {
		return ParsedDate{}, false
	}

	d := ParsedDate{Day: day, Month: time.Month(month), Year: year}
	if p.Strict && !Exists(d) {
		return ParsedDate{}, false
	}
	return d, true
}

// leadingInt reads the optionally signed digits at the start of s and
// ignores whatever follows them, so "2025 10:30:00" reads as 2025.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p Parser) missingYear() (int, bool) {
	switch p.Policy {
	case YearError:
		return 0, false
	case YearExplicit:
		if p.FallbackYear <= 0 {
			return 0, false
		}
		return p.FallbackYear, true
	default:
		now := time.Now
		if p.Now != nil {
			now = p.Now
		}
		t := now()
		if p.Location != nil {
			t = t.In(p.Location)
		}
		return t.Year(), true
	}
}

// Exists reports whether the date is a real calendar day.
func Exists(d ParsedDate) bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	t := d.Time()
	return t.Day() == d.Day && t.Month() == d.Month
}
