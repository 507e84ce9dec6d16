package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
)

// RangeKeyword names a relative reporting period
type RangeKeyword string

const (
	RangeToday       RangeKeyword = "today"
	RangeYesterday   RangeKeyword = "yesterday"
	RangeThisWeek    RangeKeyword = "this_week"
	RangeLastWeek    RangeKeyword = "last_week"
	RangeThisMonth   RangeKeyword = "this_month"
	RangeLastMonth   RangeKeyword = "last_month"
	RangeThisQuarter RangeKeyword = "this_quarter"
	RangeThisYear    RangeKeyword = "this_year"
	RangeCustom      RangeKeyword = "custom"
)

// RangeKeywords lists the keywords ResolveRange understands
var RangeKeywords = []RangeKeyword{
	RangeToday, RangeYesterday, RangeThisWeek, RangeLastWeek,
	RangeThisMonth, RangeLastMonth, RangeThisQuarter, RangeThisYear,
}

// DateRange is a closed interval [Start, End]
type DateRange struct {
	Keyword RangeKeyword `json:"keyword"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
}

// Contains reports whether t lies within the range, both ends included
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Label renders the range for document headers, e.g. "01 Oct 2026 - 31 Oct 2026"
func (r DateRange) Label() string {
	const layout = "02 Jan 2006"
	if sameDay(r.Start, r.End) {
		return r.Start.Format(layout)
	}
	return r.Start.Format(layout) + " - " + r.End.Format(layout)
}

// CacheKey is a stable representation used in cache keys
func (r DateRange) CacheKey() string {
	return r.Start.Format(time.RFC3339) + "_" + r.End.Format(time.RFC3339)
}

// ResolveRange turns a keyword into a concrete range around now.
// Weeks start on Monday. Unknown keywords resolve to this_month.
func ResolveRange(keyword string, now time.Time) DateRange {
	today := startOfDay(now)
	kw := RangeKeyword(strings.ToLower(strings.TrimSpace(keyword)))

	var start, endDay time.Time
	switch kw {
	case RangeToday:
		start, endDay = today, today
	case RangeYesterday:
		start = today.AddDate(0, 0, -1)
		endDay = start
	case RangeThisWeek:
		start = startOfWeek(today)
		endDay = start.AddDate(0, 0, 6)
	case RangeLastWeek:
		start = startOfWeek(today).AddDate(0, 0, -7)
		endDay = start.AddDate(0, 0, 6)
	case RangeLastMonth:
		start = time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())
		endDay = start.AddDate(0, 1, -1)
	case RangeThisQuarter:
		firstMonth := time.Month((int(today.Month())-1)/3*3 + 1)
		start = time.Date(today.Year(), firstMonth, 1, 0, 0, 0, 0, today.Location())
		endDay = start.AddDate(0, 3, -1)
	case RangeThisYear:
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		endDay = time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, today.Location())
	default:
		kw = RangeThisMonth
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		endDay = start.AddDate(0, 1, -1)
	}

	return DateRange{Keyword: kw, Start: start, End: endOfDay(endDay)}
}

// NewCustomRange builds a range from explicit bounds. Each bound is either a
// YYYY-MM-DD date (interpreted in loc) or an RFC3339 timestamp. The start is
// widened to the beginning of its day and the end to the end of its day.
func NewCustomRange(start, end string, loc *time.Location) (DateRange, error) {
	s, err := parseBound(start, loc)
	if err != nil {
		return DateRange{}, shared.InvalidInput(fmt.Sprintf("invalid start date %q", start))
	}
	e, err := parseBound(end, loc)
	if err != nil {
		return DateRange{}, shared.InvalidInput(fmt.Sprintf("invalid end date %q", end))
	}
	r := DateRange{Keyword: RangeCustom, Start: startOfDay(s), End: endOfDay(e)}
	if r.End.Before(r.Start) {
		return DateRange{}, shared.InvalidInput("end date must not be before start date")
	}
	return r, nil
}

// RangeFilter is the persisted or requested form of a date range
type RangeFilter struct {
	DateRange string `json:"date_range,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Resolve picks explicit bounds when both are present, the keyword otherwise
func (f RangeFilter) Resolve(now time.Time) (DateRange, error) {
	if f.StartDate != "" && f.EndDate != "" {
		return NewCustomRange(f.StartDate, f.EndDate, now.Location())
	}
	return ResolveRange(f.DateRange, now), nil
}

func parseBound(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// startOfWeek returns the Monday of t's week
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
