package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Thursday, 15 Oct 2026 14:30 local
var refNow = time.Date(2026, time.October, 15, 14, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveRange(t *testing.T) {
	tests := []struct {
		keyword   string
		wantKW    RangeKeyword
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"today", RangeToday, day(2026, 10, 15), day(2026, 10, 15)},
		{"yesterday", RangeYesterday, day(2026, 10, 14), day(2026, 10, 14)},
		{"this_week", RangeThisWeek, day(2026, 10, 12), day(2026, 10, 18)},
		{"last_week", RangeLastWeek, day(2026, 10, 5), day(2026, 10, 11)},
		{"this_month", RangeThisMonth, day(2026, 10, 1), day(2026, 10, 31)},
		{"last_month", RangeLastMonth, day(2026, 9, 1), day(2026, 9, 30)},
		{"this_quarter", RangeThisQuarter, day(2026, 10, 1), day(2026, 12, 31)},
		{"this_year", RangeThisYear, day(2026, 1, 1), day(2026, 12, 31)},
		{"fortnight", RangeThisMonth, day(2026, 10, 1), day(2026, 10, 31)},
		{"", RangeThisMonth, day(2026, 10, 1), day(2026, 10, 31)},
		{"  THIS_WEEK ", RangeThisWeek, day(2026, 10, 12), day(2026, 10, 18)},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			r := ResolveRange(tt.keyword, refNow)
			assert.Equal(t, tt.wantKW, r.Keyword)
			assert.Equal(t, tt.wantStart, r.Start)
			assert.Equal(t, endOfDay(tt.wantEnd), r.End)
		})
	}
}

func TestResolveRange_EndNeverBeforeStart(t *testing.T) {
	// every day of 2026, including month, quarter and year boundaries
	for d := day(2026, 1, 1); d.Year() == 2026; d = d.AddDate(0, 0, 1) {
		now := d.Add(23*time.Hour + 59*time.Minute)
		for _, kw := range RangeKeywords {
			r := ResolveRange(string(kw), now)
			require.False(t, r.End.Before(r.Start), "%s at %s", kw, now)
			if kw == RangeToday || kw == RangeYesterday {
				assert.True(t, sameDay(r.Start, r.End), "%s must bound a single day", kw)
			}
		}
	}
}

func TestResolveRange_WeekStartsMonday(t *testing.T) {
	sunday := time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)
	r := ResolveRange("this_week", sunday)
	assert.Equal(t, time.Monday, r.Start.Weekday())
	assert.Equal(t, day(2026, 10, 12), r.Start)

	monday := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	r = ResolveRange("this_week", monday)
	assert.Equal(t, monday, r.Start)
}

func TestResolveRange_LastMonthAcrossYear(t *testing.T) {
	r := ResolveRange("last_month", time.Date(2027, time.January, 10, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, day(2026, 12, 1), r.Start)
	assert.Equal(t, endOfDay(day(2026, 12, 31)), r.End)
}

func TestDateRange_ContainsIsInclusive(t *testing.T) {
	r := ResolveRange("today", refNow)
	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.Start.Add(-time.Nanosecond)))
	assert.False(t, r.Contains(r.End.Add(time.Nanosecond)))
}

func TestNewCustomRange(t *testing.T) {
	t.Run("date bounds widen to whole days", func(t *testing.T) {
		r, err := NewCustomRange("2026-10-01", "2026-10-03", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, RangeCustom, r.Keyword)
		assert.Equal(t, day(2026, 10, 1), r.Start)
		assert.Equal(t, endOfDay(day(2026, 10, 3)), r.End)
	})

	t.Run("rfc3339 bounds", func(t *testing.T) {
		r, err := NewCustomRange("2026-10-01T10:00:00Z", "2026-10-01T12:00:00Z", time.UTC)
		require.NoError(t, err)
		assert.True(t, sameDay(r.Start, r.End))
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		_, err := NewCustomRange("2026-10-05", "2026-10-01", time.UTC)
		assert.Error(t, err)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := NewCustomRange("yesterday-ish", "2026-10-01", time.UTC)
		assert.Error(t, err)
	})
}

func TestRangeFilter_Resolve(t *testing.T) {
	r, err := RangeFilter{DateRange: "last_week"}.Resolve(refNow)
	require.NoError(t, err)
	assert.Equal(t, RangeLastWeek, r.Keyword)

	r, err = RangeFilter{DateRange: "last_week", StartDate: "2026-01-01", EndDate: "2026-01-31"}.Resolve(refNow)
	require.NoError(t, err)
	assert.Equal(t, RangeCustom, r.Keyword)
}

func TestDateRange_Label(t *testing.T) {
	assert.Equal(t, "15 Oct 2026", ResolveRange("today", refNow).Label())
	assert.Equal(t, "01 Oct 2026 - 31 Oct 2026", ResolveRange("this_month", refNow).Label())
}
