package report

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
)

// Frequency is the recurrence of a schedule
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// DeliveryFormat is the artifact a scheduled report is delivered as
type DeliveryFormat string

const (
	DeliveryPDF  DeliveryFormat = "pdf"
	DeliveryCSV  DeliveryFormat = "csv"
	DeliveryXLSX DeliveryFormat = "xlsx"
)

// RunStatus is the outcome of the last scheduled run
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

const (
	defaultScheduleTime = "09:00"
	defaultDayOfMonth   = 1
)

// Schedule is the persisted shape of SavedReport.schedule
type Schedule struct {
	Enabled    bool           `json:"enabled"`
	Recipients []string       `json:"recipients"`
	Format     DeliveryFormat `json:"format"`
	Subject    string         `json:"subject,omitempty"`
	Message    string         `json:"message,omitempty"`
	Frequency  Frequency      `json:"frequency"`
	Time       string         `json:"time,omitempty"`
	DayOfWeek  string         `json:"day_of_week,omitempty"`
	DayOfMonth int            `json:"day_of_month,omitempty"`
	AttachPDF  bool           `json:"attach_pdf,omitempty"`
	LastSent   *time.Time     `json:"last_sent,omitempty"`
	NextRun    *time.Time     `json:"next_run,omitempty"`
	LastStatus RunStatus      `json:"last_status,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
}

// RecipientResult records the outcome of sending to one recipient
type RecipientResult struct {
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Validate checks the configurable fields of a schedule
func (s Schedule) Validate() error {
	switch s.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return shared.InvalidInput(fmt.Sprintf("invalid frequency %q", s.Frequency))
	}
	switch s.Format {
	case "", DeliveryPDF, DeliveryCSV, DeliveryXLSX:
	default:
		return shared.InvalidInput(fmt.Sprintf("invalid format %q", s.Format))
	}
	if _, _, err := parseClock(s.Time); err != nil {
		return err
	}
	if _, err := parseWeekday(s.DayOfWeek); err != nil {
		return err
	}
	if s.DayOfMonth < 0 || s.DayOfMonth > 31 {
		return shared.InvalidInput("day_of_month must be between 1 and 31")
	}
	for _, r := range s.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			return shared.InvalidInput(fmt.Sprintf("invalid recipient %q", r))
		}
	}
	return nil
}

// EffectiveFormat returns the delivery format, defaulting to pdf
func (s Schedule) EffectiveFormat() DeliveryFormat {
	if s.Format == "" {
		return DeliveryPDF
	}
	return s.Format
}

// IsDue reports whether an enabled schedule should run at now
func (s Schedule) IsDue(now time.Time) bool {
	return s.Enabled && s.NextRun != nil && !s.NextRun.After(now)
}

// ComputeNextRun returns the next moment the schedule fires after now.
//
//   - daily: today at Time, or tomorrow when that moment has passed
//   - weekly: the next DayOfWeek (default Monday) at Time, a week later when
//     today is that day and the time has passed
//   - monthly: DayOfMonth (default 1) at Time, next month when passed. A day
//     that does not exist in the target month clamps to the month's last day.
func (s Schedule) ComputeNextRun(now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(s.Time)
	if err != nil {
		return time.Time{}, err
	}
	loc := now.Location()
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, hour, minute, 0, 0, loc)
	}

	switch s.Frequency {
	case FrequencyDaily:
		next := at(now.Year(), now.Month(), now.Day())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil

	case FrequencyWeekly:
		target, err := parseWeekday(s.DayOfWeek)
		if err != nil {
			return time.Time{}, err
		}
		days := (int(target) - int(now.Weekday()) + 7) % 7
		next := at(now.Year(), now.Month(), now.Day()+days)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next, nil

	case FrequencyMonthly:
		day := s.DayOfMonth
		if day == 0 {
			day = defaultDayOfMonth
		}
		next := at(now.Year(), now.Month(), clampDay(now.Year(), now.Month(), day))
		if !next.After(now) {
			y, m := now.Year(), now.Month()+1
			if m > time.December {
				y, m = y+1, time.January
			}
			next = at(y, m, clampDay(y, m, day))
		}
		return next, nil
	}
	return time.Time{}, shared.InvalidInput(fmt.Sprintf("invalid frequency %q", s.Frequency))
}

// RecordRun stores the outcome of a run and advances NextRun
func (s *Schedule) RecordRun(now time.Time, results []RecipientResult) error {
	var failures []string
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r.Email+": "+r.Error)
		}
	}

	sent := now
	s.LastSent = &sent
	if len(failures) > 0 {
		s.LastStatus = RunFailed
		s.LastError = strings.Join(failures, "; ")
	} else {
		s.LastStatus = RunSuccess
		s.LastError = ""
	}

	return s.advance(now)
}

// RecordFailure stores a run that failed before any email was sent
func (s *Schedule) RecordFailure(now time.Time, cause error) {
	s.LastStatus = RunFailed
	s.LastError = cause.Error()
	_ = s.advance(now)
}

// advance moves NextRun past now. When no next run can be computed the
// schedule stops being due and the reason is kept in LastError.
func (s *Schedule) advance(now time.Time) error {
	next, err := s.ComputeNextRun(now)
	if err != nil {
		s.NextRun = nil
		s.LastStatus = RunFailed
		if s.LastError != "" {
			s.LastError += "; "
		}
		s.LastError += "next run: " + err.Error()
		return err
	}
	s.NextRun = &next
	return nil
}

// daysIn returns the number of days in month m of year y
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(y int, m time.Month, day int) int {
	if last := daysIn(y, m); day > last {
		return last
	}
	return day
}

func parseClock(value string) (int, int, error) {
	if value == "" {
		value = defaultScheduleTime
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, shared.InvalidInput(fmt.Sprintf("invalid time %q, expected HH:MM", value))
	}
	return t.Hour(), t.Minute(), nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseWeekday accepts a weekday name or its number (0 = Sunday).
// Empty means Monday.
func parseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return time.Monday, nil
	}
	if d, ok := weekdays[v]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, shared.InvalidInput(fmt.Sprintf("invalid day_of_week %q", value))
}
