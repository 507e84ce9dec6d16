package report

import (
	"errors"
	"testing"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestSchedule_ComputeNextRun(t *testing.T) {
	// refNow is Thursday 15 Oct 2026 14:30
	tests := []struct {
		name     string
		schedule Schedule
		now      time.Time
		want     time.Time
	}{
		{
			name:     "daily later today",
			schedule: Schedule{Frequency: FrequencyDaily, Time: "18:00"},
			now:      refNow,
			want:     at(2026, 10, 15, 18, 0),
		},
		{
			name:     "daily already passed rolls to tomorrow",
			schedule: Schedule{Frequency: FrequencyDaily, Time: "08:00"},
			now:      refNow,
			want:     at(2026, 10, 16, 8, 0),
		},
		{
			name:     "daily exactly now rolls to tomorrow",
			schedule: Schedule{Frequency: FrequencyDaily, Time: "14:30"},
			now:      refNow,
			want:     at(2026, 10, 16, 14, 30),
		},
		{
			name:     "daily default time",
			schedule: Schedule{Frequency: FrequencyDaily},
			now:      at(2026, 10, 15, 7, 0),
			want:     at(2026, 10, 15, 9, 0),
		},
		{
			name:     "weekly defaults to monday",
			schedule: Schedule{Frequency: FrequencyWeekly, Time: "09:00"},
			now:      refNow,
			want:     at(2026, 10, 19, 9, 0),
		},
		{
			name:     "weekly same day later",
			schedule: Schedule{Frequency: FrequencyWeekly, DayOfWeek: "thursday", Time: "16:00"},
			now:      refNow,
			want:     at(2026, 10, 15, 16, 0),
		},
		{
			name:     "weekly same day passed rolls a week",
			schedule: Schedule{Frequency: FrequencyWeekly, DayOfWeek: "Thursday", Time: "09:00"},
			now:      refNow,
			want:     at(2026, 10, 22, 9, 0),
		},
		{
			name:     "weekly numeric day",
			schedule: Schedule{Frequency: FrequencyWeekly, DayOfWeek: "0", Time: "10:00"},
			now:      refNow,
			want:     at(2026, 10, 18, 10, 0),
		},
		{
			name:     "monthly later this month",
			schedule: Schedule{Frequency: FrequencyMonthly, DayOfMonth: 20, Time: "09:00"},
			now:      refNow,
			want:     at(2026, 10, 20, 9, 0),
		},
		{
			name:     "monthly passed rolls to next month",
			schedule: Schedule{Frequency: FrequencyMonthly, DayOfMonth: 1, Time: "09:00"},
			now:      refNow,
			want:     at(2026, 11, 1, 9, 0),
		},
		{
			name:     "monthly default day",
			schedule: Schedule{Frequency: FrequencyMonthly},
			now:      refNow,
			want:     at(2026, 11, 1, 9, 0),
		},
		{
			name:     "monthly 31 in a 30-day month clamps to the 30th",
			schedule: Schedule{Frequency: FrequencyMonthly, DayOfMonth: 31, Time: "09:00"},
			now:      at(2026, 11, 10, 12, 0),
			want:     at(2026, 11, 30, 9, 0),
		},
		{
			name:     "monthly 31 rolling into february clamps to the 28th",
			schedule: Schedule{Frequency: FrequencyMonthly, DayOfMonth: 31, Time: "09:00"},
			now:      at(2027, 1, 31, 10, 0),
			want:     at(2027, 2, 28, 9, 0),
		},
		{
			name:     "monthly 29 in a leap february",
			schedule: Schedule{Frequency: FrequencyMonthly, DayOfMonth: 29, Time: "09:00"},
			now:      at(2028, 2, 1, 10, 0),
			want:     at(2028, 2, 29, 9, 0),
		},
		{
			name:     "monthly december rolls into next year",
			schedule: Schedule{Frequency: FrequencyMonthly, DayOfMonth: 5, Time: "09:00"},
			now:      at(2026, 12, 20, 10, 0),
			want:     at(2027, 1, 5, 9, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.schedule.ComputeNextRun(tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(tt.now))
		})
	}
}

func TestSchedule_ComputeNextRunRejectsBadInput(t *testing.T) {
	_, err := Schedule{Frequency: "hourly"}.ComputeNextRun(refNow)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = Schedule{Frequency: FrequencyDaily, Time: "25:99"}.ComputeNextRun(refNow)
	assert.Error(t, err)

	_, err = Schedule{Frequency: FrequencyWeekly, DayOfWeek: "someday"}.ComputeNextRun(refNow)
	assert.Error(t, err)
}

func TestSchedule_Validate(t *testing.T) {
	valid := Schedule{
		Enabled:    true,
		Recipients: []string{"owner@example.com"},
		Format:     DeliveryCSV,
		Frequency:  FrequencyWeekly,
		Time:       "07:45",
		DayOfWeek:  "friday",
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Recipients = []string{"not-an-email"}
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Format = "docx"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.DayOfMonth = 32
	assert.Error(t, bad.Validate())
}

func TestSchedule_RecordRun(t *testing.T) {
	s := Schedule{Enabled: true, Frequency: FrequencyDaily, Time: "09:00"}

	t.Run("all recipients succeeded", func(t *testing.T) {
		err := s.RecordRun(refNow, []RecipientResult{{Email: "a@x.io", Success: true}})
		require.NoError(t, err)
		assert.Equal(t, RunSuccess, s.LastStatus)
		assert.Empty(t, s.LastError)
		assert.Equal(t, refNow, *s.LastSent)
		assert.Equal(t, at(2026, 10, 16, 9, 0), *s.NextRun)
	})

	t.Run("any failure marks the run failed", func(t *testing.T) {
		err := s.RecordRun(refNow, []RecipientResult{
			{Email: "a@x.io", Success: true},
			{Email: "b@x.io", Success: false, Error: "mailbox full"},
		})
		require.NoError(t, err)
		assert.Equal(t, RunFailed, s.LastStatus)
		assert.Equal(t, "b@x.io: mailbox full", s.LastError)
	})
}

func TestSchedule_RecordRunWithoutNextRun(t *testing.T) {
	past := refNow.Add(-time.Minute)
	s := Schedule{Enabled: true, Frequency: "hourly", NextRun: &past}

	err := s.RecordRun(refNow, []RecipientResult{{Email: "a@x.io", Success: true}})

	require.Error(t, err)
	assert.Nil(t, s.NextRun)
	assert.False(t, s.IsDue(refNow))
	assert.Equal(t, RunFailed, s.LastStatus)
	assert.Contains(t, s.LastError, "next run: invalid frequency")
}

func TestSchedule_RecordFailure(t *testing.T) {
	past := refNow.Add(-time.Minute)

	t.Run("moves next run forward", func(t *testing.T) {
		s := Schedule{Enabled: true, Frequency: FrequencyDaily, Time: "09:00", NextRun: &past}
		s.RecordFailure(refNow, errors.New("No recipients configured"))

		assert.Equal(t, RunFailed, s.LastStatus)
		assert.Equal(t, "No recipients configured", s.LastError)
		assert.Equal(t, at(2026, 10, 16, 9, 0), *s.NextRun)
		assert.False(t, s.IsDue(refNow))
		assert.Nil(t, s.LastSent)
	})

	t.Run("unschedulable stops being due", func(t *testing.T) {
		s := Schedule{Enabled: true, Frequency: FrequencyDaily, Time: "9am", NextRun: &past}
		s.RecordFailure(refNow, errors.New("render failed"))

		assert.Nil(t, s.NextRun)
		assert.False(t, s.IsDue(refNow))
		assert.Equal(t, `render failed; next run: invalid time "9am", expected HH:MM`, s.LastError)
	})
}

func TestSchedule_IsDue(t *testing.T) {
	past := refNow.Add(-time.Minute)
	future := refNow.Add(time.Minute)

	assert.True(t, Schedule{Enabled: true, NextRun: &past}.IsDue(refNow))
	assert.True(t, Schedule{Enabled: true, NextRun: &refNow}.IsDue(refNow))
	assert.False(t, Schedule{Enabled: true, NextRun: &future}.IsDue(refNow))
	assert.False(t, Schedule{Enabled: false, NextRun: &past}.IsDue(refNow))
	assert.False(t, Schedule{Enabled: true}.IsDue(refNow))
}

func TestSavedReport_UpdateSchedule(t *testing.T) {
	last := refNow.AddDate(0, 0, -1)
	r := &SavedReport{Schedule: &Schedule{LastSent: &last, LastStatus: RunFailed, LastError: "boom"}}

	err := r.UpdateSchedule(Schedule{Enabled: true, Frequency: FrequencyDaily, Time: "18:00"}, refNow)
	require.NoError(t, err)
	require.NotNil(t, r.Schedule.NextRun)
	assert.Equal(t, at(2026, 10, 15, 18, 0), *r.Schedule.NextRun)
	assert.Equal(t, &last, r.Schedule.LastSent)
	assert.Equal(t, "boom", r.Schedule.LastError)

	err = r.UpdateSchedule(Schedule{Enabled: false, Frequency: FrequencyDaily}, refNow)
	require.NoError(t, err)
	assert.Nil(t, r.Schedule.NextRun)

	err = r.UpdateSchedule(Schedule{Frequency: "yearly"}, refNow)
	assert.Error(t, err)
}
