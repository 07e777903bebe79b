package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planengine/internal/models"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{in: time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC), want: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{in: time.Date(2026, 3, 11, 8, 30, 0, 0, time.UTC), want: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{in: time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC), want: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{in: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), want: time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in), tt.in.Weekday().String())
	}
}

func TestWeekEvents(t *testing.T) {
	program := &models.WeeklyProgram{
		ID: "wp-1",
		Days: []models.DailyWorkout{
			{DayNumber: 1, WorkoutName: "Push", Exercises: []models.Exercise{{Name: "Bench press", Sets: 4, Reps: "8"}, {Name: "Dips", Sets: 3, Reps: "10-12"}}},
			{DayNumber: 3, IsRestDay: true, WorkoutName: "Rest Day", Exercises: []models.Exercise{}},
			{DayNumber: 5, WorkoutName: "Legs", Exercises: []models.Exercise{{Name: "Squat", Sets: 5, Reps: "5"}}},
			{DayNumber: 6, WorkoutName: "No Workout", Exercises: []models.Exercise{}},
		},
	}
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	events := WeekEvents(program, monday, Options{StartHour: 7, Duration: 90 * time.Minute})
	require.Len(t, events, 2)

	assert.Equal(t, "wp-1-1@planengine", events[0].UID)
	assert.Equal(t, time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC), events[0].StartTime)
	assert.Equal(t, time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC), events[0].EndTime)
	assert.Equal(t, "Bench press 4x8\nDips 3x10-12", events[0].Description)

	assert.Equal(t, time.Date(2026, 3, 13, 7, 0, 0, 0, time.UTC), events[1].StartTime)
}

func TestWeekEvents_Defaults(t *testing.T) {
	program := &models.WeeklyProgram{ID: "wp-1", Days: []models.DailyWorkout{
		{DayNumber: 2, WorkoutName: "Core", Exercises: []models.Exercise{{Name: "Plank", Sets: 3, Reps: "60s"}}},
	}}

	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		opts     Options
		wantHour int
	}{
		{name: "default options", opts: DefaultOptions(), wantHour: 18},
		{name: "midnight", opts: Options{StartHour: 0}, wantHour: 0},
		{name: "out of range", opts: Options{StartHour: 24}, wantHour: 18},
		{name: "negative", opts: Options{StartHour: -1}, wantHour: 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := WeekEvents(program, monday, tt.opts)
			require.Len(t, events, 1)
			assert.Equal(t, tt.wantHour, events[0].StartTime.Hour())
			assert.Equal(t, time.Hour, events[0].EndTime.Sub(events[0].StartTime))
		})
	}
}

func TestWrite(t *testing.T) {
	var sb strings.Builder
	events := []Event{{
		UID:         "wp-1-1@planengine",
		Summary:     "Push, heavy",
		Description: "Bench press 4x8\nDips 3x10",
		StartTime:   time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC),
		Reminder:    30,
	}}

	require.NoError(t, Write(&sb, events, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)))
	ics := sb.String()

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	assert.Contains(t, ics, "DTSTAMP:20260308T000000Z\r\n")
	assert.Contains(t, ics, "DTSTART:20260309T180000Z\r\n")
	assert.Contains(t, ics, "SUMMARY:Push\\, heavy\r\n")
	assert.Contains(t, ics, "DESCRIPTION:Bench press 4x8\\nDips 3x10\r\n")
	assert.Contains(t, ics, "TRIGGER:-PT30M\r\n")
}

func TestWrite_Empty(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Write(&sb, nil, time.Now()))
	assert.NotContains(t, sb.String(), "BEGIN:VEVENT")
}
