package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planengine/internal/models"
)

func restDayNumbers(week []models.DailyWorkout) []int {
	var days []int
	for _, d := range week {
		if d.IsRestDay {
			days = append(days, d.DayNumber)
		}
	}
	return days
}

func TestGenerate_RestDayPolicy(t *testing.T) {
	tests := []struct {
		workoutType models.WorkoutType
		wantRest    []int
	}{
		{models.WorkoutHome, []int{3, 6, 7}},
		{models.WorkoutGym, []int{4, 7}},
	}

	for _, tt := range tests {
		t.Run(string(tt.workoutType), func(t *testing.T) {
			week, err := Generate(Request{WorkoutType: tt.workoutType})
			require.NoError(t, err)
			require.Len(t, week, 7)
			assert.Equal(t, tt.wantRest, restDayNumbers(week))
			for i, d := range week {
				assert.Equal(t, i+1, d.DayNumber)
			}
		})
	}
}

func TestGenerate_GymWithoutExistingWorkouts(t *testing.T) {
	week, err := Generate(Request{WorkoutType: models.WorkoutGym})
	require.NoError(t, err)

	for _, day := range []int{1, 2, 3, 5, 6} {
		d := week[day-1]
		assert.False(t, d.IsRestDay, "day %d", day)
		assert.True(t, d.IsPlaceholder(), "day %d", day)
		assert.NotNil(t, d.Exercises)
		assert.Empty(t, d.Exercises)
		assert.Equal(t, PlaceholderName, d.WorkoutName)
	}
	for _, day := range []int{4, 7} {
		d := week[day-1]
		assert.True(t, d.IsRestDay, "day %d", day)
		assert.Empty(t, d.Exercises)
		assert.Equal(t, RestDayName, d.WorkoutName)
	}
}

func TestGenerate_CarriesExistingWorkouts(t *testing.T) {
	existing := []models.DailyWorkout{
		{
			DayNumber:   1,
			WorkoutName: "Push",
			Completed:   true,
			Exercises: []models.Exercise{
				{Name: "Bench press", Sets: 4, Reps: "8", Completed: true},
				{Name: "Dips", Sets: 3, Reps: "10"},
			},
		},
		{DayNumber: 2, WorkoutName: "Pull"},
	}

	week, err := Generate(Request{WeeklyProgramID: "wp-1", WorkoutType: models.WorkoutGym, Existing: existing})
	require.NoError(t, err)

	day1 := week[0]
	assert.Equal(t, "Push", day1.WorkoutName)
	assert.True(t, day1.Completed)
	require.Len(t, day1.Exercises, 2)
	assert.True(t, day1.Exercises[0].Completed)
	assert.False(t, day1.Exercises[1].Completed)
	assert.Equal(t, "wp-1", day1.WeeklyProgramID)

	day2 := week[1]
	assert.Equal(t, "Pull", day2.WorkoutName)
	assert.False(t, day2.Completed)
	assert.NotNil(t, day2.Exercises, "nil exercise list becomes empty")
}

func TestGenerate_RestDayOverridesExisting(t *testing.T) {
	existing := []models.DailyWorkout{
		{DayNumber: 3, WorkoutName: "Legs", Exercises: []models.Exercise{{Name: "Squat", Sets: 5, Reps: "5"}}},
	}

	week, err := Generate(Request{WorkoutType: models.WorkoutHome, Existing: existing})
	require.NoError(t, err)

	assert.True(t, week[2].IsRestDay)
	assert.Equal(t, RestDayName, week[2].WorkoutName)
	assert.Empty(t, week[2].Exercises)
}

func TestGenerate_IgnoresOutOfRangeAndDuplicateDays(t *testing.T) {
	existing := []models.DailyWorkout{
		{DayNumber: 0, WorkoutName: "zero"},
		{DayNumber: 8, WorkoutName: "eight"},
		{DayNumber: 1, WorkoutName: "first"},
		{DayNumber: 1, WorkoutName: "second"},
	}

	week, err := Generate(Request{WorkoutType: models.WorkoutGym, Existing: existing})
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, "first", week[0].WorkoutName)
}

func TestGenerate_Idempotent(t *testing.T) {
	req := Request{
		WeeklyProgramID: "wp-1",
		WorkoutType:     models.WorkoutHome,
		Today:           2,
		Existing: []models.DailyWorkout{
			{DayNumber: 5, WorkoutName: "Full body", Exercises: []models.Exercise{{Name: "Push-up", Sets: 3, Reps: "15"}}},
			{DayNumber: 1, WorkoutName: "Core"},
		},
	}

	first, err := Generate(req)
	require.NoError(t, err)
	second, err := Generate(req)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGenerate_DoesNotAliasInput(t *testing.T) {
	existing := []models.DailyWorkout{
		{DayNumber: 1, WorkoutName: "Push", Exercises: []models.Exercise{{Name: "Bench press"}}},
	}

	week, err := Generate(Request{WorkoutType: models.WorkoutGym, Existing: existing})
	require.NoError(t, err)

	week[0].Exercises[0].Completed = true
	assert.False(t, existing[0].Exercises[0].Completed)
}

func TestGenerate_MarksToday(t *testing.T) {
	week, err := Generate(Request{WorkoutType: models.WorkoutGym, Today: 4})
	require.NoError(t, err)
	for _, d := range week {
		assert.Equal(t, d.DayNumber == 4, d.IsToday)
	}

	week, err = Generate(Request{WorkoutType: models.WorkoutGym})
	require.NoError(t, err)
	for _, d := range week {
		assert.False(t, d.IsToday)
	}
}

func TestGenerate_UnknownWorkoutType(t *testing.T) {
	_, err := Generate(Request{WorkoutType: "pool"})
	assert.ErrorIs(t, err, ErrUnknownWorkoutType)
}

func TestTrainingDays(t *testing.T) {
	days, err := TrainingDays(models.WorkoutHome)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4, 5}, days)

	days, err = TrainingDays(models.WorkoutGym)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 5, 6}, days)

	_, err = TrainingDays("")
	assert.ErrorIs(t, err, ErrUnknownWorkoutType)
}
