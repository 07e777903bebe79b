// Package schedule разворачивает тип тренировок в неделю из семи дней.
package schedule

import (
	"errors"
	"fmt"

	"planengine/internal/models"
)

// ErrUnknownWorkoutType - для типа не заданы дни отдыха
var ErrUnknownWorkoutType = errors.New("unknown workout type")

// Названия синтетических дней
const (
	RestDayName     = "Rest Day"
	PlaceholderName = "No Workout"
)

// RestDays - дни отдыха для каждого типа тренировок
var RestDays = map[models.WorkoutType][]int{
	models.WorkoutHome: {3, 6, 7},
	models.WorkoutGym:  {4, 7},
}

// Request - входные данные Generate
type Request struct {
	WeeklyProgramID string
	WorkoutType     models.WorkoutType
	Existing        []models.DailyWorkout
	Today           int // 1..7, понедельник = 1, 0 если неизвестно
}

// IsRestDay - является ли dayNumber днём отдыха для типа
func IsRestDay(workoutType models.WorkoutType, dayNumber int) bool {
	for _, d := range RestDays[workoutType] {
		if d == dayNumber {
			return true
		}
	}
	return false
}

// TrainingDays возвращает номера тренировочных дней по порядку
func TrainingDays(workoutType models.WorkoutType) ([]int, error) {
	if _, ok := RestDays[workoutType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkoutType, workoutType)
	}
	days := make([]int, 0, models.DaysPerWeek)
	for day := 1; day <= models.DaysPerWeek; day++ {
		if !IsRestDay(workoutType, day) {
			days = append(days, day)
		}
	}
	return days, nil
}

// Generate возвращает ровно семь дней с номерами 1..7 по порядку.
// Дни отдыха заменяют существующие тренировки, остальные дни переносят
// существующую тренировку или становятся пустой заглушкой.
// Generate не делает I/O и не меняет req.Existing.
func Generate(req Request) ([]models.DailyWorkout, error) {
	if _, ok := RestDays[req.WorkoutType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkoutType, req.WorkoutType)
	}

	byDay := make(map[int]models.DailyWorkout, len(req.Existing))
	for _, w := range req.Existing {
		if w.DayNumber < 1 || w.DayNumber > models.DaysPerWeek {
			continue
		}
		// побеждает первая запись дня
		if _, seen := byDay[w.DayNumber]; !seen {
			byDay[w.DayNumber] = w
		}
	}

	week := make([]models.DailyWorkout, 0, models.DaysPerWeek)
	for day := 1; day <= models.DaysPerWeek; day++ {
		var entry models.DailyWorkout
		switch existing, ok := byDay[day]; {
		case IsRestDay(req.WorkoutType, day):
			entry = restDay(day)
		case ok:
			entry = carryOver(existing)
		default:
			entry = placeholder(day)
		}
		entry.WeeklyProgramID = req.WeeklyProgramID
		entry.IsToday = day == req.Today
		week = append(week, entry)
	}
	return week, nil
}

func restDay(day int) models.DailyWorkout {
	return models.DailyWorkout{
		DayNumber:   day,
		IsRestDay:   true,
		WorkoutName: RestDayName,
		Exercises:   []models.Exercise{},
	}
}

func placeholder(day int) models.DailyWorkout {
	return models.DailyWorkout{
		DayNumber:   day,
		WorkoutName: PlaceholderName,
		Exercises:   []models.Exercise{},
	}
}

// carryOver копирует тренировку, результат не делит память со входом
func carryOver(w models.DailyWorkout) models.DailyWorkout {
	exercises := make([]models.Exercise, len(w.Exercises))
	copy(exercises, w.Exercises)
	return models.DailyWorkout{
		DayNumber:   w.DayNumber,
		IsRestDay:   false,
		WorkoutName: w.WorkoutName,
		Completed:   w.Completed,
		Exercises:   exercises,
	}
}
