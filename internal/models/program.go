package models

import "time"

// WorkoutType задаёт дни отдыха и доступное оборудование
type WorkoutType string

const (
	WorkoutHome WorkoutType = "home"
	WorkoutGym  WorkoutType = "gym"
)

// DaysPerWeek - длина недельной программы
const DaysPerWeek = 7

// WeeklyProgram представляет сгенерированную неделю тренировок пользователя
type WeeklyProgram struct {
	ID          string         `json:"id"`
	UserID      int64          `json:"user_id"`
	WorkoutType WorkoutType    `json:"workout_type"`
	Days        []DailyWorkout `json:"days"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DailyWorkout - один день недельной программы
type DailyWorkout struct {
	WeeklyProgramID string     `json:"weekly_program_id"`
	DayNumber       int        `json:"day_number"` // 1..7, понедельник = 1
	IsRestDay       bool       `json:"is_rest_day"`
	WorkoutName     string     `json:"workout_name"`
	Completed       bool       `json:"completed"`
	Exercises       []Exercise `json:"exercises"`
	IsToday         bool       `json:"is_today,omitempty"`
}

// Exercise - упражнение в тренировке
type Exercise struct {
	Name      string `json:"name"`
	Sets      int    `json:"sets"`
	Reps      string `json:"reps"` // может быть диапазоном, например "8-10"
	Completed bool   `json:"completed"`
}

// IsPlaceholder - тренировочный день, ещё не заполненный генерацией
func (w DailyWorkout) IsPlaceholder() bool {
	return !w.IsRestDay && len(w.Exercises) == 0
}

// GetProgress возвращает прогресс программы (0-100%)
func (p *WeeklyProgram) GetProgress() float64 {
	total, completed := 0, 0
	for _, d := range p.Days {
		if d.IsRestDay {
			continue
		}
		total++
		if d.Completed {
			completed++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
