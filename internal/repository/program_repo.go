package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"planengine/internal/models"
)

// ProgramRepository репозиторий недельных программ тренировок
type ProgramRepository struct {
	db *sql.DB
}

// NewProgramRepository создаёт новый репозиторий программ
func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// GetWeek возвращает текущую недельную программу пользователя или nil
func (r *ProgramRepository) GetWeek(ctx context.Context, userID int64) (*models.WeeklyProgram, error) {
	var program models.WeeklyProgram
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, workout_type, created_at
		FROM public.weekly_programs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID).Scan(
		&program.ID, &program.UserID, &program.WorkoutType, &program.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Загружаем дни
	days, err := r.GetDays(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	program.Days = days

	return &program, nil
}

// GetDays возвращает дни программы вместе с упражнениями
func (r *ProgramRepository) GetDays(ctx context.Context, programID string) ([]models.DailyWorkout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT weekly_program_id, day_number, is_rest_day, COALESCE(workout_name, ''),
		       COALESCE(completed, false)
		FROM public.daily_workouts
		WHERE weekly_program_id = $1
		ORDER BY day_number`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.DailyWorkout
	index := make(map[int]int)
	for rows.Next() {
		var d models.DailyWorkout
		if err := rows.Scan(&d.WeeklyProgramID, &d.DayNumber, &d.IsRestDay, &d.WorkoutName, &d.Completed); err != nil {
			return nil, err
		}
		d.Exercises = []models.Exercise{}
		index[d.DayNumber] = len(days)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Загружаем упражнения одним запросом
	exRows, err := r.db.QueryContext(ctx, `
		SELECT day_number, name, COALESCE(sets, 0), COALESCE(reps, ''), COALESCE(completed, false)
		FROM public.workout_exercises
		WHERE weekly_program_id = $1
		ORDER BY day_number, order_num`, programID)
	if err != nil {
		return nil, err
	}
	defer exRows.Close()

	for exRows.Next() {
		var day int
		var e models.Exercise
		if err := exRows.Scan(&day, &e.Name, &e.Sets, &e.Reps, &e.Completed); err != nil {
			return nil, err
		}
		if i, ok := index[day]; ok {
			days[i].Exercises = append(days[i].Exercises, e)
		}
	}
	return days, exRows.Err()
}

// ReplaceWeek заменяет программу пользователя целиком в одной транзакции
func (r *ProgramRepository) ReplaceWeek(ctx context.Context, program *models.WeeklyProgram) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Дни и упражнения удаляются каскадно
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM public.weekly_programs WHERE user_id = $1", program.UserID); err != nil {
		return fmt.Errorf("delete previous week: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO public.weekly_programs (id, user_id, workout_type, created_at)
		VALUES ($1, $2, $3, $4)`,
		program.ID, program.UserID, program.WorkoutType, program.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert week: %w", err)
	}

	for _, d := range program.Days {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO public.daily_workouts
			(weekly_program_id, day_number, is_rest_day, workout_name, completed)
			VALUES ($1, $2, $3, $4, $5)`,
			program.ID, d.DayNumber, d.IsRestDay, d.WorkoutName, d.Completed,
		); err != nil {
			return fmt.Errorf("insert day %d: %w", d.DayNumber, err)
		}

		for i, e := range d.Exercises {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO public.workout_exercises
				(weekly_program_id, day_number, order_num, name, sets, reps, completed)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				program.ID, d.DayNumber, i+1, e.Name, e.Sets, e.Reps, e.Completed,
			); err != nil {
				return fmt.Errorf("insert exercise %d/%d: %w", d.DayNumber, i+1, err)
			}
		}
	}

	return tx.Commit()
}

// SetDayCompleted отмечает день как выполненный или нет
func (r *ProgramRepository) SetDayCompleted(ctx context.Context, programID string, dayNumber int, completed bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE public.daily_workouts
		SET completed = $1
		WHERE weekly_program_id = $2 AND day_number = $3 AND is_rest_day = false`,
		completed, programID, dayNumber,
	)
	return expectOneRow(res, err)
}

// SetExerciseCompleted отмечает упражнение (order_num с 1) как выполненное или нет
func (r *ProgramRepository) SetExerciseCompleted(ctx context.Context, programID string, dayNumber, orderNum int, completed bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE public.workout_exercises
		SET completed = $1
		WHERE weekly_program_id = $2 AND day_number = $3 AND order_num = $4`,
		completed, programID, dayNumber, orderNum,
	)
	return expectOneRow(res, err)
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
