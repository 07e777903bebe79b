package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"planengine/internal/models"
)

// ProfileRepository читает биометрию и жизненную фазу пользователя
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository создаёт репозиторий профилей
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile возвращает профиль пользователя.
// Незаполненные поля остаются нулевыми, расчёт в этом случае использует запасное значение.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID int64) (models.UserProfile, error) {
	var p models.UserProfile
	var gender, activity sql.NullString
	var weight, height sql.NullFloat64
	var age sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, gender, weight_kg, height_cm, age, activity_level, updated_at
		FROM public.user_profiles
		WHERE user_id = $1`, userID).Scan(
		&p.UserID, &gender, &weight, &height, &age, &activity, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, fmt.Errorf("profile %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return models.UserProfile{}, err
	}

	p.Gender = models.Gender(gender.String)
	p.ActivityLevel = models.ActivityLevel(activity.String)
	p.WeightKg = weight.Float64
	p.HeightCm = height.Float64
	p.Age = int(age.Int64)
	return p, nil
}

// GetLifePhase возвращает активную жизненную фазу пользователя.
// Отсутствие записи означает NoPhase. Нераспознанная запись возвращается как
// NoPhase вместе с ошибкой models.ErrInvalidLifePhase.
func (r *ProfileRepository) GetLifePhase(ctx context.Context, userID int64) (models.LifePhase, error) {
	var kind, sub string
	var start sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT kind, COALESCE(sub_state, ''), start_date
		FROM public.life_phases
		WHERE user_id = $1`, userID).Scan(&kind, &sub, &start)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NoPhase{}, nil
	}
	if err != nil {
		return nil, err
	}
	return models.NewLifePhase(models.LifePhaseKind(kind), sub, start.Time)
}
