package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"planengine/internal/models"
	"planengine/internal/quota"
)

// consumeQuery единственный атомарный условный декремент.
// Строка возвращается только если remaining был больше нуля.
const consumeQuery = `
		UPDATE public.generation_quotas
		SET remaining = remaining - 1, updated_at = NOW()
		WHERE user_id = $1 AND remaining > 0
		RETURNING remaining, epoch`

// QuotaRepository хранит счётчики генераций и резервации
type QuotaRepository struct {
	db *sql.DB
}

// NewQuotaRepository создаёт репозиторий квот
func NewQuotaRepository(db *sql.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

var _ quota.Store = (*QuotaRepository)(nil)

// EnsureQuota создаёт квоту с value генерациями для существующего профиля.
// Существующая запись не меняется.
func (r *QuotaRepository) EnsureQuota(ctx context.Context, userID int64, value int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO public.generation_quotas (user_id, remaining, updated_at)
		SELECT user_id, $2, NOW()
		FROM public.user_profiles
		WHERE user_id = $1
		ON CONFLICT (user_id) DO NOTHING`,
		userID, value,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ConsumeOne списывает одну генерацию, если она есть
func (r *QuotaRepository) ConsumeOne(ctx context.Context, userID int64) (int, bool, error) {
	var (
		remaining int
		epoch     int64
	)
	err := r.db.QueryRowContext(ctx, consumeQuery, userID).Scan(&remaining, &epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return remaining, true, nil
}

// Reserve списывает одну генерацию и записывает резервацию в одной транзакции
func (r *QuotaRepository) Reserve(ctx context.Context, userID int64, reservationID string) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var (
		remaining int
		epoch     int64
	)
	err = tx.QueryRowContext(ctx, consumeQuery, userID).Scan(&remaining, &epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO public.generation_reservations (id, user_id, quota_epoch, created_at)
		VALUES ($1, $2, $3, NOW())`, reservationID, userID, epoch); err != nil {
		return 0, false, err
	}

	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return remaining, true, nil
}

// CommitReservation удаляет резервацию, списание остаётся
func (r *QuotaRepository) CommitReservation(ctx context.Context, reservationID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM public.generation_reservations WHERE id = $1", reservationID)
	return err
}

// ReleaseReservation удаляет резервацию и возвращает генерацию, если квоту
// не сбрасывали после резервирования. Повторный вызов ничего не возвращает.
func (r *QuotaRepository) ReleaseReservation(ctx context.Context, reservationID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var (
		userID int64
		epoch  int64
	)
	err = tx.QueryRowContext(ctx, `
		DELETE FROM public.generation_reservations
		WHERE id = $1
		RETURNING user_id, quota_epoch`, reservationID).Scan(&userID, &epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE public.generation_quotas
		SET remaining = remaining + 1, updated_at = NOW()
		WHERE user_id = $1 AND epoch = $2`, userID, epoch); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// StaleReservations возвращает резервации, созданные раньше before
func (r *QuotaRepository) StaleReservations(ctx context.Context, before time.Time) ([]quota.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, created_at
		FROM public.generation_reservations
		WHERE created_at < $1
		ORDER BY created_at`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []quota.Reservation
	for rows.Next() {
		var res quota.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.CreatedAt); err != nil {
			return nil, err
		}
		stale = append(stale, res)
	}
	return stale, rows.Err()
}

// SetRemaining устанавливает остаток генераций (создаёт запись при необходимости)
func (r *QuotaRepository) SetRemaining(ctx context.Context, userID int64, value int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO public.generation_quotas (user_id, remaining, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET remaining = EXCLUDED.remaining,
			epoch = public.generation_quotas.epoch + 1,
			updated_at = NOW()`,
		userID, value,
	)
	if pgCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return err
}

// ResetAll устанавливает остаток всем пользователям с профилем,
// создавая недостающие записи
func (r *QuotaRepository) ResetAll(ctx context.Context, value int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO public.generation_quotas (user_id, remaining, updated_at)
		SELECT user_id, $1, NOW()
		FROM public.user_profiles
		ON CONFLICT (user_id)
		DO UPDATE SET remaining = EXCLUDED.remaining,
			epoch = public.generation_quotas.epoch + 1,
			updated_at = NOW()`, value)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Get возвращает квоту пользователя
func (r *QuotaRepository) Get(ctx context.Context, userID int64) (models.GenerationQuota, error) {
	var q models.GenerationQuota
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, remaining, updated_at
		FROM public.generation_quotas
		WHERE user_id = $1`, userID).Scan(&q.UserID, &q.Remaining, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GenerationQuota{}, quota.ErrQuotaNotFound
	}
	return q, err
}
