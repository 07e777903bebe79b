// Package quota ограничивает генерацию контента счётчиком на пользователя.
//
// Каждое списание делегируется хранилищу как один условный UPDATE
// (remaining > 0): два параллельных запроса не могут оба получить последнюю
// генерацию. Шлюз никогда не читает счётчик, чтобы потом записать его.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"planengine/internal/models"
)

var (
	// ErrQuotaExhausted - генерации закончились
	ErrQuotaExhausted = errors.New("generation quota exhausted")
	// ErrQuotaNotFound - у пользователя нет записи квоты
	ErrQuotaNotFound = errors.New("generation quota not found")
	// ErrInvalidQuota - отрицательное значение квоты
	ErrInvalidQuota = errors.New("quota value must not be negative")
	// ErrPersistence оборачивает любую ошибку хранилища, запрос отклоняется
	ErrPersistence = errors.New("quota store failure")
)

// Store - операции хранилища, на которые опирается шлюз.
// ConsumeOne и Reserve обязаны быть атомарными условными декрементами.
//
// Каждая запись квоты несёт эпоху, которую увеличивают SetRemaining и
// ResetAll. Резервация запоминает эпоху, и возврат генерации выполняется
// только если эпоха не изменилась: сброс уже вернул всё, что было занято.
type Store interface {
	// EnsureQuota создаёт запись с value генерациями, если её нет.
	// created = false, если запись уже была или пользователь неизвестен.
	EnsureQuota(ctx context.Context, userID int64, value int) (created bool, err error)
	// ConsumeOne уменьшает remaining на единицу, если он положительный.
	ConsumeOne(ctx context.Context, userID int64) (remaining int, ok bool, err error)
	// Reserve списывает как ConsumeOne и записывает резервацию.
	Reserve(ctx context.Context, userID int64, reservationID string) (remaining int, ok bool, err error)
	// CommitReservation удаляет резервацию, списание остаётся.
	CommitReservation(ctx context.Context, reservationID string) error
	// ReleaseReservation удаляет резервацию и возвращает генерацию той же эпохи.
	// released = false, если резервация уже подтверждена или отменена.
	ReleaseReservation(ctx context.Context, reservationID string) (released bool, err error)
	// StaleReservations возвращает резервации старше before.
	StaleReservations(ctx context.Context, before time.Time) ([]Reservation, error)
	SetRemaining(ctx context.Context, userID int64, value int) error
	ResetAll(ctx context.Context, value int) (int64, error)
	Get(ctx context.Context, userID int64) (models.GenerationQuota, error)
}

// Decision - результат TryConsume
type Decision struct {
	Granted   bool `json:"granted"`
	Remaining int  `json:"remaining"`
}

// Reservation удерживает одну генерацию, пока контент создаётся
type Reservation struct {
	ID        string
	UserID    int64
	Remaining int
	CreatedAt time.Time
}

// Gate - единственная точка проверки квоты
type Gate struct {
	store     Store
	logger    *slog.Logger
	decisions *prometheus.CounterVec
	now       func() time.Time

	defaultQuota int
	seed         bool
}

// NewGate создаёт шлюз. Метрики регистрируются в reg, если он не nil.
func NewGate(store Store, logger *slog.Logger, reg prometheus.Registerer) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		store:  store,
		logger: logger,
		decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "planengine",
			Name:      "quota_decisions_total",
			Help:      "Quota gate decisions by result.",
		}, []string{"result"}),
		now: time.Now,
	}
}

// WithDefaultQuota включает создание квоты с value генерациями для
// пользователя, у которого записи ещё нет.
func (g *Gate) WithDefaultQuota(value int) *Gate {
	g.defaultQuota = value
	g.seed = value >= 0
	return g
}

func (g *Gate) ensure(ctx context.Context, userID int64) error {
	if !g.seed {
		return nil
	}
	created, err := g.store.EnsureQuota(ctx, userID, g.defaultQuota)
	if err != nil {
		return err
	}
	if created {
		g.logger.Info("Quota created", "user_id", userID, "remaining", g.defaultQuota)
	}
	return nil
}

// TryConsume атомарно списывает одну генерацию.
// Ошибка хранилища возвращается как ошибка и никогда не считается разрешением.
func (g *Gate) TryConsume(ctx context.Context, userID int64) (Decision, error) {
	if err := g.ensure(ctx, userID); err != nil {
		g.decisions.WithLabelValues("error").Inc()
		g.logger.Error("Quota seed failed", "user_id", userID, "error", err)
		return Decision{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	remaining, ok, err := g.store.ConsumeOne(ctx, userID)
	if err != nil {
		g.decisions.WithLabelValues("error").Inc()
		g.logger.Error("Quota consume failed", "user_id", userID, "error", err)
		return Decision{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !ok {
		g.decisions.WithLabelValues("denied").Inc()
		g.logger.Info("Quota exhausted", "user_id", userID)
		return Decision{Granted: false, Remaining: 0}, nil
	}
	g.decisions.WithLabelValues("granted").Inc()
	return Decision{Granted: true, Remaining: remaining}, nil
}

// Reserve занимает одну генерацию до Commit или Release.
// Возвращает ErrQuotaExhausted, если генераций не осталось.
func (g *Gate) Reserve(ctx context.Context, userID int64) (*Reservation, error) {
	if err := g.ensure(ctx, userID); err != nil {
		g.decisions.WithLabelValues("error").Inc()
		g.logger.Error("Quota seed failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	id := uuid.New().String()
	remaining, ok, err := g.store.Reserve(ctx, userID, id)
	if err != nil {
		g.decisions.WithLabelValues("error").Inc()
		g.logger.Error("Quota reserve failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !ok {
		g.decisions.WithLabelValues("denied").Inc()
		g.logger.Info("Quota exhausted", "user_id", userID)
		return nil, ErrQuotaExhausted
	}
	g.decisions.WithLabelValues("reserved").Inc()
	return &Reservation{ID: id, UserID: userID, Remaining: remaining, CreatedAt: g.now()}, nil
}

// Commit подтверждает резервацию после успешной генерации
func (g *Gate) Commit(ctx context.Context, res *Reservation) error {
	if err := g.store.CommitReservation(ctx, res.ID); err != nil {
		g.logger.Error("Quota commit failed", "user_id", res.UserID, "reservation_id", res.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	g.decisions.WithLabelValues("committed").Inc()
	return nil
}

// Release возвращает генерацию после неудачи.
// Повторный вызов ничего не возвращает.
func (g *Gate) Release(ctx context.Context, res *Reservation) error {
	released, err := g.store.ReleaseReservation(ctx, res.ID)
	if err != nil {
		g.logger.Error("Quota release failed", "user_id", res.UserID, "reservation_id", res.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if released {
		g.decisions.WithLabelValues("released").Inc()
	}
	return nil
}

// ReleaseStale отменяет резервации старше ttl, брошенные упавшими запросами
func (g *Gate) ReleaseStale(ctx context.Context, ttl time.Duration) (int, error) {
	stale, err := g.store.StaleReservations(ctx, g.now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	released := 0
	for i := range stale {
		ok, err := g.store.ReleaseReservation(ctx, stale[i].ID)
		if err != nil {
			return released, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		if ok {
			released++
		}
	}
	if released > 0 {
		g.logger.Warn("Released stale quota reservations", "count", released, "ttl", ttl)
	}
	return released, nil
}

// SetRemaining - административная установка остатка
func (g *Gate) SetRemaining(ctx context.Context, userID int64, value int) error {
	if value < 0 {
		return ErrInvalidQuota
	}
	if err := g.store.SetRemaining(ctx, userID, value); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	g.logger.Info("Quota set", "user_id", userID, "remaining", value)
	return nil
}

// ReplenishAll устанавливает остаток всем пользователям
func (g *Gate) ReplenishAll(ctx context.Context, value int) (int64, error) {
	if value < 0 {
		return 0, ErrInvalidQuota
	}
	n, err := g.store.ResetAll(ctx, value)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	g.logger.Info("Quota replenished", "users", n, "remaining", value)
	return n, nil
}

// Remaining возвращает текущую квоту для отображения
func (g *Gate) Remaining(ctx context.Context, userID int64) (models.GenerationQuota, error) {
	if err := g.ensure(ctx, userID); err != nil {
		return models.GenerationQuota{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	q, err := g.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrQuotaNotFound) {
			return models.GenerationQuota{}, err
		}
		return models.GenerationQuota{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return q, nil
}
