// Package jobs выполняет периодическое обслуживание квот: пополнение по
// расписанию и возврат резерваций, брошенных упавшими запросами.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

// SweepSpec - как часто искать брошенные резервации
const SweepSpec = "@every 1m"

// QuotaMaintainer - часть шлюза квот, которой управляют задачи
type QuotaMaintainer interface {
	ReplenishAll(ctx context.Context, value int) (int64, error)
	ReleaseStale(ctx context.Context, ttl time.Duration) (int, error)
}

// Config планировщика
type Config struct {
	ResetSpec      string // cron с секундами, пустая строка отключает пополнение
	DefaultQuota   int
	ReservationTTL time.Duration
	Timeout        time.Duration // на один запуск, по умолчанию 30s
}

// Scheduler владеет экземпляром cron
type Scheduler struct {
	cron   *cron.Cron
	quota  QuotaMaintainer
	cfg    Config
	logger *slog.Logger
}

// New регистрирует задачи, не запуская их
func New(q QuotaMaintainer, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &Scheduler{
		cron:   cron.New(),
		quota:  q,
		cfg:    cfg,
		logger: logger.With("component", "jobs"),
	}

	if cfg.ResetSpec != "" {
		if err := s.cron.AddFunc(cfg.ResetSpec, s.runWithTimeout(s.Replenish)); err != nil {
			return nil, fmt.Errorf("quota reset schedule %q: %w", cfg.ResetSpec, err)
		}
	}
	if err := s.cron.AddFunc(SweepSpec, s.runWithTimeout(s.SweepReservations)); err != nil {
		return nil, fmt.Errorf("reservation sweep schedule: %w", err)
	}
	return s, nil
}

// Start запускает задачи в фоне
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()), "quota_reset", s.cfg.ResetSpec)
}

// Stop останавливает будущие запуски, текущий не прерывается
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Replenish возвращает всем пользователям квоту по умолчанию
func (s *Scheduler) Replenish(ctx context.Context) error {
	n, err := s.quota.ReplenishAll(ctx, s.cfg.DefaultQuota)
	if err != nil {
		return fmt.Errorf("replenish quotas: %w", err)
	}
	s.logger.Info("Quotas replenished", "users", n, "remaining", s.cfg.DefaultQuota)
	return nil
}

// SweepReservations возвращает резервации старше TTL
func (s *Scheduler) SweepReservations(ctx context.Context) error {
	n, err := s.quota.ReleaseStale(ctx, s.cfg.ReservationTTL)
	if err != nil {
		return fmt.Errorf("release stale reservations: %w", err)
	}
	if n > 0 {
		s.logger.Info("Stale reservations refunded", "count", n)
	}
	return nil
}

func (s *Scheduler) runWithTimeout(job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		if err := job(ctx); err != nil {
			s.logger.Error("Job failed", "error", err)
		}
	}
}
