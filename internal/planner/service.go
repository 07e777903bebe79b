// Package planner проводит запрос на генерацию целиком: резервирование
// квоты, расчёт цели и расписания, генерация контента, сохранение и
// подтверждение или возврат зарезервированной генерации.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"planengine/internal/generation"
	"planengine/internal/models"
	"planengine/internal/nutrition"
	"planengine/internal/quota"
	"planengine/internal/schedule"
)

// ErrNoProgram - у пользователя ещё нет недельной программы
var ErrNoProgram = errors.New("no weekly program")

// ProfileStore отдаёт снимки профиля по id пользователя
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (models.UserProfile, error)
	GetLifePhase(ctx context.Context, userID int64) (models.LifePhase, error)
}

// ProgramStore читает и заменяет недельные программы
type ProgramStore interface {
	GetWeek(ctx context.Context, userID int64) (*models.WeeklyProgram, error)
	ReplaceWeek(ctx context.Context, program *models.WeeklyProgram) error
	SetDayCompleted(ctx context.Context, programID string, dayNumber int, completed bool) error
	SetExerciseCompleted(ctx context.Context, programID string, dayNumber, orderNum int, completed bool) error
}

// ContentGenerator создаёт питание и упражнения по заданным ограничениям
type ContentGenerator interface {
	GenerateMealPlan(ctx context.Context, req generation.MealPlanRequest) (generation.MealPlan, error)
	GenerateExerciseProgram(ctx context.Context, req generation.ExerciseProgramRequest) (generation.ExerciseProgram, error)
}

// Deps - зависимости сервиса
type Deps struct {
	Profiles ProfileStore
	Programs ProgramStore
	Content  ContentGenerator
	Gate     *quota.Gate
	Resolver *nutrition.Resolver
	Logger   *slog.Logger
	Registry prometheus.Registerer
}

// Service - точка входа движка на уровне запросов
type Service struct {
	profiles ProfileStore
	programs ProgramStore
	content  ContentGenerator
	gate     *quota.Gate
	resolver atomic.Pointer[nutrition.Resolver]
	logger   *slog.Logger
	requests *prometheus.CounterVec
	now      func() time.Time
}

// MealPlanResult - план питания вместе с ограничениями
type MealPlanResult struct {
	Target    models.CalorieTarget `json:"target"`
	Plan      generation.MealPlan  `json:"plan"`
	Remaining int                  `json:"remaining"`
}

// ProgramResult - созданная и сохранённая недельная программа
type ProgramResult struct {
	Program   *models.WeeklyProgram `json:"program"`
	Remaining int                   `json:"remaining"`
}

// NewService создаёт сервис
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		profiles: d.Profiles,
		programs: d.Programs,
		content:  d.Content,
		gate:     d.Gate,
		logger:   logger,
		requests: promauto.With(d.Registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: "planengine",
			Name:      "generation_requests_total",
			Help:      "Generation requests by kind and result.",
		}, []string{"kind", "result"}),
		now: time.Now,
	}
	s.SetResolver(d.Resolver)
	return s
}

// SetResolver меняет политику калорий, запущенные запросы работают со старой
func (s *Service) SetResolver(r *nutrition.Resolver) {
	if r == nil {
		r = nutrition.NewResolver(nutrition.DefaultResolverConfig(), s.logger)
	}
	s.resolver.Store(r)
}

// CalorieTarget рассчитывает текущую дневную цель пользователя
func (s *Service) CalorieTarget(ctx context.Context, userID int64) (models.CalorieTarget, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return models.CalorieTarget{}, fmt.Errorf("load profile: %w", err)
	}
	phase, err := s.lifePhase(ctx, userID)
	if err != nil {
		return models.CalorieTarget{}, err
	}

	target := s.resolver.Load().Resolve(profile, phase, s.now())
	if target.Degraded {
		s.logger.Debug("Incomplete profile, using fallback calories", "user_id", userID)
	}
	return target, nil
}

// lifePhase загружает фазу, нечитаемая фаза считается отсутствующей
func (s *Service) lifePhase(ctx context.Context, userID int64) (models.LifePhase, error) {
	phase, err := s.profiles.GetLifePhase(ctx, userID)
	if errors.Is(err, models.ErrInvalidLifePhase) {
		s.logger.Warn("Ignoring invalid life phase", "user_id", userID, "error", err)
		return models.NoPhase{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load life phase: %w", err)
	}
	if phase == nil {
		return models.NoPhase{}, nil
	}
	return phase, nil
}

// Schedule строит неделю для workoutType с учётом сохранённой программы.
// Пустой workoutType берёт тип сохранённой программы, без неё ErrNoProgram.
// Сохранённые тренировки переносятся только при совпадении типа.
func (s *Service) Schedule(ctx context.Context, userID int64, workoutType models.WorkoutType, today int) (*models.WeeklyProgram, error) {
	stored, err := s.programs.GetWeek(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}

	if stored == nil && workoutType == "" {
		return nil, ErrNoProgram
	}

	program := &models.WeeklyProgram{UserID: userID, WorkoutType: workoutType}
	if stored != nil {
		if program.WorkoutType == "" {
			program.WorkoutType = stored.WorkoutType
		}
		if stored.WorkoutType == program.WorkoutType {
			program.ID = stored.ID
			program.CreatedAt = stored.CreatedAt
		}
	}

	var existing []models.DailyWorkout
	if stored != nil && program.ID == stored.ID {
		existing = stored.Days
	}

	days, err := schedule.Generate(schedule.Request{
		WeeklyProgramID: program.ID,
		WorkoutType:     program.WorkoutType,
		Existing:        existing,
		Today:           today,
	})
	if err != nil {
		return nil, err
	}
	program.Days = days
	return program, nil
}

// GenerateMealPlan резервирует генерацию, составляет план под цель и
// подтверждает списание только после успешной генерации.
func (s *Service) GenerateMealPlan(ctx context.Context, userID int64) (*MealPlanResult, error) {
	res, err := s.gate.Reserve(ctx, userID)
	if err != nil {
		s.requests.WithLabelValues("meal_plan", outcome(err)).Inc()
		return nil, err
	}

	result, err := s.generateMealPlan(ctx, userID)
	if err != nil {
		s.release(ctx, res)
		s.requests.WithLabelValues("meal_plan", "failed").Inc()
		return nil, err
	}

	s.commit(ctx, res)
	result.Remaining = res.Remaining
	s.requests.WithLabelValues("meal_plan", "ok").Inc()
	s.logger.Info("Meal plan generated",
		"user_id", userID,
		"total_calories", result.Target.TotalCalories,
		"remaining", res.Remaining)
	return result, nil
}

func (s *Service) generateMealPlan(ctx context.Context, userID int64) (*MealPlanResult, error) {
	target, err := s.CalorieTarget(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.content.GenerateMealPlan(ctx, generation.MealPlanRequest{
		UserID:     userID,
		Target:     target,
		MealLabels: target.MealLabelsOverride,
	})
	if err != nil {
		return nil, err
	}
	return &MealPlanResult{Target: target, Plan: plan}, nil
}

// GenerateExerciseProgram резервирует генерацию, получает тренировки на
// тренировочные дни и заменяет сохранённую неделю.
func (s *Service) GenerateExerciseProgram(ctx context.Context, userID int64, workoutType models.WorkoutType, today int) (*ProgramResult, error) {
	trainingDays, err := schedule.TrainingDays(workoutType)
	if err != nil {
		return nil, err
	}

	res, err := s.gate.Reserve(ctx, userID)
	if err != nil {
		s.requests.WithLabelValues("exercise_program", outcome(err)).Inc()
		return nil, err
	}

	program, err := s.generateProgram(ctx, userID, workoutType, trainingDays, today)
	if err != nil {
		s.release(ctx, res)
		s.requests.WithLabelValues("exercise_program", "failed").Inc()
		return nil, err
	}

	s.commit(ctx, res)
	s.requests.WithLabelValues("exercise_program", "ok").Inc()
	s.logger.Info("Exercise program generated",
		"user_id", userID,
		"program_id", program.ID,
		"workout_type", workoutType,
		"remaining", res.Remaining)
	return &ProgramResult{Program: program, Remaining: res.Remaining}, nil
}

func (s *Service) generateProgram(ctx context.Context, userID int64, workoutType models.WorkoutType, trainingDays []int, today int) (*models.WeeklyProgram, error) {
	generated, err := s.content.GenerateExerciseProgram(ctx, generation.ExerciseProgramRequest{
		UserID:       userID,
		WorkoutType:  workoutType,
		TrainingDays: trainingDays,
	})
	if err != nil {
		return nil, err
	}
	// пустой ответ не должен затирать сохранённую неделю
	if err := generated.Validate(trainingDays); err != nil {
		return nil, err
	}

	program := &models.WeeklyProgram{
		ID:          uuid.New().String(),
		UserID:      userID,
		WorkoutType: workoutType,
		CreatedAt:   s.now(),
	}
	days, err := schedule.Generate(schedule.Request{
		WeeklyProgramID: program.ID,
		WorkoutType:     workoutType,
		Existing:        generated.Days,
		Today:           today,
	})
	if err != nil {
		return nil, err
	}
	program.Days = days

	if err := s.programs.ReplaceWeek(ctx, program); err != nil {
		return nil, fmt.Errorf("save program: %w", err)
	}
	return program, nil
}

// MarkDayCompleted отмечает выполнение дня текущей недели
func (s *Service) MarkDayCompleted(ctx context.Context, userID int64, dayNumber int, completed bool) error {
	program, err := s.currentProgram(ctx, userID)
	if err != nil {
		return err
	}
	return s.programs.SetDayCompleted(ctx, program.ID, dayNumber, completed)
}

// MarkExerciseCompleted отмечает выполнение упражнения (порядок с 1) текущей недели
func (s *Service) MarkExerciseCompleted(ctx context.Context, userID int64, dayNumber, orderNum int, completed bool) error {
	program, err := s.currentProgram(ctx, userID)
	if err != nil {
		return err
	}
	return s.programs.SetExerciseCompleted(ctx, program.ID, dayNumber, orderNum, completed)
}

func (s *Service) currentProgram(ctx context.Context, userID int64) (*models.WeeklyProgram, error) {
	program, err := s.programs.GetWeek(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	if program == nil {
		return nil, ErrNoProgram
	}
	return program, nil
}

// commit подтверждает списание. Контент уже отдан и сохранён, поэтому
// ошибка только логируется: резервация останется и истечёт с возвратом.
func (s *Service) commit(ctx context.Context, res *quota.Reservation) {
	if err := s.gate.Commit(context.WithoutCancel(ctx), res); err != nil {
		s.logger.Error("Quota commit failed, reservation left for expiry",
			"user_id", res.UserID,
			"reservation_id", res.ID,
			"error", err)
	}
}

// release возвращает генерацию, даже если контекст запроса уже отменён
func (s *Service) release(ctx context.Context, res *quota.Reservation) {
	if err := s.gate.Release(context.WithoutCancel(ctx), res); err != nil {
		s.logger.Error("Quota refund failed, reservation left for expiry",
			"user_id", res.UserID,
			"reservation_id", res.ID,
			"error", err)
	}
}

func outcome(err error) string {
	if errors.Is(err, quota.ErrQuotaExhausted) {
		return "exhausted"
	}
	return "error"
}
