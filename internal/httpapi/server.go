// Package httpapi открывает движок по JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"planengine/internal/calendar"
	"planengine/internal/generation"
	"planengine/internal/models"
	"planengine/internal/planner"
	"planengine/internal/quota"
	"planengine/internal/repository"
	"planengine/internal/schedule"
)

// Planner - методы движка, нужные обработчикам
type Planner interface {
	CalorieTarget(ctx context.Context, userID int64) (models.CalorieTarget, error)
	Schedule(ctx context.Context, userID int64, workoutType models.WorkoutType, today int) (*models.WeeklyProgram, error)
	GenerateMealPlan(ctx context.Context, userID int64) (*planner.MealPlanResult, error)
	GenerateExerciseProgram(ctx context.Context, userID int64, workoutType models.WorkoutType, today int) (*planner.ProgramResult, error)
	MarkDayCompleted(ctx context.Context, userID int64, dayNumber int, completed bool) error
	MarkExerciseCompleted(ctx context.Context, userID int64, dayNumber, orderNum int, completed bool) error
}

// QuotaManager читает и устанавливает квоты
type QuotaManager interface {
	Remaining(ctx context.Context, userID int64) (models.GenerationQuota, error)
	SetRemaining(ctx context.Context, userID int64, value int) error
}

// Pinger проверяет доступность базы
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options - настройки сервера
type Options struct {
	Planner  Planner
	Quota    QuotaManager
	DB       Pinger // может быть nil
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server содержит обработчики
type Server struct {
	planner Planner
	quota   QuotaManager
	db      Pinger
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler собирает обработчик с маршрутами, логированием и CORS
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		planner: opts.Planner,
		quota:   opts.Quota,
		db:      opts.DB,
		logger:  logger,
		now:     time.Now,
	}
	return s.handler(opts.Gatherer)
}

func (s *Server) handler(gatherer prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users/{id:[0-9]+}/calorie-target", s.getCalorieTarget).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}/schedule", s.getSchedule).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}/schedule.ics", s.getScheduleICS).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}/meal-plans", s.createMealPlan).Methods(http.MethodPost)
	api.HandleFunc("/users/{id:[0-9]+}/programs", s.createProgram).Methods(http.MethodPost)
	api.HandleFunc("/users/{id:[0-9]+}/program/days/{day:[0-9]+}/completed", s.markDay).Methods(http.MethodPut)
	api.HandleFunc("/users/{id:[0-9]+}/program/days/{day:[0-9]+}/exercises/{order:[0-9]+}/completed", s.markExercise).Methods(http.MethodPut)
	api.HandleFunc("/users/{id:[0-9]+}/quota", s.getQuota).Methods(http.MethodGet)
	api.HandleFunc("/admin/users/{id:[0-9]+}/quota", s.setQuota).Methods(http.MethodPut)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.loggingMiddleware(r))
}

func (s *Server) getCalorieTarget(w http.ResponseWriter, r *http.Request) {
	userID := pathInt64(r, "id")
	target, err := s.planner.CalorieTarget(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (s *Server) getSchedule(w http.ResponseWriter, r *http.Request) {
	userID := pathInt64(r, "id")
	today, err := s.today(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	workoutType := models.WorkoutType(r.URL.Query().Get("type"))

	program, err := s.planner.Schedule(r.Context(), userID, workoutType, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{WeeklyProgram: program, Progress: program.GetProgress()})
}

type scheduleResponse struct {
	*models.WeeklyProgram
	Progress float64 `json:"progress"`
}

// getScheduleICS выгружает сохранённую неделю в календарь с ?week_start=YYYY-MM-DD
func (s *Server) getScheduleICS(w http.ResponseWriter, r *http.Request) {
	weekStart := calendar.WeekStart(s.now())
	if raw := r.URL.Query().Get("week_start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "week_start must be YYYY-MM-DD"})
			return
		}
		weekStart = calendar.WeekStart(t)
	}
	opts := calendar.DefaultOptions()
	opts.Reminder = 30
	if raw := r.URL.Query().Get("hour"); raw != "" {
		hour, err := strconv.Atoi(raw)
		if err != nil || hour < 0 || hour > 23 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "hour must be 0..23"})
			return
		}
		opts.StartHour = hour
	}

	program, err := s.planner.Schedule(r.Context(), pathInt64(r, "id"), "", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events := calendar.WeekEvents(program, weekStart, opts)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="workouts.ics"`)
	if err := calendar.Write(w, events, s.now()); err != nil {
		s.logger.Error("Calendar write failed", "error", err)
	}
}

func (s *Server) createMealPlan(w http.ResponseWriter, r *http.Request) {
	userID := pathInt64(r, "id")
	res, err := s.planner.GenerateMealPlan(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type createProgramRequest struct {
	WorkoutType models.WorkoutType `json:"workout_type"`
}

func (s *Server) createProgram(w http.ResponseWriter, r *http.Request) {
	userID := pathInt64(r, "id")
	var req createProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	today, err := s.today(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	res, err := s.planner.GenerateExerciseProgram(r.Context(), userID, req.WorkoutType, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type completedRequest struct {
	Completed bool `json:"completed"`
}

func (s *Server) markDay(w http.ResponseWriter, r *http.Request) {
	var req completedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	err := s.planner.MarkDayCompleted(r.Context(), pathInt64(r, "id"), int(pathInt64(r, "day")), req.Completed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markExercise(w http.ResponseWriter, r *http.Request) {
	var req completedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	err := s.planner.MarkExerciseCompleted(r.Context(),
		pathInt64(r, "id"), int(pathInt64(r, "day")), int(pathInt64(r, "order")), req.Completed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getQuota(w http.ResponseWriter, r *http.Request) {
	q, err := s.quota.Remaining(r.Context(), pathInt64(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type setQuotaRequest struct {
	Remaining *int `json:"remaining"`
}

func (s *Server) setQuota(w http.ResponseWriter, r *http.Request) {
	var req setQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Remaining == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: `body must be {"remaining": N}`})
		return
	}
	userID := pathInt64(r, "id")
	if err := s.quota.SetRemaining(r.Context(), userID, *req.Remaining); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.GenerationQuota{UserID: userID, Remaining: *req.Remaining, UpdatedAt: s.now()})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// today читает ?today=N (0 отключает отметку), по умолчанию текущий день недели
func (s *Server) today(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("today")
	if raw == "" {
		return isoWeekday(s.now()), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > models.DaysPerWeek {
		return 0, errors.New("today must be a day number 0..7")
	}
	return n, nil
}

// isoWeekday: понедельник 1, воскресенье 7
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError переводит ошибки домена в коды статуса
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, quota.ErrQuotaExhausted):
		status = http.StatusTooManyRequests
	case errors.Is(err, quota.ErrInvalidQuota), errors.Is(err, schedule.ErrUnknownWorkoutType):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, quota.ErrQuotaNotFound), errors.Is(err, planner.ErrNoProgram):
		status = http.StatusNotFound
	case errors.Is(err, generation.ErrGeneration):
		status = http.StatusBadGateway
	case errors.Is(err, quota.ErrPersistence):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// pathInt64 читает переменную маршрута, роутер уже пропускает только цифры
func pathInt64(r *http.Request, name string) int64 {
	n, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return n
}
