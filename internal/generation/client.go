// Package generation вызывает внешний сервис контента, который составляет
// планы питания и программы упражнений по ограничениям движка.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"planengine/internal/models"
)

// ErrGeneration оборачивает любую ошибку сервиса контента
var ErrGeneration = errors.New("content generation failed")

// MealPlanRequest - числовые ограничения для плана питания
type MealPlanRequest struct {
	UserID     int64                `json:"user_id"`
	Target     models.CalorieTarget `json:"target"`
	MealLabels []string             `json:"meal_labels,omitempty"`
}

// Meal - один приём пищи в плане
type Meal struct {
	Label    string `json:"label"`
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

// MealPlan - ответ сервиса на запрос плана питания
type MealPlan struct {
	Meals         []Meal `json:"meals"`
	TotalCalories int    `json:"total_calories"`
}

// ExerciseProgramRequest - структура недели для программы упражнений
type ExerciseProgramRequest struct {
	UserID       int64              `json:"user_id"`
	WorkoutType  models.WorkoutType `json:"workout_type"`
	TrainingDays []int              `json:"training_days"`
}

// ExerciseProgram - ответ сервиса на запрос программы упражнений
type ExerciseProgram struct {
	Days []models.DailyWorkout `json:"days"`
}

// Validate проверяет, что хотя бы один тренировочный день пришёл с упражнениями
func (p ExerciseProgram) Validate(trainingDays []int) error {
	for _, w := range p.Days {
		if len(w.Exercises) == 0 {
			continue
		}
		for _, day := range trainingDays {
			if w.DayNumber == day {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: no exercises for training days %v", ErrGeneration, trainingDays)
}

// Client работает с сервисом контента по JSON/HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для baseURL с таймаутом запроса
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateMealPlan запрашивает план питания под цель
func (c *Client) GenerateMealPlan(ctx context.Context, req MealPlanRequest) (MealPlan, error) {
	var plan MealPlan
	if err := c.post(ctx, "/v1/meal-plans", req, &plan); err != nil {
		return MealPlan{}, err
	}
	if len(plan.Meals) == 0 {
		return MealPlan{}, fmt.Errorf("%w: empty meal plan", ErrGeneration)
	}
	return plan, nil
}

// GenerateExerciseProgram запрашивает тренировки на тренировочные дни
func (c *Client) GenerateExerciseProgram(ctx context.Context, req ExerciseProgramRequest) (ExerciseProgram, error) {
	var program ExerciseProgram
	if err := c.post(ctx, "/v1/exercise-programs", req, &program); err != nil {
		return ExerciseProgram{}, err
	}
	if err := program.Validate(req.TrainingDays); err != nil {
		return ExerciseProgram{}, err
	}
	return program, nil
}

// post отправляет body как JSON и декодирует ответ в out
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrGeneration, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrGeneration, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrGeneration, err)
	}
	return nil
}
