package nutrition

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"planengine/internal/models"
)

// DefaultCalorieFloor - минимальная дневная цель для генерации питания
const DefaultCalorieFloor = 1200

// Калорийность грамма макронутриента
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// MacroSplit - доля калорий на каждый макронутриент в процентах
type MacroSplit struct {
	ProteinPercent int `yaml:"protein_percent"`
	CarbsPercent   int `yaml:"carbs_percent"`
	FatPercent     int `yaml:"fat_percent"`
}

// DefaultMacroSplit 30/45/25
var DefaultMacroSplit = MacroSplit{ProteinPercent: 30, CarbsPercent: 45, FatPercent: 25}

// Validate проверяет, что доли неотрицательны и в сумме дают 100%
func (m MacroSplit) Validate() error {
	if m.ProteinPercent < 0 || m.CarbsPercent < 0 || m.FatPercent < 0 {
		return fmt.Errorf("macro split must not be negative")
	}
	if sum := m.ProteinPercent + m.CarbsPercent + m.FatPercent; sum != 100 {
		return fmt.Errorf("macro split must sum to 100, got %d", sum)
	}
	return nil
}

// ResolverConfig - параметры политики расчёта
type ResolverConfig struct {
	CalorieFloor       int
	LifePhaseNutrition bool
	Macros             MacroSplit
}

// DefaultResolverConfig возвращает политику по умолчанию
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		CalorieFloor:       DefaultCalorieFloor,
		LifePhaseNutrition: true,
		Macros:             DefaultMacroSplit,
	}
}

// Resolver складывает расчёт по профилю и корректировку фазы в CalorieTarget
type Resolver struct {
	cfg      ResolverConfig
	adjuster *LifePhaseAdjuster
}

// NewResolver создаёт расчётчик. Отрицательный минимум считается нулём.
func NewResolver(cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if cfg.CalorieFloor < 0 {
		cfg.CalorieFloor = 0
	}
	if cfg.Macros.Validate() != nil {
		cfg.Macros = DefaultMacroSplit
	}
	return &Resolver{
		cfg:      cfg,
		adjuster: NewLifePhaseAdjuster(logger),
	}
}

// Config возвращает политику расчётчика
func (r *Resolver) Config() ResolverConfig {
	return r.cfg
}

// Resolve рассчитывает дневную цель для профиля и фазы на момент now
func (r *Resolver) Resolve(profile models.UserProfile, phase models.LifePhase, now time.Time) models.CalorieTarget {
	m := CalculateMetrics(profile)

	var adj Adjustment
	if r.cfg.LifePhaseNutrition {
		adj = r.adjuster.Adjust(phase, now)
	}

	target := models.CalorieTarget{
		BaseCalories:       m.TDEE,
		AdjustmentCalories: adj.Calories,
		TotalCalories:      m.TDEE + adj.Calories,
		MealLabelsOverride: adj.MealLabels,
		HydrationReminder:  adj.HydrationReminder,
		Degraded:           m.Degraded,
	}
	if target.TotalCalories < r.cfg.CalorieFloor {
		target.TotalCalories = r.cfg.CalorieFloor
		target.FloorApplied = true
	}
	target.Macros = r.cfg.Macros.Grams(target.TotalCalories)
	return target
}

// Grams переводит калории в граммы макронутриентов
func (m MacroSplit) Grams(totalCalories int) models.Macros {
	share := func(percent, kcalPerGram int) int {
		return int(math.Round(float64(totalCalories) * float64(percent) / 100 / float64(kcalPerGram)))
	}
	return models.Macros{
		ProteinG: share(m.ProteinPercent, kcalPerGramProtein),
		CarbsG:   share(m.CarbsPercent, kcalPerGramCarbs),
		FatG:     share(m.FatPercent, kcalPerGramFat),
	}
}
