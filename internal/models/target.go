package models

import "time"

// Macros - дневная норма макронутриентов в граммах
type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// CalorieTarget - дневная цель для генерации плана питания.
// Пересчитывается на каждый запрос и не сохраняется.
type CalorieTarget struct {
	BaseCalories       int      `json:"base_calories"`
	AdjustmentCalories int      `json:"adjustment_calories"`
	TotalCalories      int      `json:"total_calories"`
	MealLabelsOverride []string `json:"meal_labels_override,omitempty"`
	HydrationReminder  bool     `json:"hydration_reminder"`
	Macros             Macros   `json:"macros"`
	Degraded           bool     `json:"degraded"`      // профиль неполный, TDEE по умолчанию
	FloorApplied       bool     `json:"floor_applied"` // итог поднят до минимума
}

// GenerationQuota - остаток генераций пользователя
type GenerationQuota struct {
	UserID    int64     `json:"user_id"`
	Remaining int       `json:"remaining"`
	UpdatedAt time.Time `json:"updated_at"`
}
