package models

import "time"

// Gender - пол пользователя из профиля
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ActivityLevel - уровень активности в обычную неделю
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityExtremelyActive  ActivityLevel = "extremely_active"
)

// UserProfile - снимок биометрии для одного расчёта, только для чтения
type UserProfile struct {
	UserID        int64         `json:"user_id"`
	Gender        Gender        `json:"gender"`
	WeightKg      float64       `json:"weight_kg"`
	HeightCm      float64       `json:"height_cm"`
	Age           int           `json:"age"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// MaxAge - верхняя граница правдоподобного возраста
const MaxAge = 120

// IsComplete - заполнены ли все поля, нужные для BMR
func (p UserProfile) IsComplete() bool {
	return p.WeightKg > 0 && p.HeightCm > 0 && p.Age > 0 && p.Age <= MaxAge
}
