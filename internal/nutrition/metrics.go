package nutrition

import (
	"math"

	"planengine/internal/models"
)

// FallbackCalories используется, если в профиле нет веса, роста или возраста
const FallbackCalories = 2000

// DefaultActivityFactor для неизвестного или пустого уровня активности
const DefaultActivityFactor = 1.55

// ActivityFactors - множитель TDEE по уровню активности
var ActivityFactors = map[models.ActivityLevel]float64{
	models.ActivitySedentary:        1.20,
	models.ActivityLightlyActive:    1.375,
	models.ActivityModeratelyActive: 1.55,
	models.ActivityVeryActive:       1.725,
	models.ActivityExtremelyActive:  1.90,
}

// Metrics - результат расчёта по профилю, округлён до ккал
type Metrics struct {
	BMR      int
	TDEE     int
	Degraded bool
}

// CalculateBMR возвращает неокруглённый базовый обмен.
// ok = false для неполного профиля.
func CalculateBMR(p models.UserProfile) (bmr float64, ok bool) {
	if !p.IsComplete() {
		return 0, false
	}
	w, h, a := p.WeightKg, p.HeightCm, float64(p.Age)
	if p.Gender == models.GenderMale {
		return 88.362 + 13.397*w + 4.799*h - 5.677*a, true
	}
	return 447.593 + 9.247*w + 3.098*h - 4.330*a, true
}

// ActivityFactor возвращает множитель уровня, 1.55 если неизвестен
func ActivityFactor(level models.ActivityLevel) float64 {
	if f, ok := ActivityFactors[level]; ok {
		return f
	}
	return DefaultActivityFactor
}

// CalculateMetrics рассчитывает BMR и TDEE.
// Неполный профиль не ошибка: TDEE равен 2000 ккал.
func CalculateMetrics(p models.UserProfile) Metrics {
	bmr, ok := CalculateBMR(p)
	if !ok {
		return Metrics{TDEE: FallbackCalories, Degraded: true}
	}
	tdee := bmr * ActivityFactor(p.ActivityLevel)
	return Metrics{
		BMR:  int(math.Round(bmr)),
		TDEE: int(math.Round(tdee)),
	}
}

// CalculateTDEE возвращает только дневной расход
func CalculateTDEE(p models.UserProfile) int {
	return CalculateMetrics(p).TDEE
}
