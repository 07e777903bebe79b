package nutrition

import (
	"log/slog"
	"time"

	"planengine/internal/models"
)

// Надбавки при беременности и кормлении, ккал/день
const (
	PregnancySecondTrimesterKcal = 340
	PregnancyThirdTrimesterKcal  = 450
	BreastfeedingExclusiveKcal   = 400
	BreastfeedingPartialKcal     = 250
)

// Названия приёмов пищи для режимов поста
const (
	MealSuhoor     = "suhoor"
	MealIftar      = "iftar"
	MealNightSnack = "night_snack"
	MealFirst      = "first_meal"
	MealAfternoon  = "afternoon_meal"
	MealLast       = "last_meal"
)

// Adjustment - вклад фазы жизни в калорийность
type Adjustment struct {
	Calories          int
	MealLabels        []string
	HydrationReminder bool
}

// LifePhaseAdjuster переводит фазу жизни в корректировку калорий.
// Учитывается одна фаза, корректировки не суммируются.
type LifePhaseAdjuster struct {
	logger *slog.Logger
}

// NewLifePhaseAdjuster создаёт корректировщик, nil logger означает slog.Default()
func NewLifePhaseAdjuster(logger *slog.Logger) *LifePhaseAdjuster {
	if logger == nil {
		logger = slog.Default()
	}
	return &LifePhaseAdjuster{logger: logger}
}

// Adjust возвращает корректировку для фазы на момент now.
// Фаза с датой начала позже now ещё не активна.
// Некорректный вариант логируется и считается отсутствием фазы.
func (a *LifePhaseAdjuster) Adjust(phase models.LifePhase, now time.Time) Adjustment {
	if phase == nil {
		return Adjustment{}
	}
	if start := phase.Since(); !start.IsZero() && start.After(now) {
		return Adjustment{}
	}

	switch p := phase.(type) {
	case models.NoPhase:
		return Adjustment{}
	case models.Pregnancy:
		if err := p.Validate(); err != nil {
			a.invalid(phase, err)
			return Adjustment{}
		}
		switch p.Trimester {
		case 2:
			return Adjustment{Calories: PregnancySecondTrimesterKcal}
		case 3:
			return Adjustment{Calories: PregnancyThirdTrimesterKcal}
		}
		return Adjustment{}
	case models.Breastfeeding:
		if err := p.Validate(); err != nil {
			a.invalid(phase, err)
			return Adjustment{}
		}
		if p.Level == models.BreastfeedingExclusive {
			return Adjustment{Calories: BreastfeedingExclusiveKcal}
		}
		return Adjustment{Calories: BreastfeedingPartialKcal}
	case models.Fasting:
		if err := p.Validate(); err != nil {
			a.invalid(phase, err)
			return Adjustment{}
		}
		return fastingAdjustment(p.Schedule)
	default:
		a.invalid(phase, models.ErrInvalidLifePhase)
		return Adjustment{}
	}
}

func (a *LifePhaseAdjuster) invalid(phase models.LifePhase, err error) {
	a.logger.Warn("Ignoring invalid life phase",
		"kind", phase.Kind(),
		"error", err)
}

// fastingAdjustment меняет только время приёмов пищи, калорийность та же
func fastingAdjustment(schedule models.FastingSchedule) Adjustment {
	switch schedule {
	case models.FastingRamadan:
		return Adjustment{
			MealLabels:        []string{MealSuhoor, MealIftar, MealNightSnack},
			HydrationReminder: true,
		}
	case models.FastingSunMon:
		return Adjustment{
			MealLabels:        []string{MealSuhoor, MealIftar},
			HydrationReminder: true,
		}
	case models.FastingIntermittent168:
		return Adjustment{
			MealLabels: []string{MealFirst, MealAfternoon, MealLast},
		}
	}
	return Adjustment{}
}
