package nutrition

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"planengine/internal/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestAdjust_Calories(t *testing.T) {
	past := now.AddDate(0, -2, 0)
	tests := []struct {
		name  string
		phase models.LifePhase
		want  int
	}{
		{"none", models.NoPhase{}, 0},
		{"nil phase", nil, 0},
		{"pregnancy first trimester", models.Pregnancy{Trimester: 1, StartDate: past}, 0},
		{"pregnancy second trimester", models.Pregnancy{Trimester: 2, StartDate: past}, 340},
		{"pregnancy third trimester", models.Pregnancy{Trimester: 3, StartDate: past}, 450},
		{"breastfeeding exclusive", models.Breastfeeding{Level: models.BreastfeedingExclusive, StartDate: past}, 400},
		{"breastfeeding partial", models.Breastfeeding{Level: models.BreastfeedingPartial, StartDate: past}, 250},
		{"fasting ramadan", models.Fasting{Schedule: models.FastingRamadan, StartDate: past}, 0},
		{"fasting 16:8", models.Fasting{Schedule: models.FastingIntermittent168, StartDate: past}, 0},
		{"no start date counts as active", models.Pregnancy{Trimester: 3}, 450},
	}

	a := NewLifePhaseAdjuster(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Adjust(tt.phase, now).Calories)
		})
	}
}

func TestAdjust_StartDateBoundary(t *testing.T) {
	a := NewLifePhaseAdjuster(nil)

	future := models.Pregnancy{Trimester: 2, StartDate: now.Add(time.Second)}
	assert.Equal(t, Adjustment{}, a.Adjust(future, now), "phase starting after now is not active")

	exact := models.Pregnancy{Trimester: 2, StartDate: now}
	assert.Equal(t, 340, a.Adjust(exact, now).Calories, "phase starting exactly now is active")

	fasting := models.Fasting{Schedule: models.FastingRamadan, StartDate: now.AddDate(0, 0, 1)}
	adj := a.Adjust(fasting, now)
	assert.Empty(t, adj.MealLabels)
	assert.False(t, adj.HydrationReminder)
}

func TestAdjust_FastingMealLabels(t *testing.T) {
	a := NewLifePhaseAdjuster(nil)
	tests := []struct {
		schedule  models.FastingSchedule
		labels    []string
		hydration bool
	}{
		{models.FastingRamadan, []string{"suhoor", "iftar", "night_snack"}, true},
		{models.FastingSunMon, []string{"suhoor", "iftar"}, true},
		{models.FastingIntermittent168, []string{"first_meal", "afternoon_meal", "last_meal"}, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.schedule), func(t *testing.T) {
			adj := a.Adjust(models.Fasting{Schedule: tt.schedule}, now)
			assert.Equal(t, 0, adj.Calories)
			assert.Equal(t, tt.labels, adj.MealLabels)
			assert.Equal(t, tt.hydration, adj.HydrationReminder)
		})
	}
}

func TestAdjust_InvalidPhaseIsIgnoredAndLogged(t *testing.T) {
	var buf bytes.Buffer
	a := NewLifePhaseAdjuster(slog.New(slog.NewTextHandler(&buf, nil)))

	tests := []struct {
		name  string
		phase models.LifePhase
	}{
		{"trimester out of range", models.Pregnancy{Trimester: 4}},
		{"unknown breastfeeding level", models.Breastfeeding{Level: "sometimes"}},
		{"unknown fasting schedule", models.Fasting{Schedule: "5_2"}},
		{"pointer variant", &models.Pregnancy{Trimester: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			assert.Equal(t, Adjustment{}, a.Adjust(tt.phase, now))
			assert.Contains(t, buf.String(), "Ignoring invalid life phase")
		})
	}
}
