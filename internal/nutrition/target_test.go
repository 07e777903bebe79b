package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planengine/internal/models"
)

func TestResolve_PregnancySecondTrimester(t *testing.T) {
	r := NewResolver(DefaultResolverConfig(), nil)
	profile := models.UserProfile{
		Gender:        models.GenderFemale,
		WeightKg:      65,
		HeightCm:      165,
		Age:           30,
		ActivityLevel: models.ActivityModeratelyActive,
	}
	phase := models.Pregnancy{Trimester: 2, StartDate: now.AddDate(0, -4, 0)}

	got := r.Resolve(profile, phase, now)

	assert.Equal(t, 2216, got.BaseCalories)
	assert.Equal(t, 340, got.AdjustmentCalories)
	assert.Equal(t, 2556, got.TotalCalories)
	assert.False(t, got.FloorApplied)
	assert.False(t, got.Degraded)
	assert.Equal(t, models.Macros{ProteinG: 192, CarbsG: 288, FatG: 71}, got.Macros)
}

func TestResolve_FloorApplied(t *testing.T) {
	r := NewResolver(DefaultResolverConfig(), nil)
	profile := models.UserProfile{
		Gender:        models.GenderFemale,
		WeightKg:      45,
		HeightCm:      150,
		Age:           80,
		ActivityLevel: models.ActivitySedentary,
	}

	got := r.Resolve(profile, models.NoPhase{}, now)

	assert.Equal(t, 1178, got.BaseCalories)
	assert.Equal(t, 1200, got.TotalCalories)
	assert.True(t, got.FloorApplied)
}

func TestResolve_ConfigurableFloor(t *testing.T) {
	cfg := DefaultResolverConfig()
	cfg.CalorieFloor = 1500
	r := NewResolver(cfg, nil)

	got := r.Resolve(models.UserProfile{}, models.NoPhase{}, now)
	assert.Equal(t, 2000, got.TotalCalories)
	assert.True(t, got.Degraded)

	cfg.CalorieFloor = 2500
	got = NewResolver(cfg, nil).Resolve(models.UserProfile{}, models.NoPhase{}, now)
	assert.Equal(t, 2500, got.TotalCalories)
	assert.True(t, got.FloorApplied)
}

func TestResolve_NeverNegative(t *testing.T) {
	cfg := DefaultResolverConfig()
	cfg.CalorieFloor = -100
	r := NewResolver(cfg, nil)
	assert.Equal(t, 0, r.Config().CalorieFloor)

	profiles := []models.UserProfile{
		{Gender: models.GenderMale, WeightKg: 1, HeightCm: 1, Age: 120},
		{Gender: models.GenderFemale, WeightKg: 0.5, HeightCm: 1, Age: 120},
	}
	for _, p := range profiles {
		got := r.Resolve(p, models.NoPhase{}, now)
		assert.GreaterOrEqual(t, got.TotalCalories, 0)
	}
}

func TestResolve_LifePhaseToggleOff(t *testing.T) {
	cfg := DefaultResolverConfig()
	cfg.LifePhaseNutrition = false
	r := NewResolver(cfg, nil)
	profile := models.UserProfile{Gender: models.GenderMale, WeightKg: 70, HeightCm: 175, Age: 40}

	got := r.Resolve(profile, models.Fasting{Schedule: models.FastingRamadan}, now)
	assert.Equal(t, 2540, got.TotalCalories)
	assert.Zero(t, got.AdjustmentCalories)
	assert.Nil(t, got.MealLabelsOverride)
	assert.False(t, got.HydrationReminder)
}

func TestResolve_FastingCarriesMealLabels(t *testing.T) {
	r := NewResolver(DefaultResolverConfig(), nil)
	profile := models.UserProfile{Gender: models.GenderMale, WeightKg: 70, HeightCm: 175, Age: 40}

	got := r.Resolve(profile, models.Fasting{Schedule: models.FastingRamadan}, now)
	assert.Equal(t, 2540, got.TotalCalories)
	assert.Equal(t, []string{"suhoor", "iftar", "night_snack"}, got.MealLabelsOverride)
	assert.True(t, got.HydrationReminder)
}

func TestMacroSplit_Validate(t *testing.T) {
	require.NoError(t, DefaultMacroSplit.Validate())
	assert.Error(t, MacroSplit{ProteinPercent: 50, CarbsPercent: 50, FatPercent: 10}.Validate())
	assert.Error(t, MacroSplit{ProteinPercent: -10, CarbsPercent: 80, FatPercent: 30}.Validate())
}

func TestNewResolver_InvalidSplitFallsBackToDefault(t *testing.T) {
	cfg := DefaultResolverConfig()
	cfg.Macros = MacroSplit{ProteinPercent: 90}
	r := NewResolver(cfg, nil)
	assert.Equal(t, DefaultMacroSplit, r.Config().Macros)
}
