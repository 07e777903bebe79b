package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planengine/internal/nutrition"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.Quota.Default)
	assert.Equal(t, nutrition.DefaultResolverConfig(), cfg.ResolverConfig())
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=postgres sslmode=disable", cfg.DSN())
}

func TestLoad_Env(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"DB_HOST":              "db",
		"DB_PASSWORD":          "secret",
		"CALORIE_FLOOR":        "1500",
		"LIFE_PHASE_NUTRITION": "false",
		"DEFAULT_QUOTA":        "3",
		"RESERVATION_TTL":      "2m",
		"CONTENT_TIMEOUT":      "15s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.DBHost)
	assert.Contains(t, cfg.DSN(), "password=secret")
	assert.Equal(t, 1500, cfg.Nutrition.CalorieFloor)
	assert.False(t, cfg.Nutrition.LifePhaseNutrition)
	assert.Equal(t, 3, cfg.Quota.Default)
	assert.Equal(t, 2*time.Minute, cfg.Quota.ReservationTTL)
	assert.Equal(t, 15*time.Second, cfg.ContentTimeout)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nutrition:
  calorie_floor: 1400
  macros:
    protein_percent: 40
    carbs_percent: 30
    fat_percent: 30
quota:
  default: 10
  reservation_ttl: 30m
`), 0o600))

	cfg, err := load(envFrom(map[string]string{
		"CONFIG_FILE":   path,
		"DEFAULT_QUOTA": "7",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1400, cfg.Nutrition.CalorieFloor)
	assert.True(t, cfg.Nutrition.LifePhaseNutrition)
	assert.Equal(t, nutrition.MacroSplit{ProteinPercent: 40, CarbsPercent: 30, FatPercent: 30}, cfg.Nutrition.Macros)
	assert.Equal(t, 30*time.Minute, cfg.Quota.ReservationTTL)
	// env wins over file
	assert.Equal(t, 7, cfg.Quota.Default)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad int", env: map[string]string{"CALORIE_FLOOR": "lots"}},
		{name: "bad bool", env: map[string]string{"LIFE_PHASE_NUTRITION": "maybe"}},
		{name: "bad duration", env: map[string]string{"RESERVATION_TTL": "soon"}},
		{name: "negative floor", env: map[string]string{"CALORIE_FLOOR": "-1"}},
		{name: "negative quota", env: map[string]string{"DEFAULT_QUOTA": "-2"}},
		{name: "missing file", env: map[string]string{"CONFIG_FILE": "/nonexistent/planengine.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestValidate_MacroSplit(t *testing.T) {
	cfg := Default()
	cfg.Nutrition.Macros = nutrition.MacroSplit{ProteinPercent: 50, CarbsPercent: 50, FatPercent: 50}
	assert.Error(t, cfg.Validate())
}
