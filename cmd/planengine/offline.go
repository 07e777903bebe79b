package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"planengine/internal/models"
	"planengine/internal/nutrition"
	"planengine/internal/schedule"
)

const dateLayout = "2006-01-02"

func targetCmd() *cobra.Command {
	var (
		profile    models.UserProfile
		gender     string
		activity   string
		phaseKind  string
		phaseSub   string
		phaseStart string
		floor      int
		noPhase    bool
	)

	cmd := &cobra.Command{
		Use:   "target",
		Short: "Compute a daily calorie target from flags, without a database",
		Example: `  planengine target --gender female --weight 65 --height 165 --age 30 \
    --activity moderately_active --phase pregnancy --phase-sub 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile.Gender = models.Gender(gender)
			profile.ActivityLevel = models.ActivityLevel(activity)

			phase, err := parsePhase(phaseKind, phaseSub, phaseStart)
			if err != nil {
				return err
			}

			cfg := nutrition.DefaultResolverConfig()
			cfg.CalorieFloor = floor
			cfg.LifePhaseNutrition = !noPhase

			target := nutrition.NewResolver(cfg, slog.Default()).Resolve(profile, phase, time.Now())
			return printJSON(cmd.OutOrStdout(), target)
		},
	}

	f := cmd.Flags()
	f.StringVar(&gender, "gender", "", "male or female")
	f.Float64Var(&profile.WeightKg, "weight", 0, "Weight in kg")
	f.Float64Var(&profile.HeightCm, "height", 0, "Height in cm")
	f.IntVar(&profile.Age, "age", 0, "Age in years")
	f.StringVar(&activity, "activity", "", "sedentary, lightly_active, moderately_active, very_active, extremely_active")
	f.StringVar(&phaseKind, "phase", "", "pregnancy, breastfeeding or fasting")
	f.StringVar(&phaseSub, "phase-sub", "", "Trimester (1-3), breastfeeding level or fasting schedule")
	f.StringVar(&phaseStart, "phase-start", "", "Phase start date (YYYY-MM-DD)")
	f.IntVar(&floor, "floor", nutrition.DefaultCalorieFloor, "Minimum daily calories")
	f.BoolVar(&noPhase, "no-life-phase", false, "Ignore life phase adjustments")
	return cmd
}

func parsePhase(kind, sub, start string) (models.LifePhase, error) {
	if kind == "" {
		return models.NoPhase{}, nil
	}
	var since time.Time
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("--phase-start: %w", err)
		}
		since = t
	}
	return models.NewLifePhase(models.LifePhaseKind(kind), sub, since)
}

func scheduleCmd() *cobra.Command {
	var (
		workoutType string
		today       int
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the weekly rest/training layout for a workout type",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := schedule.Generate(schedule.Request{
				WorkoutType: models.WorkoutType(workoutType),
				Today:       today,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), days)
		},
	}

	cmd.Flags().StringVar(&workoutType, "type", string(models.WorkoutHome), "home or gym")
	cmd.Flags().IntVar(&today, "today", 0, "Day to mark as today (1=Monday..7), 0 for none")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
