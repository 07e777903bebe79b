package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"planengine/internal/config"
	"planengine/internal/quota"
	"planengine/internal/repository"
	"planengine/migrations"
)

func quotaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Inspect and manage generation quotas",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show USER_ID",
			Short: "Show remaining generations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid user id %q", args[0])
				}
				return withGate(func(_ *config.Config, gate *quota.Gate) error {
					q, err := gate.Remaining(cmd.Context(), userID)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), q)
				})
			},
		},
		&cobra.Command{
			Use:   "set USER_ID REMAINING",
			Short: "Set remaining generations for a user",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid user id %q", args[0])
				}
				value, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quota value %q", args[1])
				}
				return withGate(func(_ *config.Config, gate *quota.Gate) error {
					return gate.SetRemaining(cmd.Context(), userID, value)
				})
			},
		},
		&cobra.Command{
			Use:   "replenish",
			Short: "Reset every user's quota to DEFAULT_QUOTA now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withGate(func(cfg *config.Config, gate *quota.Gate) error {
					n, err := gate.ReplenishAll(cmd.Context(), cfg.Quota.Default)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "replenished %d users to %d\n", n, cfg.Quota.Default)
					return nil
				})
			},
		},
	)
	return cmd
}

// withGate открывает базу для одной административной команды
func withGate(fn func(*config.Config, *quota.Gate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := repository.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return fn(cfg, quota.NewGate(repository.NewQuotaRepository(db), slog.Default(), nil).
		WithDefaultQuota(cfg.Quota.Default))
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := repository.Open(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			applied, err := migrations.Apply(cmd.Context(), db)
			if err != nil {
				return err
			}
			slog.Info("Schema up to date", "applied", applied)
			return nil
		},
	}
}
