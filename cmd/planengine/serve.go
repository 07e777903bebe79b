package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"planengine/internal/config"
	"planengine/internal/generation"
	"planengine/internal/httpapi"
	"planengine/internal/jobs"
	"planengine/internal/nutrition"
	"planengine/internal/planner"
	"planengine/internal/quota"
	"planengine/internal/repository"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and quota maintenance jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := repository.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	repo := repository.New(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gate := quota.NewGate(repo.Quota, logger, reg).WithDefaultQuota(cfg.Quota.Default)
	svc := planner.NewService(planner.Deps{
		Profiles: repo.Profile,
		Programs: repo.Program,
		Content:  generation.NewClient(cfg.ContentServiceURL, cfg.ContentTimeout),
		Gate:     gate,
		Resolver: nutrition.NewResolver(cfg.ResolverConfig(), logger),
		Logger:   logger,
		Registry: reg,
	})

	scheduler, err := jobs.New(gate, jobs.Config{
		ResetSpec:      cfg.Quota.ResetSpec,
		DefaultQuota:   cfg.Quota.Default,
		ReservationTTL: cfg.Quota.ReservationTTL,
	}, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	if path := cfg.ConfigFile; path != "" {
		go func() {
			err := config.Watch(ctx, path, config.Load, func(next *config.Config) {
				svc.SetResolver(nutrition.NewResolver(next.ResolverConfig(), logger))
			}, logger)
			if err != nil {
				logger.Error("Config watcher stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewHandler(httpapi.Options{
			Planner:  svc,
			Quota:    gate,
			DB:       db,
			Gatherer: reg,
			Logger:   logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("planengine ready", "version", Version, "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
