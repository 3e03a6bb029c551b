// fintrackd is the long-running host for a local finance store: it seeds
// default categories on first launch, keeps the exchange-rate cache warm,
// and reconciles the store with the sync server on an interval.
package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/syncapi"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	logger.Info("Starting fintrackd")

	cfg := cli.LoadAndValidateConfig(logger)

	// Assemble the repository set (local SQLite or server-backed REST).
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}
	repos := result.Repositories

	// Warm the exchange-rate cache so the first conversion is served fresh.
	// Failure is fine: conversions fall back to a fetch on demand.
	rateCache := rates.NewCache(rates.NewClient(cfg.RateAPIBaseURL, nil), cfg.RateCacheTTL)
	if snap, err := rateCache.Rates(context.Background(), true); err != nil {
		logger.Warn("Exchange rate warm-up failed", "error", err)
	} else {
		logger.Info("Exchange rates loaded",
			"blue_avg", snap.Blue.Avg,
			"official_avg", snap.Official.Avg)
	}

	// Seeding and background sync need the local store's sync extensions.
	var runner *services.SyncRunner
	if repos.Store != nil {
		categories := services.NewCategoryService(repos.Categories, repos.Store)
		categories.SeedDefaults(context.Background())

		if cfg.SyncBaseURL != "" {
			remote := syncapi.NewClient(cfg.SyncBaseURL, nil, syncapi.StaticToken(cfg.SyncToken))
			engine := services.NewSyncEngine(repos.Store, repos.Store, repos.Store, remote)
			runner = services.NewSyncRunner(engine, services.SyncRunnerConfig{
				Interval: cfg.SyncInterval,
				UserID:   cfg.UserID,
			})
			if err := runner.Start(context.Background()); err != nil {
				logger.Error("Failed to start sync runner", "error", err)
				os.Exit(1)
			}
		} else {
			logger.Info("Sync disabled - no SYNC_BASE_URL provided")
		}
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if runner != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := runner.Stop(stopCtx); err != nil {
				logger.Error("Sync runner stop failed", "error", err)
			}
		}
	})

	logger.Info("fintrackd running",
		"backend", cfg.DataBackend,
		"sync_enabled", runner != nil,
		"db_path", cfg.DBPath)

	cli.WaitForShutdown(ctx, done)
	logger.Info("fintrackd stopped")
}
