// fintrack-worker consumes sync requests from RabbitMQ and runs one
// reconciliation round per request against the local store. It exists for
// hosts that want mutation-triggered sync without embedding the runner in
// the app process.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/syncapi"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.SyncBaseURL == "" {
		logger.Error("SYNC_BASE_URL is required for the worker")
		os.Exit(1)
	}

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer store.Close()

	remote := syncapi.NewClient(cfg.SyncBaseURL, nil, syncapi.StaticToken(cfg.SyncToken))
	engine := services.NewSyncEngine(store, store, store, remote)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumeDone := make(chan struct{})
	go func() {
		defer close(consumeDone)
		err := amqpClient.ConsumeSyncRequests(ctx, func(msg *amqp.SyncRequestMessage) error {
			syncCtx, syncCancel := context.WithTimeout(ctx, 2*time.Minute)
			defer syncCancel()

			err := engine.Sync(syncCtx, msg.UserID)
			if errors.Is(err, services.ErrSyncInProgress) {
				// A round is already draining the dirty set this request
				// cares about; dropping the message is safe.
				logger.Info("Sync already running, dropping request",
					"user_id", msg.UserID,
					"reason", msg.Reason)
				return nil
			}
			return err
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	select {
	case <-shutdownCtx.Done():
	case <-ctx.Done():
		logger.Info("Consumer stopped")
	}

	<-consumeDone
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	logger.Info("fintrack-worker stopped")
}
