package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/adapters"
	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/remote"
	"fintrack/internal/storage"
	"fintrack/internal/syncapi"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg *config.Config) (*BackendResult, error) {
	backendType := BackendType(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case LocalBackend:
		return f.createLocalBackend(cfg)
	case RemoteBackend:
		return f.createRemoteBackend(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func (f *DefaultFactory) createLocalBackend(cfg *config.Config) (*BackendResult, error) {
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize local store: %w", err)
	}

	repos := Repositories{
		Transactions: store,
		Categories:   store,
		Budgets:      store,
		Store:        store,
	}

	// AMQP is optional: without it, mutations wait for the interval tick.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync notifications", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			repos.Transactions = adapters.NewNotifyingTransactionRepository(store, amqpClient, cfg.UserID)
			repos.Categories = adapters.NewNotifyingCategoryRepository(store, amqpClient, cfg.UserID)
			storeClose := store.Close
			return &BackendResult{
				Repositories: repos,
				Cleanup: func() error {
					amqpClient.Close()
					return storeClose()
				},
			}, nil
		}
	}

	f.logger.Info("Initialized local backend", "db_path", cfg.DBPath)

	return &BackendResult{
		Repositories: repos,
		Cleanup:      store.Close,
	}, nil
}

func (f *DefaultFactory) createRemoteBackend(cfg *config.Config) (*BackendResult, error) {
	client := remote.NewClient(cfg.SyncBaseURL, nil, syncapi.StaticToken(cfg.SyncToken))

	f.logger.Info("Initialized remote backend", "base_url", cfg.SyncBaseURL)

	return &BackendResult{
		Repositories: Repositories{
			Transactions: remote.NewTransactionRepository(client),
			Categories:   remote.NewCategoryRepository(client),
			Budgets:      remote.NewBudgetRepository(client),
		},
		Cleanup: nil, // nothing to release for the REST client
	}, nil
}
