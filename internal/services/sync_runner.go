package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SyncRunnerConfig holds configuration for the periodic sync runner.
type SyncRunnerConfig struct {
	// Interval is how often to trigger a sync round (default: 30s).
	Interval time.Duration

	// UserID is the account being reconciled.
	UserID string
}

// DefaultSyncRunnerConfig returns sensible defaults.
func DefaultSyncRunnerConfig(userID string) SyncRunnerConfig {
	return SyncRunnerConfig{
		Interval: 30 * time.Second,
		UserID:   userID,
	}
}

// SyncRunner triggers sync rounds on a fixed interval. The engine itself
// never retries; the runner is the periodic caller the retry policy is
// delegated to.
type SyncRunner struct {
	engine *SyncEngine
	config SyncRunnerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncRunner(engine *SyncEngine, config SyncRunnerConfig) *SyncRunner {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	return &SyncRunner{engine: engine, config: config}
}

// Start begins the sync loop. Returns an error if already running.
func (r *SyncRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("sync runner is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Sync runner started",
		"interval", r.config.Interval,
		"user_id", r.config.UserID)
	return nil
}

// Stop gracefully stops the runner and waits for the loop to exit.
func (r *SyncRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		slog.InfoContext(ctx, "Sync runner stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync runner stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

// IsRunning reports whether the loop is active.
func (r *SyncRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *SyncRunner) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Sync immediately on startup to drain changes made while offline.
	r.syncOnce(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.syncOnce(ctx)
		}
	}
}

func (r *SyncRunner) syncOnce(ctx context.Context) {
	err := r.engine.Sync(ctx, r.config.UserID)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		slog.DebugContext(ctx, "Skipping sync tick, round still running")
	default:
		// A failed round committed nothing; the next tick retries fresh.
		slog.ErrorContext(ctx, "Sync round failed",
			"user_id", r.config.UserID,
			"error", err)
	}
}
