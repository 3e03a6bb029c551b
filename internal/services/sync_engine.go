package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/syncapi"
)

// ErrSyncInProgress is returned when Sync is called while another round is
// still running. The caller should simply wait for the running round.
var ErrSyncInProgress = errors.New("sync already in progress")

// Pusher sends one sync round to the remote endpoint.
type Pusher interface {
	Push(ctx context.Context, req syncapi.PushRequest) (*syncapi.PushResponse, error)
}

// SyncEngine reconciles the local store with the remote server. One round
// runs push, apply-remote, commit strictly in that order; a failure anywhere
// before commit leaves dirty flags and the cursor untouched, so a failed
// round can be retried from scratch. Conflicts resolve last-write-wins by
// updatedAt at whole-record granularity.
type SyncEngine struct {
	transactions TransactionSyncStore
	categories   CategorySyncStore
	cursor       CursorStore
	remote       Pusher

	// Guards against overlapping rounds from a double-triggered caller.
	mu sync.Mutex
}

func NewSyncEngine(transactions TransactionSyncStore, categories CategorySyncStore, cursor CursorStore, remote Pusher) *SyncEngine {
	return &SyncEngine{
		transactions: transactions,
		categories:   categories,
		cursor:       cursor,
		remote:       remote,
	}
}

// Sync runs one full reconciliation round for userID.
func (e *SyncEngine) Sync(ctx context.Context, userID string) error {
	if !e.mu.TryLock() {
		return ErrSyncInProgress
	}
	defer e.mu.Unlock()

	started := time.Now()

	// Collect: cursor plus everything with local changes, tombstones included.
	cursor, err := e.cursor.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("read sync cursor: %w", err)
	}
	dirtyTxs, err := e.transactions.DirtyTransactions(ctx)
	if err != nil {
		return fmt.Errorf("collect dirty transactions: %w", err)
	}
	dirtyCats, err := e.categories.DirtyCategories(ctx)
	if err != nil {
		return fmt.Errorf("collect dirty categories: %w", err)
	}

	slog.InfoContext(ctx, "Sync round started",
		"user_id", userID,
		"dirty_transactions", len(dirtyTxs),
		"dirty_categories", len(dirtyCats),
		"cursor", cursorString(cursor))

	// Push.
	req := syncapi.PushRequest{UserID: userID}
	if cursor != nil {
		s := cursor.UTC().Format(time.RFC3339Nano)
		req.LastSyncTimestamp = &s
	}
	req.Changes.Updated = dirtyTxs
	req.Changes.Categories.Updated = dirtyCats

	resp, err := e.remote.Push(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "Sync push failed", "user_id", userID, "error", err)
		return fmt.Errorf("push local changes: %w", err)
	}

	newCursor, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	if err != nil {
		return fmt.Errorf("parse server timestamp %q: %w", resp.Timestamp, err)
	}

	// Apply remote changes; last-write-wins is enforced inside the upserts.
	if serverTxs := resp.ServerTransactions(); len(serverTxs) > 0 {
		if err := e.transactions.UpsertTransactions(ctx, serverTxs); err != nil {
			return fmt.Errorf("apply server transactions: %w", err)
		}
	}
	if serverCats := resp.ServerCategories(); len(serverCats) > 0 {
		if err := e.categories.UpsertCategories(ctx, serverCats); err != nil {
			return fmt.Errorf("apply server categories: %w", err)
		}
	}

	// Commit: clear exactly what this round transmitted, then advance the
	// cursor. Records received in the apply step are already clean.
	if len(dirtyTxs) > 0 {
		if err := e.transactions.MarkTransactionsSynced(ctx, transactionIDs(dirtyTxs)); err != nil {
			return fmt.Errorf("mark transactions synced: %w", err)
		}
	}
	if len(dirtyCats) > 0 {
		if err := e.categories.MarkCategoriesSynced(ctx, categoryIDs(dirtyCats)); err != nil {
			return fmt.Errorf("mark categories synced: %w", err)
		}
	}
	if err := e.cursor.SetLastSync(ctx, newCursor); err != nil {
		return fmt.Errorf("advance sync cursor: %w", err)
	}

	slog.InfoContext(ctx, "Sync round completed",
		"user_id", userID,
		"pushed_transactions", len(dirtyTxs),
		"pushed_categories", len(dirtyCats),
		"received_transactions", len(resp.ServerTransactions()),
		"received_categories", len(resp.ServerCategories()),
		"new_cursor", newCursor,
		"duration", time.Since(started))

	return nil
}

// ClearSyncData drops the cursor; the next round behaves like a first sync.
func (e *SyncEngine) ClearSyncData(ctx context.Context) error {
	if err := e.cursor.ClearLastSync(ctx); err != nil {
		return fmt.Errorf("clear sync cursor: %w", err)
	}
	return nil
}

func transactionIDs(txs []core.Transaction) []string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return ids
}

func categoryIDs(cats []core.Category) []string {
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

func cursorString(cursor *time.Time) string {
	if cursor == nil {
		return "none"
	}
	return cursor.UTC().Format(time.RFC3339Nano)
}
