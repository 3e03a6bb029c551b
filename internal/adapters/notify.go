// Package adapters decorates repositories with cross-cutting behavior the
// repositories themselves should not know about.
package adapters

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// SyncNotifier publishes a sync request after a local mutation so a worker
// can reconcile promptly instead of waiting for the next interval tick.
type SyncNotifier interface {
	PublishSyncRequest(ctx context.Context, userID, reason string) error
}

// NotifyingTransactionRepository wraps a transaction repository and fires a
// best-effort sync request after every successful write. Publish failures
// are logged and dropped: the dirty flag already guarantees the change
// reaches the server on the next round.
type NotifyingTransactionRepository struct {
	services.TransactionRepository
	notifier SyncNotifier
	userID   string
	reason   string
}

func NewNotifyingTransactionRepository(inner services.TransactionRepository, notifier SyncNotifier, userID string) *NotifyingTransactionRepository {
	return &NotifyingTransactionRepository{
		TransactionRepository: inner,
		notifier:              notifier,
		userID:                userID,
		reason:                "mutation",
	}
}

func (r *NotifyingTransactionRepository) AddTransaction(ctx context.Context, tx core.Transaction) error {
	if err := r.TransactionRepository.AddTransaction(ctx, tx); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingTransactionRepository) AddTransactions(ctx context.Context, txs []core.Transaction) error {
	if err := r.TransactionRepository.AddTransactions(ctx, txs); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingTransactionRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := r.TransactionRepository.UpdateTransaction(ctx, tx); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingTransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	if err := r.TransactionRepository.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingTransactionRepository) DeleteInstallmentGroup(ctx context.Context, groupID string) error {
	if err := r.TransactionRepository.DeleteInstallmentGroup(ctx, groupID); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingTransactionRepository) notify(ctx context.Context) {
	if err := r.notifier.PublishSyncRequest(ctx, r.userID, r.reason); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync request", "user_id", r.userID, "error", err)
	}
}

// NotifyingCategoryRepository is the category counterpart.
type NotifyingCategoryRepository struct {
	services.CategoryRepository
	notifier SyncNotifier
	userID   string
	reason   string
}

func NewNotifyingCategoryRepository(inner services.CategoryRepository, notifier SyncNotifier, userID string) *NotifyingCategoryRepository {
	return &NotifyingCategoryRepository{
		CategoryRepository: inner,
		notifier:           notifier,
		userID:             userID,
		reason:             "mutation",
	}
}

func (r *NotifyingCategoryRepository) AddCategory(ctx context.Context, c core.Category) error {
	if err := r.CategoryRepository.AddCategory(ctx, c); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingCategoryRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := r.CategoryRepository.UpdateCategory(ctx, c); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingCategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if err := r.CategoryRepository.DeleteCategory(ctx, id); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *NotifyingCategoryRepository) notify(ctx context.Context) {
	if err := r.notifier.PublishSyncRequest(ctx, r.userID, r.reason); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync request", "user_id", r.userID, "error", err)
	}
}
