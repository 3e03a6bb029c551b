package services

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for the storage collaborators. The SQLite store implements all of
// them; the REST-backed repositories in internal/remote implement the
// non-sync subsets for server-backed hosts.
type (
	TransactionRepository interface {
		Transactions(ctx context.Context) ([]core.Transaction, error)
		Transaction(ctx context.Context, id string) (core.Transaction, error)
		AddTransaction(ctx context.Context, tx core.Transaction) error
		AddTransactions(ctx context.Context, txs []core.Transaction) error
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		DeleteInstallmentGroup(ctx context.Context, groupID string) error
		InstallmentGroup(ctx context.Context, groupID string) ([]core.Transaction, error)
	}

	CategoryRepository interface {
		Categories(ctx context.Context) ([]core.Category, error)
		Category(ctx context.Context, id string) (core.Category, error)
		AddCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id string) error
	}

	BudgetRepository interface {
		Budgets(ctx context.Context, month, year int) ([]core.Budget, error)
		SaveBudget(ctx context.Context, b core.Budget) error
		AllBudgets(ctx context.Context) ([]core.Budget, error)
	}

	// TransactionSyncStore is the dirty-tracking extension the sync engine
	// needs on top of TransactionRepository.
	TransactionSyncStore interface {
		DirtyTransactions(ctx context.Context) ([]core.Transaction, error)
		MarkTransactionsSynced(ctx context.Context, ids []string) error
		UpsertTransactions(ctx context.Context, txs []core.Transaction) error
	}

	CategorySyncStore interface {
		DirtyCategories(ctx context.Context) ([]core.Category, error)
		MarkCategoriesSynced(ctx context.Context, ids []string) error
		UpsertCategories(ctx context.Context, cats []core.Category) error
	}

	// CursorStore persists the last-sync timestamp between rounds.
	CursorStore interface {
		LastSync(ctx context.Context) (*time.Time, error)
		SetLastSync(ctx context.Context, ts time.Time) error
		ClearLastSync(ctx context.Context) error
	}

	// SeedGuard persists the one-time default-category seeding flag.
	SeedGuard interface {
		SeededCategories(ctx context.Context) (bool, error)
		MarkCategoriesSeeded(ctx context.Context) error
	}
)
