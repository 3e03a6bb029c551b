package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const budgetColumns = `id, category_id, month, year, amount, currency, updated_at`

// Budgets returns all budgets for one month.
func (s *Store) Budgets(ctx context.Context, month, year int) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE month = ? AND year = ?`, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets for %d/%d: %w", month, year, err)
	}
	defer rows.Close()
	return scanBudgets(rows)
}

// AllBudgets returns every stored budget.
func (s *Store) AllBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("list all budgets: %w", err)
	}
	defer rows.Close()
	return scanBudgets(rows)
}

// SaveBudget stores a budget, replacing any existing entry for the same
// (category, month, year) triple.
func (s *Store) SaveBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, category_id, month, year, amount, currency, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (category_id, month, year) DO UPDATE SET
			amount = excluded.amount,
			currency = excluded.currency,
			updated_at = excluded.updated_at`,
		b.ID, b.CategoryID, b.Month, b.Year, b.Amount, string(b.Currency), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save budget for category %s: %w", b.CategoryID, err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"category_id", b.CategoryID,
		"month", b.Month,
		"year", b.Year,
		"amount", b.Amount)
	return nil
}

func scanBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Month, &b.Year, &b.Amount, &b.Currency, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}
