package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/currency"
)

type (
	// BudgetStatus is one category's budget against actual spend, both
	// expressed in the summary's display currency.
	BudgetStatus struct {
		CategoryID string
		Budgeted   float64
		Spent      float64
		Remaining  float64
	}

	// MonthSummary aggregates every budgeted category for one month.
	MonthSummary struct {
		Month         int
		Year          int
		Currency      core.Currency
		Categories    []BudgetStatus
		TotalBudgeted float64
		TotalSpent    float64
	}
)

// BudgetService owns budget CRUD and the monthly budget-vs-spend summary.
// Summaries cross the transaction store and the conversion engine, so they
// are memoized in a short-lived cache that every write invalidates.
type BudgetService struct {
	budgets      BudgetRepository
	transactions TransactionRepository
	converter    *currency.Converter

	summaries *cache.TTLCache[MonthSummary]
}

func NewBudgetService(budgets BudgetRepository, transactions TransactionRepository, converter *currency.Converter) *BudgetService {
	return &BudgetService{
		budgets:      budgets,
		transactions: transactions,
		converter:    converter,
		summaries:    cache.New[MonthSummary](24, time.Minute),
	}
}

// Set validates and stores a budget, replacing any existing entry for the
// same (category, month, year).
func (s *BudgetService) Set(ctx context.Context, categoryID string, month, year int, amount float64, cur core.Currency) (core.Budget, error) {
	b, err := core.NewBudget(categoryID, month, year, amount, cur)
	if err != nil {
		return core.Budget{}, err
	}
	if err := s.budgets.SaveBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.summaries.Purge()
	return b, nil
}

// ForMonth returns the budgets stored for one month.
func (s *BudgetService) ForMonth(ctx context.Context, month, year int) ([]core.Budget, error) {
	return s.budgets.Budgets(ctx, month, year)
}

// All returns every stored budget.
func (s *BudgetService) All(ctx context.Context) ([]core.Budget, error) {
	return s.budgets.AllBudgets(ctx)
}

// InvalidateSummaries drops memoized summaries; call after a sync round
// applies remote transactions.
func (s *BudgetService) InvalidateSummaries() {
	s.summaries.Purge()
}

// MonthSummary computes budget-vs-spend per category for one month, with
// all amounts converted into display using the given rate type.
func (s *BudgetService) MonthSummary(ctx context.Context, month, year int, display core.Currency, rateType currency.RateType) (MonthSummary, error) {
	key := fmt.Sprintf("summary-%d-%02d-%s-%s", year, month, display, rateType)
	if summary, ok := s.summaries.Get(key); ok {
		return summary, nil
	}

	budgets, err := s.budgets.Budgets(ctx, month, year)
	if err != nil {
		return MonthSummary{}, fmt.Errorf("budget summary for %d/%d: %w", month, year, err)
	}

	txs, err := s.transactions.Transactions(ctx)
	if err != nil {
		return MonthSummary{}, fmt.Errorf("budget summary for %d/%d: %w", month, year, err)
	}

	// Per-category expense totals for the month, in the display currency.
	spent := make(map[string]float64)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if int(tx.Date.Month())-1 != month || tx.Date.Year() != year {
			continue
		}
		amount, err := s.converter.Convert(ctx, tx.Amount, tx.Currency, display, rateType)
		if err != nil {
			return MonthSummary{}, fmt.Errorf("convert transaction %s: %w", tx.ID, err)
		}
		spent[tx.Category] += amount
	}

	summary := MonthSummary{Month: month, Year: year, Currency: display}
	for _, b := range budgets {
		budgeted, err := s.converter.Convert(ctx, b.Amount, b.Currency, display, rateType)
		if err != nil {
			return MonthSummary{}, fmt.Errorf("convert budget %s: %w", b.ID, err)
		}
		status := BudgetStatus{
			CategoryID: b.CategoryID,
			Budgeted:   budgeted,
			Spent:      spent[b.CategoryID],
			Remaining:  budgeted - spent[b.CategoryID],
		}
		summary.Categories = append(summary.Categories, status)
		summary.TotalBudgeted += status.Budgeted
		summary.TotalSpent += status.Spent
	}

	s.summaries.Set(key, summary)

	slog.DebugContext(ctx, "Budget summary computed",
		"month", month,
		"year", year,
		"currency", display,
		"categories", len(summary.Categories))
	return summary, nil
}
