package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"fintrack/internal/core"
)

// BudgetRepository serves budgets from the REST API.
type BudgetRepository struct {
	client *Client
}

func NewBudgetRepository(client *Client) *BudgetRepository {
	return &BudgetRepository{client: client}
}

func (r *BudgetRepository) Budgets(ctx context.Context, month, year int) ([]core.Budget, error) {
	var budgets []core.Budget
	query := url.Values{
		"month": {strconv.Itoa(month)},
		"year":  {strconv.Itoa(year)},
	}
	if err := r.client.do(ctx, http.MethodGet, "/api/budgets?"+query.Encode(), nil, &budgets); err != nil {
		return nil, fmt.Errorf("list budgets for %d/%d: %w", month, year, err)
	}
	return budgets, nil
}

func (r *BudgetRepository) AllBudgets(ctx context.Context) ([]core.Budget, error) {
	var budgets []core.Budget
	if err := r.client.do(ctx, http.MethodGet, "/api/budgets", nil, &budgets); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

func (r *BudgetRepository) SaveBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodPut, "/api/budgets", b, nil); err != nil {
		return fmt.Errorf("save budget %s: %w", b.ID, err)
	}
	return nil
}
