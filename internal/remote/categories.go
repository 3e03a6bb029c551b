package remote

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// CategoryRepository serves categories from the REST API.
type CategoryRepository struct {
	client *Client
}

func NewCategoryRepository(client *Client) *CategoryRepository {
	return &CategoryRepository{client: client}
}

func (r *CategoryRepository) Categories(ctx context.Context) ([]core.Category, error) {
	var cats []core.Category
	if err := r.client.do(ctx, http.MethodGet, "/api/categories", nil, &cats); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *CategoryRepository) Category(ctx context.Context, id string) (core.Category, error) {
	var c core.Category
	if err := r.client.do(ctx, http.MethodGet, "/api/categories/"+pathEscape(id), nil, &c); err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *CategoryRepository) AddCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodPost, "/api/categories", c, nil); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodPut, "/api/categories/"+pathEscape(c.ID), c, nil); err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if err := r.client.do(ctx, http.MethodDelete, "/api/categories/"+pathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}
