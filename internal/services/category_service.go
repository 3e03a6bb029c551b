package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

// defaultCategories is seeded once on first launch.
var defaultCategories = []struct {
	name  string
	icon  string
	typ   core.TransactionType
	color string
}{
	{"Salary", "cash-outline", core.Income, "#10B981"},
	{"Freelance", "briefcase-outline", core.Income, "#059669"},
	{"Investments", "trending-up-outline", core.Income, "#34D399"},
	{"Transport", "car-outline", core.Expense, "#3B82F6"},
	{"Food", "restaurant-outline", core.Expense, "#F59E0B"},
	{"Shopping", "bag-handle-outline", core.Expense, "#A855F7"},
	{"Bills", "flash-outline", core.Expense, "#EF4444"},
	{"Rent", "home-outline", core.Expense, "#92400E"},
	{"Entertainment", "game-controller-outline", core.Expense, "#EC4899"},
	{"Health", "medical-outline", core.Expense, "#14B8A6"},
}

// CategoryService owns category CRUD and one-time default seeding.
type CategoryService struct {
	repo  CategoryRepository
	guard SeedGuard
}

func NewCategoryService(repo CategoryRepository, guard SeedGuard) *CategoryService {
	return &CategoryService{repo: repo, guard: guard}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.repo.Categories(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (core.Category, error) {
	return s.repo.Category(ctx, id)
}

// Add creates a user category.
func (s *CategoryService) Add(ctx context.Context, name, icon string, typ core.TransactionType, color string) (core.Category, error) {
	c, err := core.NewCategory(name, icon, typ, color, false)
	if err != nil {
		return core.Category{}, err
	}
	if err := s.repo.AddCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, c core.Category) error {
	return s.repo.UpdateCategory(ctx, c)
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

// SeedDefaults inserts the default categories once. The run is guarded by a
// persisted flag and every insert is skipped on a case-insensitive name
// collision, so re-running never duplicates. Failures are logged and
// swallowed: a broken seed must not block startup.
func (s *CategoryService) SeedDefaults(ctx context.Context) {
	seeded, err := s.guard.SeededCategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read seeding flag", "error", err)
		return
	}
	if seeded {
		return
	}

	existing, err := s.repo.Categories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list categories for seeding", "error", err)
		return
	}
	existingNames := make(map[string]bool, len(existing))
	for _, c := range existing {
		existingNames[strings.ToLower(c.Name)] = true
	}

	inserted := 0
	for _, d := range defaultCategories {
		if existingNames[strings.ToLower(d.name)] {
			continue
		}
		c, err := core.NewCategory(d.name, d.icon, d.typ, d.color, true)
		if err != nil {
			slog.ErrorContext(ctx, "Invalid default category", "name", d.name, "error", err)
			continue
		}
		if err := s.repo.AddCategory(ctx, c); err != nil {
			slog.ErrorContext(ctx, "Failed to seed category", "name", d.name, "error", err)
			continue
		}
		inserted++
	}

	if err := s.guard.MarkCategoriesSeeded(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to persist seeding flag", "error", err)
		return
	}

	slog.InfoContext(ctx, "Default categories seeded",
		"inserted", inserted,
		"skipped", len(defaultCategories)-inserted)
}
