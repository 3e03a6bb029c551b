package services

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestSeedDefaultsPopulatesEmptyStore(t *testing.T) {
	store := newTestStore(t)
	svc := NewCategoryService(store, store)
	ctx := context.Background()

	svc.SeedDefaults(ctx)

	cats, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cats) != len(defaultCategories) {
		t.Fatalf("seeded %d categories, want %d", len(cats), len(defaultCategories))
	}
	byName := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		if !c.IsDefault {
			t.Errorf("seeded category %q not flagged as default", c.Name)
		}
		byName[c.Name] = c
	}
	if c, ok := byName["Salary"]; !ok || c.Type != core.Income || c.Icon != "cash-outline" {
		t.Errorf("Salary = %+v, want income with cash-outline icon", c)
	}
	if c, ok := byName["Food"]; !ok || c.Type != core.Expense {
		t.Errorf("Food = %+v, want an expense category", c)
	}

	seeded, err := store.SeededCategories(ctx)
	if err != nil {
		t.Fatalf("SeededCategories: %v", err)
	}
	if !seeded {
		t.Error("seeding flag not persisted")
	}
}

func TestSeedDefaultsRunsOnce(t *testing.T) {
	store := newTestStore(t)
	svc := NewCategoryService(store, store)
	ctx := context.Background()

	svc.SeedDefaults(ctx)

	// Rename a default, then reseed: the flag blocks the second run, so the
	// rename is never clobbered and nothing is duplicated.
	cats, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	renamed := cats[0]
	renamed.Name = "Groceries"
	if err := svc.Update(ctx, renamed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	svc.SeedDefaults(ctx)

	after, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(after) != len(defaultCategories) {
		t.Errorf("reseed changed category count to %d, want %d", len(after), len(defaultCategories))
	}
}

func TestSeedDefaultsSkipsNameCollisions(t *testing.T) {
	store := newTestStore(t)
	svc := NewCategoryService(store, store)
	ctx := context.Background()

	// A pre-existing user category with a colliding name, detected
	// case-insensitively.
	existing, err := svc.Add(ctx, "food", "pizza-outline", core.Expense, "#FFFFFF")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	svc.SeedDefaults(ctx)

	cats, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cats) != len(defaultCategories) {
		t.Errorf("store has %d categories, want %d (collision skipped, rest seeded)", len(cats), len(defaultCategories))
	}
	got, err := svc.Get(ctx, existing.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Icon != "pizza-outline" || got.IsDefault {
		t.Errorf("user category overwritten by seeding: %+v", got)
	}
}

func TestCategoryCRUD(t *testing.T) {
	store := newTestStore(t)
	svc := NewCategoryService(store, store)
	ctx := context.Background()

	c, err := svc.Add(ctx, "Travel", "airplane-outline", core.Expense, "#0EA5E9")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	c.Color = "#38BDF8"
	if err := svc.Update(ctx, c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Color != "#38BDF8" {
		t.Errorf("color = %q after update, want %q", got.Color, "#38BDF8")
	}

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	cats, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("deleted category still listed: %+v", cats)
	}
}
