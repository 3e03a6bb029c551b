package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

const categoryColumns = `id, name, icon, type, color, is_default, updated_at, deleted_at`

// Categories returns all active categories, alphabetically.
func (s *Store) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

// Category returns one active category by id, or ErrNotFound.
func (s *Store) Category(ctx context.Context, id string) (core.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND deleted_at IS NULL`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

// AddCategory persists a new category as dirty.
func (s *Store) AddCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertCategorySQL, insertCategoryArgs(c, true)...); err != nil {
		return fmt.Errorf("add category %s: %w", c.ID, err)
	}

	slog.InfoContext(ctx, "Category saved", "id", c.ID, "name", c.Name, "type", c.Type)
	return nil
}

// UpdateCategory upserts by id, bumps updated_at, and marks dirty.
func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	c.UpdatedAt = time.Now().UTC()

	if _, err := s.db.ExecContext(ctx, upsertCategorySQL(true), insertCategoryArgs(c, true)...); err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCategory soft-deletes: the row stays as a tombstone for sync.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET deleted_at = ?, updated_at = ?, dirty = 1 WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Category soft-deleted", "id", id)
	return nil
}

// DirtyCategories returns every unsynced record, tombstones included.
func (s *Store) DirtyCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE dirty = 1`)
	if err != nil {
		return nil, fmt.Errorf("list dirty categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

// MarkCategoriesSynced clears the dirty flag for exactly the given ids.
func (s *Store) MarkCategoriesSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := inQuery(`UPDATE categories SET dirty = 0 WHERE id IN `, ids)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark categories synced: %w", err)
	}

	slog.InfoContext(ctx, "Categories marked as synced", "count", len(ids))
	return nil
}

// UpsertCategories applies server-pushed records with the same
// last-write-wins rule as UpsertTransactions.
func (s *Store) UpsertCategories(ctx context.Context, incoming []core.Category) error {
	if len(incoming) == 0 {
		return nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer dbTx.Rollback()

	applied := 0
	for _, c := range incoming {
		var localUpdatedAt time.Time
		err := dbTx.QueryRowContext(ctx,
			`SELECT updated_at FROM categories WHERE id = ?`, c.ID).Scan(&localUpdatedAt)
		switch {
		case err == nil:
			if !localUpdatedAt.Before(c.UpdatedAt) {
				continue
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("read local category %s: %w", c.ID, err)
		}

		if _, err := dbTx.ExecContext(ctx, upsertCategorySQL(false), insertCategoryArgs(c, false)...); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.ID, err)
		}
		applied++
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Applied server categories",
		"received", len(incoming),
		"applied", applied,
		"skipped", len(incoming)-applied)
	return nil
}

const insertCategorySQL = `INSERT INTO categories
	(id, name, icon, type, color, is_default, updated_at, deleted_at, dirty)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func upsertCategorySQL(dirty bool) string {
	flag := "0"
	if dirty {
		flag = "1"
	}
	return insertCategorySQL + `
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		icon = excluded.icon,
		type = excluded.type,
		color = excluded.color,
		is_default = excluded.is_default,
		updated_at = excluded.updated_at,
		deleted_at = excluded.deleted_at,
		dirty = ` + flag
}

func insertCategoryArgs(c core.Category, dirty bool) []any {
	var deletedAt sql.NullTime
	if c.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *c.DeletedAt, Valid: true}
	}
	return []any{c.ID, c.Name, c.Icon, string(c.Type), c.Color, c.IsDefault, c.UpdatedAt, deletedAt, dirty}
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c         core.Category
		deletedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Type, &c.Color, &c.IsDefault, &c.UpdatedAt, &deletedAt)
	if err != nil {
		return core.Category{}, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	return c, nil
}

func scanCategories(rows *sql.Rows) ([]core.Category, error) {
	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}
