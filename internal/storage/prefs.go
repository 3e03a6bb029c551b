package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Preference keys written by the core. Values are plain strings; timestamps
// use RFC 3339.
const (
	PrefDisplayCurrency  = "display_currency"
	PrefRateType         = "rate_type"
	PrefLastSync         = "last_sync_timestamp"
	PrefSeededCategories = "has_seeded_categories"
)

// Preference returns the stored value for key, with ok false when unset.
func (s *Store) Preference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read preference %s: %w", key, err)
	}
	return value, true, nil
}

// SetPreference stores a key/value pair, overwriting any previous value.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("write preference %s: %w", key, err)
	}
	return nil
}

// DeletePreference removes a key; deleting an absent key is a no-op.
func (s *Store) DeletePreference(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}

// LastSync returns the persisted sync cursor, nil when no sync has
// completed yet.
func (s *Store) LastSync(ctx context.Context) (*time.Time, error) {
	value, ok, err := s.Preference(ctx, PrefLastSync)
	if err != nil || !ok {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("parse sync cursor %q: %w", value, err)
	}
	return &ts, nil
}

// SetLastSync advances the sync cursor.
func (s *Store) SetLastSync(ctx context.Context, ts time.Time) error {
	return s.SetPreference(ctx, PrefLastSync, ts.UTC().Format(time.RFC3339Nano))
}

// ClearLastSync resets the cursor so the next round is treated as a first sync.
func (s *Store) ClearLastSync(ctx context.Context) error {
	return s.DeletePreference(ctx, PrefLastSync)
}

// SeededCategories reports whether default-category seeding already ran.
func (s *Store) SeededCategories(ctx context.Context) (bool, error) {
	value, ok, err := s.Preference(ctx, PrefSeededCategories)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// MarkCategoriesSeeded sets the one-time seeding guard.
func (s *Store) MarkCategoriesSeeded(ctx context.Context) error {
	return s.SetPreference(ctx, PrefSeededCategories, "true")
}
