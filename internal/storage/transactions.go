package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a record does not exist or is tombstoned.
var ErrNotFound = core.ErrNotFound

const transactionColumns = `id, user_id, type, description, amount, category, currency,
	date, created_at, updated_at, deleted_at, installments, installment_group_id, installment_number`

// Transactions returns all active (non-tombstoned) transactions, newest first.
func (s *Store) Transactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE deleted_at IS NULL ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// Transaction returns one active transaction by id, or ErrNotFound.
func (s *Store) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND deleted_at IS NULL`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

// AddTransaction persists a new transaction as dirty.
func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertTransactionSQL, insertTransactionArgs(tx, true)...); err != nil {
		return fmt.Errorf("add transaction %s: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount,
		"currency", tx.Currency)
	return nil
}

// AddTransactions persists a batch inside one SQL transaction, so an
// installment series either fully commits or is rolled back.
func (s *Store) AddTransactions(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("add transactions: %w", err)
		}
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer dbTx.Rollback()

	for _, tx := range txs {
		if _, err := dbTx.ExecContext(ctx, insertTransactionSQL, insertTransactionArgs(tx, true)...); err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch saved", "count", len(txs))
	return nil
}

// UpdateTransaction upserts by id, bumps updated_at, and marks dirty.
func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	tx.UpdatedAt = time.Now().UTC()

	if _, err := s.db.ExecContext(ctx, upsertTransactionSQL(true), insertTransactionArgs(tx, true)...); err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	return nil
}

// DeleteTransaction soft-deletes: the row stays as a tombstone for sync.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = ?, updated_at = ?, dirty = 1 WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction soft-deleted", "id", id)
	return nil
}

// DeleteInstallmentGroup tombstones every transaction in the group.
func (s *Store) DeleteInstallmentGroup(ctx context.Context, groupID string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = ?, updated_at = ?, dirty = 1
		 WHERE installment_group_id = ? AND deleted_at IS NULL`,
		now, now, groupID)
	if err != nil {
		return fmt.Errorf("delete installment group %s: %w", groupID, err)
	}
	n, _ := res.RowsAffected()

	slog.InfoContext(ctx, "Installment group soft-deleted", "group_id", groupID, "count", n)
	return nil
}

// InstallmentGroup returns all active members of an installment group.
func (s *Store) InstallmentGroup(ctx context.Context, groupID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE installment_group_id = ? AND deleted_at IS NULL ORDER BY installment_number`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("list installment group %s: %w", groupID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// DirtyTransactions returns every unsynced record, tombstones included.
func (s *Store) DirtyTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE dirty = 1`)
	if err != nil {
		return nil, fmt.Errorf("list dirty transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// MarkTransactionsSynced clears the dirty flag for exactly the given ids.
// Call only after the server has durably acknowledged those records.
func (s *Store) MarkTransactionsSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := inQuery(`UPDATE transactions SET dirty = 0 WHERE id IN `, ids)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark transactions synced: %w", err)
	}

	slog.InfoContext(ctx, "Transactions marked as synced", "count", len(ids))
	return nil
}

// UpsertTransactions applies server-pushed records with last-write-wins:
// an incoming record is skipped when the local copy has an updated_at that
// is newer or equal, which protects unpushed local edits and avoids
// rewriting echoes of what this device just sent. Applied records land
// clean (dirty = 0) since they came from the server.
func (s *Store) UpsertTransactions(ctx context.Context, incoming []core.Transaction) error {
	if len(incoming) == 0 {
		return nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer dbTx.Rollback()

	applied := 0
	for _, tx := range incoming {
		var localUpdatedAt time.Time
		err := dbTx.QueryRowContext(ctx,
			`SELECT updated_at FROM transactions WHERE id = ?`, tx.ID).Scan(&localUpdatedAt)
		switch {
		case err == nil:
			if !localUpdatedAt.Before(tx.UpdatedAt) {
				continue
			}
		case errors.Is(err, sql.ErrNoRows):
			// No local copy, write through.
		default:
			return fmt.Errorf("read local transaction %s: %w", tx.ID, err)
		}

		if _, err := dbTx.ExecContext(ctx, upsertTransactionSQL(false), insertTransactionArgs(tx, false)...); err != nil {
			return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
		}
		applied++
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Applied server transactions",
		"received", len(incoming),
		"applied", applied,
		"skipped", len(incoming)-applied)
	return nil
}

const insertTransactionSQL = `INSERT INTO transactions
	(id, user_id, type, description, amount, category, currency, date,
	 created_at, updated_at, deleted_at, installments, installment_group_id, installment_number, dirty)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func upsertTransactionSQL(dirty bool) string {
	flag := "0"
	if dirty {
		flag = "1"
	}
	return insertTransactionSQL + `
	ON CONFLICT (id) DO UPDATE SET
		user_id = excluded.user_id,
		type = excluded.type,
		description = excluded.description,
		amount = excluded.amount,
		category = excluded.category,
		currency = excluded.currency,
		date = excluded.date,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		deleted_at = excluded.deleted_at,
		installments = excluded.installments,
		installment_group_id = excluded.installment_group_id,
		installment_number = excluded.installment_number,
		dirty = ` + flag
}

func insertTransactionArgs(tx core.Transaction, dirty bool) []any {
	var deletedAt sql.NullTime
	if tx.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *tx.DeletedAt, Valid: true}
	}
	return []any{
		tx.ID, tx.UserID, string(tx.Type), tx.Description, tx.Amount, tx.Category,
		string(tx.Currency), tx.Date, tx.CreatedAt, tx.UpdatedAt, deletedAt,
		tx.Installments, tx.InstallmentGroupID, tx.InstallmentNumber, dirty,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		deletedAt sql.NullTime
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Description, &tx.Amount,
		&tx.Category, &tx.Currency, &tx.Date, &tx.CreatedAt, &tx.UpdatedAt,
		&deletedAt, &tx.Installments, &tx.InstallmentGroupID, &tx.InstallmentNumber)
	if err != nil {
		return core.Transaction{}, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		tx.DeletedAt = &t
	}
	return tx, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// inQuery expands an IN clause with one placeholder per value.
func inQuery(prefix string, ids []string) (string, []any) {
	placeholders := strings.Repeat("?, ", len(ids))
	placeholders = "(" + placeholders[:len(placeholders)-2] + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return prefix + placeholders, args
}
