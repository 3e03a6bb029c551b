package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

// Update strategies for transactions belonging to an installment group.
const (
	UpdateSingle          UpdateStrategy = "single"
	UpdateAllInstallments UpdateStrategy = "all-installments"
)

type UpdateStrategy string

// AddTransactionParams describes one add request. Installments > 1 expands
// the request into a monthly series.
type AddTransactionParams struct {
	UserID       string
	Type         core.TransactionType
	Description  string
	Amount       float64
	Category     string
	Date         time.Time
	Currency     core.Currency
	Installments int
}

// TransactionService owns the transaction lifecycle: validation, installment
// expansion, group-aware updates and deletes.
type TransactionService struct {
	repo TransactionRepository
}

func NewTransactionService(repo TransactionRepository) *TransactionService {
	return &TransactionService{repo: repo}
}

// Add creates the transaction(s) for one request and returns them. With
// installments N > 1 the total amount is split evenly into N transactions
// sharing a fresh group id, dated one calendar month apart. The split is a
// plain division: fractional cents are kept and the parts may differ from
// the total by floating-point epsilon.
func (s *TransactionService) Add(ctx context.Context, p AddTransactionParams) ([]core.Transaction, error) {
	if p.Installments <= 1 {
		tx, err := core.NewTransaction(p.UserID, p.Type, p.Description, p.Amount, p.Category, p.Date, p.Currency)
		if err != nil {
			return nil, fmt.Errorf("add transaction: %w", err)
		}
		if err := s.repo.AddTransaction(ctx, tx); err != nil {
			return nil, err
		}
		return []core.Transaction{tx}, nil
	}

	groupID := uuid.NewString()
	perInstallment := p.Amount / float64(p.Installments)

	txs := make([]core.Transaction, 0, p.Installments)
	for i := 0; i < p.Installments; i++ {
		description := fmt.Sprintf("%s (%d/%d)", p.Description, i+1, p.Installments)
		// Calendar month increment: December rolls over into January.
		date := p.Date.AddDate(0, i, 0)

		tx, err := core.NewTransaction(p.UserID, p.Type, description, perInstallment, p.Category, date, p.Currency)
		if err != nil {
			return nil, fmt.Errorf("expand installment %d/%d: %w", i+1, p.Installments, err)
		}
		tx.Installments = p.Installments
		tx.InstallmentGroupID = groupID
		tx.InstallmentNumber = i + 1
		txs = append(txs, tx)
	}

	// One batch write: the series commits fully or not at all.
	if err := s.repo.AddTransactions(ctx, txs); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Installment series created",
		"group_id", groupID,
		"installments", p.Installments,
		"amount_per_installment", perInstallment)
	return txs, nil
}

// List returns all active transactions.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.Transactions(ctx)
}

// Get returns one active transaction by id.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.repo.Transaction(ctx, id)
}

// Update edits a transaction. With UpdateAllInstallments and a grouped
// transaction, category, description, amount, and currency propagate to
// every member of the group; each member keeps its own date so the monthly
// spread survives the edit.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction, strategy UpdateStrategy) error {
	if strategy != UpdateAllInstallments || tx.InstallmentGroupID == "" {
		return s.repo.UpdateTransaction(ctx, tx)
	}

	group, err := s.repo.InstallmentGroup(ctx, tx.InstallmentGroupID)
	if err != nil {
		return fmt.Errorf("update installment group %s: %w", tx.InstallmentGroupID, err)
	}

	for _, member := range group {
		member.Category = tx.Category
		member.Description = tx.Description
		member.Amount = tx.Amount
		member.Currency = tx.Currency
		if err := s.repo.UpdateTransaction(ctx, member); err != nil {
			return fmt.Errorf("update installment %s: %w", member.ID, err)
		}
	}

	slog.InfoContext(ctx, "Installment group updated",
		"group_id", tx.InstallmentGroupID,
		"members", len(group))
	return nil
}

// Delete soft-deletes a single transaction. For an installment member this
// removes only that occurrence; the rest of the series stays.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteTransaction(ctx, id)
}

// DeleteInstallmentGroup soft-deletes the whole series. Exposed separately
// from Delete because single-vs-series removal is a user-facing choice.
func (s *TransactionService) DeleteInstallmentGroup(ctx context.Context, groupID string) error {
	return s.repo.DeleteInstallmentGroup(ctx, groupID)
}
