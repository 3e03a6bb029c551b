package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"fintrack/internal/core"
)

// TransactionRepository serves transactions from the REST API.
type TransactionRepository struct {
	client *Client
}

func NewTransactionRepository(client *Client) *TransactionRepository {
	return &TransactionRepository{client: client}
}

func (r *TransactionRepository) Transactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := r.client.do(ctx, http.MethodGet, "/api/transactions", nil, &txs); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r *TransactionRepository) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	var tx core.Transaction
	if err := r.client.do(ctx, http.MethodGet, "/api/transactions/"+pathEscape(id), nil, &tx); err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

func (r *TransactionRepository) AddTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodPost, "/api/transactions", tx, nil); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) AddTransactions(ctx context.Context, txs []core.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}
	if err := r.client.do(ctx, http.MethodPost, "/api/transactions/batch", txs, nil); err != nil {
		return fmt.Errorf("create transactions: %w", err)
	}
	return nil
}

func (r *TransactionRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := r.client.do(ctx, http.MethodPut, "/api/transactions/"+pathEscape(tx.ID), tx, nil); err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	return nil
}

// DeleteTransaction removes the record server-side. The server owns the
// data; there is no local tombstone to keep.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	if err := r.client.do(ctx, http.MethodDelete, "/api/transactions/"+pathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (r *TransactionRepository) DeleteInstallmentGroup(ctx context.Context, groupID string) error {
	if err := r.client.do(ctx, http.MethodDelete, "/api/transactions/group/"+pathEscape(groupID), nil, nil); err != nil {
		return fmt.Errorf("delete installment group %s: %w", groupID, err)
	}
	return nil
}

func (r *TransactionRepository) InstallmentGroup(ctx context.Context, groupID string) ([]core.Transaction, error) {
	var txs []core.Transaction
	path := "/api/transactions?" + url.Values{"installmentGroupId": {groupID}}.Encode()
	if err := r.client.do(ctx, http.MethodGet, path, nil, &txs); err != nil {
		return nil, fmt.Errorf("list installment group %s: %w", groupID, err)
	}
	return txs, nil
}
