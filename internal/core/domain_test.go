package core

import (
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	now := time.Now().UTC()
	return Transaction{
		ID:          "4f2d8f0a-9f4e-4d6a-8a7b-0c1d2e3f4a5b",
		UserID:      "user-123",
		Type:        Expense,
		Description: "Groceries",
		Amount:      42.50,
		Category:    "cat-food",
		Currency:    ARS,
		Date:        now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = -10 }, ErrInvalidAmount},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"bad currency", func(tx *Transaction) { tx.Currency = "eur" }, ErrInvalidCurrency},
		{"group without number", func(tx *Transaction) {
			tx.InstallmentGroupID = "g1"
			tx.Installments = 3
		}, ErrInvalidInstallments},
		{"number beyond count", func(tx *Transaction) {
			tx.InstallmentGroupID = "g1"
			tx.Installments = 3
			tx.InstallmentNumber = 4
		}, ErrInvalidInstallments},
		{"valid installment member", func(tx *Transaction) {
			tx.InstallmentGroupID = "g1"
			tx.Installments = 3
			tx.InstallmentNumber = 3
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTransaction(t *testing.T) {
	tx, err := NewTransaction("user-123", Income, "Salary", 1500, "cat-salary", time.Now(), USD)
	if err != nil {
		t.Fatalf("NewTransaction returned error: %v", err)
	}
	if tx.ID == "" {
		t.Error("expected a generated id")
	}
	if tx.CreatedAt.IsZero() || tx.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if tx.Deleted() {
		t.Error("new transaction must not be a tombstone")
	}

	if _, err := NewTransaction("user-123", Income, "", 1500, "cat-salary", time.Now(), USD); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("expected ErrEmptyDescription, got %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	c, err := NewCategory("Food", "restaurant-outline", Expense, "#F59E0B", true)
	if err != nil {
		t.Fatalf("NewCategory returned error: %v", err)
	}
	if c.ID == "" || c.UpdatedAt.IsZero() {
		t.Error("expected id and updatedAt to be set")
	}

	if _, err := NewCategory("", "icon", Expense, "", false); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	if _, err := NewCategory("Food", "", Expense, "", false); !errors.Is(err, ErrEmptyIcon) {
		t.Errorf("expected ErrEmptyIcon, got %v", err)
	}
	if _, err := NewCategory("Food", "icon", "other", "", false); !errors.Is(err, ErrInvalidType) {
		t.Errorf("expected ErrInvalidType, got %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	tests := []struct {
		name    string
		month   int
		year    int
		amount  float64
		wantErr error
	}{
		{"valid", 0, 2024, 100, nil},
		{"december", 11, 2024, 100, nil},
		{"zero amount allowed", 5, 2024, 0, nil},
		{"month too high", 12, 2024, 100, ErrInvalidMonth},
		{"month negative", -1, 2024, 100, ErrInvalidMonth},
		{"year too low", 5, 1999, 100, ErrInvalidYear},
		{"negative amount", 5, 2024, -1, ErrNegativeBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBudget("cat-1", tt.month, tt.year, tt.amount, ARS)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewBudget() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
