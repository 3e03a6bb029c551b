package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	ARS Currency = "ars"
	USD Currency = "usd"
)

type (
	TransactionType string

	Currency string

	// Transaction is a single income or expense occurrence. Amounts are
	// stored per occurrence: an installment purchase becomes N transactions
	// sharing an InstallmentGroupID, each carrying its own slice of the total.
	Transaction struct {
		ID                 string          `json:"id"`
		UserID             string          `json:"userId"`
		Type               TransactionType `json:"type"`
		Description        string          `json:"description"`
		Amount             float64         `json:"amount"`
		Category           string          `json:"category"`
		Currency           Currency        `json:"currency"`
		Date               time.Time       `json:"date"`
		CreatedAt          time.Time       `json:"createdAt"`
		UpdatedAt          time.Time       `json:"updatedAt"`
		DeletedAt          *time.Time      `json:"deletedAt,omitempty"`
		Installments       int             `json:"installments,omitempty"`
		InstallmentGroupID string          `json:"installmentGroupId,omitempty"`
		InstallmentNumber  int             `json:"installmentNumber,omitempty"`
	}

	Category struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Icon      string          `json:"icon"`
		Type      TransactionType `json:"type"`
		Color     string          `json:"color,omitempty"`
		IsDefault bool            `json:"isDefault,omitempty"`
		UpdatedAt time.Time       `json:"updatedAt"`
		DeletedAt *time.Time      `json:"deletedAt,omitempty"`
	}

	// Budget caps spending for one category in one month. Month is 0-based
	// (January is 0) to match the wire format used by the clients.
	Budget struct {
		ID         string    `json:"id"`
		CategoryID string    `json:"categoryId"`
		Month      int       `json:"month"`
		Year       int       `json:"year"`
		Amount     float64   `json:"amount"`
		Currency   Currency  `json:"currency"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyIcon           = errors.New("empty icon")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidMonth        = errors.New("month must be between 0 and 11")
	ErrInvalidYear         = errors.New("year must be 2000 or later")
	ErrNegativeBudget      = errors.New("budget amount cannot be negative")
	ErrInvalidInstallments = errors.New("invalid installment fields")

	// ErrNotFound is shared by every repository implementation so callers
	// can test for it without knowing which backend they talk to.
	ErrNotFound = errors.New("record not found")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c Currency) Valid() bool {
	return c == ARS || c == USD
}

// NewTransaction builds a validated transaction with a fresh id and
// creation/update timestamps set to now.
func NewTransaction(userID string, txType TransactionType, description string, amount float64, category string, date time.Time, currency Currency) (Transaction, error) {
	now := time.Now().UTC()
	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        txType,
		Description: description,
		Amount:      amount,
		Category:    category,
		Currency:    currency,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if t.InstallmentGroupID != "" {
		if t.Installments < 1 || t.InstallmentNumber < 1 || t.InstallmentNumber > t.Installments {
			return ErrInvalidInstallments
		}
	}
	return nil
}

// Deleted reports whether the transaction is a tombstone.
func (t Transaction) Deleted() bool {
	return t.DeletedAt != nil
}

// NewCategory builds a validated category with a fresh id.
func NewCategory(name, icon string, txType TransactionType, color string, isDefault bool) (Category, error) {
	c := Category{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      icon,
		Type:      txType,
		Color:     color,
		IsDefault: isDefault,
		UpdatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Icon) == "" {
		return ErrEmptyIcon
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (c Category) Deleted() bool {
	return c.DeletedAt != nil
}

// NewBudget builds a validated budget for one category-month.
func NewBudget(categoryID string, month, year int, amount float64, currency Currency) (Budget, error) {
	b := Budget{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Month:      month,
		Year:       year,
		Amount:     amount,
		Currency:   currency,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if b.Month < 0 || b.Month > 11 {
		return ErrInvalidMonth
	}
	if b.Year < 2000 {
		return ErrInvalidYear
	}
	if b.Amount < 0 {
		return ErrNegativeBudget
	}
	if !b.Currency.Valid() {
		return ErrInvalidCurrency
	}
	return nil
}
