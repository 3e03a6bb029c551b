// Package backend assembles the repository set the services run on, picking
// between the embedded SQLite store and the server-backed REST client.
package backend

import (
	"context"

	"fintrack/internal/config"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Repositories is the storage surface handed to the service layer. Store is
// non-nil only for the local backend; it carries the sync extensions
// (dirty tracking, cursor, seed flag) that a server-backed host has no use
// for.
type Repositories struct {
	Transactions services.TransactionRepository
	Categories   services.CategoryRepository
	Budgets      services.BudgetRepository
	Store        *storage.Store
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the repositories and optional cleanup function
type BackendResult struct {
	Repositories Repositories
	Cleanup      CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, cfg *config.Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	LocalBackend  BackendType = "local"
	RemoteBackend BackendType = "remote"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case LocalBackend, RemoteBackend:
		return true
	default:
		return false
	}
}
