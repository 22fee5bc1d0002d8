package services

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// AccountReaderSvc defines read operations on the chart of accounts
type AccountReaderSvc interface {
	// FindAccountByCode is a pure lookup; it returns apperrors.ErrNotFound when the code is absent.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// ListAccounts returns accounts ordered by code, optionally restricted to one type.
	ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations on the chart of accounts
type AccountWriterSvc interface {
	// EnsureAccount returns the account with code, creating it with name and type if absent.
	// The first creation wins: later calls get the existing account back unchanged.
	EnsureAccount(ctx context.Context, code, name string, accountType domain.AccountType) (*domain.Account, error)

	// EnsureAccountExists is EnsureAccount for callers that only need the code to exist.
	// It can skip storage entirely when the account code cache already knows the code.
	EnsureAccountExists(ctx context.Context, code, name string, accountType domain.AccountType) error

	// DeleteAccount removes an account with a zero balance and no entries.
	DeleteAccount(ctx context.Context, code string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
