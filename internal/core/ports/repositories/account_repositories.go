package repositories

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// AccountReader defines read operations for the chart of accounts
type AccountReader interface {
	// FindAccountByCode retrieves a single account by its unique code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByCodes retrieves multiple accounts keyed by code. Missing codes are simply absent from the map.
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)

	// ListAccounts retrieves accounts ordered by code, optionally restricted to one type.
	ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error)
}

// AccountWriter defines write operations for the chart of accounts.
// Balances are not writable here; they move only through TransactionWriter.
type AccountWriter interface {
	// SaveAccount inserts a new account with a zero balance and returns the stored row.
	// A concurrent insert of the same code yields apperrors.ErrAccountCreationConflict.
	SaveAccount(ctx context.Context, account domain.Account) (*domain.Account, error)

	// DeleteAccount removes an account that has a zero balance and no entries.
	DeleteAccount(ctx context.Context, code string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
