package repositories

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionWriter persists postings.
type TransactionWriter interface {
	// SaveTransaction locks every account in balanceChanges, inserts the transaction and its
	// entries, and applies each balance delta, all in one database transaction.
	// Returns the stored transaction with IDs and timestamps populated.
	SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error)
}

// TransactionReader defines read operations for posted transactions
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction together with its entries in line order.
	FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error)

	// FindTransactionsByReference retrieves every transaction posted for one business event, oldest first.
	FindTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error)

	// ListEntriesByAccount retrieves entries posted against an account, oldest first,
	// starting after the given entry ID.
	ListEntriesByAccount(ctx context.Context, accountCode string, limit int, afterEntryID int64) ([]domain.AccountEntry, error)
}

// LedgerAuditor recomputes balances from the entry log.
type LedgerAuditor interface {
	// ReplayBalances compares each account's stored balance with the signed sum of its entries.
	ReplayBalances(ctx context.Context) (*domain.VerificationReport, error)
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	TransactionWriter
	TransactionReader
	LedgerAuditor
}
