package services

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
)

// LedgerPosterSvc records balanced transactions
type LedgerPosterSvc interface {
	// Post validates entries, then atomically stores the transaction and moves every touched balance.
	// Post is not idempotent: posting the same reference twice records two transactions.
	Post(ctx context.Context, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error)

	// Reverse posts a new transaction mirroring transactionID's entries.
	Reverse(ctx context.Context, transactionID int64, narration string) (*domain.Transaction, error)
}

// LedgerReaderSvc defines read operations on posted transactions
type LedgerReaderSvc interface {
	GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	ListTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error)
	ListEntriesByAccount(ctx context.Context, accountCode string, params dto.ListAccountEntriesParams) (*dto.ListAccountEntriesResponse, error)
}

// LedgerAuditorSvc checks the books.
type LedgerAuditorSvc interface {
	// VerifyBalances replays every entry and reports accounts whose stored balance drifted.
	VerifyBalances(ctx context.Context) (*domain.VerificationReport, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerPosterSvc
	LedgerReaderSvc
	LedgerAuditorSvc
}
