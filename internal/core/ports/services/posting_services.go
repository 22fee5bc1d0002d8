package services

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
)

// LedgerPort is the whole ledger surface a business module may use.
// There is no way to set a balance through it.
type LedgerPort interface {
	EnsureAccount(ctx context.Context, code, name string, accountType domain.AccountType) (*domain.Account, error)
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)
	Post(ctx context.Context, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error)
}

// PostingSvcFacade is the contract business modules post their events through.
type PostingSvcFacade interface {
	LedgerPort

	// EnsureCategoryAccount ensures "<PREFIX>.<NORMALIZED_CATEGORY>" exists and returns its code.
	EnsureCategoryAccount(ctx context.Context, prefix, categoryName string) (string, error)

	// EnsureSupplierAccount ensures the liability account "LIABILITY.SUPPLIER.<id>" exists.
	EnsureSupplierAccount(ctx context.Context, supplierID, supplierName string) (*domain.Account, error)

	// PostTwoSided posts exactly one debit entry and one credit entry of the same amount.
	PostTwoSided(ctx context.Context, p dto.TwoSidedPosting) (*domain.Transaction, error)

	RecordExpense(ctx context.Context, ev dto.ExpenseEvent) (*domain.Transaction, error)
	RecordSupplierPayment(ctx context.Context, ev dto.SupplierPaymentEvent) (*domain.Transaction, error)
	RecordPurchase(ctx context.Context, ev dto.PurchaseEvent) (*domain.Transaction, error)
	RecordSale(ctx context.Context, ev dto.SaleEvent) (*domain.Transaction, error)
}
