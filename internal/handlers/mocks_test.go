package handlers_test

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	args := m.Called(ctx, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) EnsureAccount(ctx context.Context, code, name string, accountType domain.AccountType) (*domain.Account, error) {
	args := m.Called(ctx, code, name, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) EnsureAccountExists(ctx context.Context, code, name string, accountType domain.AccountType) error {
	args := m.Called(ctx, code, name, accountType)
	return args.Error(0)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Post(ctx context.Context, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error) {
	args := m.Called(ctx, referenceType, referenceID, entries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) Reverse(ctx context.Context, transactionID int64, narration string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, narration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListEntriesByAccount(ctx context.Context, accountCode string, params dto.ListAccountEntriesParams) (*dto.ListAccountEntriesResponse, error) {
	args := m.Called(ctx, accountCode, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAccountEntriesResponse), args.Error(1)
}

func (m *MockLedgerService) VerifyBalances(ctx context.Context) (*domain.VerificationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationReport), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock PostingService ---
type MockPostingService struct {
	mock.Mock
}

func (m *MockPostingService) txnResult(args mock.Arguments) (*domain.Transaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockPostingService) EnsureAccount(ctx context.Context, code, name string, accountType domain.AccountType) (*domain.Account, error) {
	args := m.Called(ctx, code, name, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockPostingService) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockPostingService) Post(ctx context.Context, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error) {
	return m.txnResult(m.Called(ctx, referenceType, referenceID, entries))
}

func (m *MockPostingService) EnsureCategoryAccount(ctx context.Context, prefix, categoryName string) (string, error) {
	args := m.Called(ctx, prefix, categoryName)
	return args.String(0), args.Error(1)
}

func (m *MockPostingService) EnsureSupplierAccount(ctx context.Context, supplierID, supplierName string) (*domain.Account, error) {
	args := m.Called(ctx, supplierID, supplierName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockPostingService) PostTwoSided(ctx context.Context, p dto.TwoSidedPosting) (*domain.Transaction, error) {
	return m.txnResult(m.Called(ctx, p))
}

func (m *MockPostingService) RecordExpense(ctx context.Context, ev dto.ExpenseEvent) (*domain.Transaction, error) {
	return m.txnResult(m.Called(ctx, ev))
}

func (m *MockPostingService) RecordSupplierPayment(ctx context.Context, ev dto.SupplierPaymentEvent) (*domain.Transaction, error) {
	return m.txnResult(m.Called(ctx, ev))
}

func (m *MockPostingService) RecordPurchase(ctx context.Context, ev dto.PurchaseEvent) (*domain.Transaction, error) {
	return m.txnResult(m.Called(ctx, ev))
}

func (m *MockPostingService) RecordSale(ctx context.Context, ev dto.SaleEvent) (*domain.Transaction, error) {
	return m.txnResult(m.Called(ctx, ev))
}

var _ portssvc.PostingSvcFacade = (*MockPostingService)(nil)
