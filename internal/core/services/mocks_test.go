package services_test

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Repository mocks ---

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	args := m.Called(ctx, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) DeleteAccount(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	args := m.Called(ctx, txn, balanceChanges)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByAccount(ctx context.Context, accountCode string, limit int, afterEntryID int64) ([]domain.AccountEntry, error) {
	args := m.Called(ctx, accountCode, limit, afterEntryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountEntry), args.Error(1)
}

func (m *MockLedgerRepository) ReplayBalances(ctx context.Context) (*domain.VerificationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationReport), args.Error(1)
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

type MockAccountCodeCache struct {
	mock.Mock
}

func (m *MockAccountCodeCache) IsKnown(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountCodeCache) MarkKnown(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockAccountCodeCache) Forget(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

var _ portsrepo.AccountCodeCache = (*MockAccountCodeCache)(nil)

// --- Service mocks used by the posting façade tests ---

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
	return m.Called(ctx, code, name, accountType).Error(0)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

type MockLedgerPoster struct {
	mock.Mock
}

func (m *MockLedgerPoster) Post(ctx context.Context, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error) {
	args := m.Called(ctx, referenceType, referenceID, entries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerPoster) Reverse(ctx context.Context, transactionID int64, narration string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, narration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

var _ portssvc.LedgerPosterSvc = (*MockLedgerPoster)(nil)
