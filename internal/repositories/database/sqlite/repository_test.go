package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/core/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LedgerStoreTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *sql.DB
	accounts portssvc.AccountSvcFacade
	ledger   portssvc.LedgerSvcFacade
}

func (s *LedgerStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	path := filepath.Join(s.T().TempDir(), "ledger.db")
	s.Require().NoError(database.MigrateSQLite(path))

	db, err := database.OpenSQLite(path)
	s.Require().NoError(err)
	s.db = db

	repos := NewRepositoryProvider(db)
	s.accounts = services.NewAccountService(repos.AccountRepo)
	s.ledger = services.NewLedgerService(repos.AccountRepo, repos.LedgerRepo)
}

func (s *LedgerStoreTestSuite) TearDownTest() {
	s.db.Close()
}

func TestLedgerStoreTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerStoreTestSuite))
}

func (s *LedgerStoreTestSuite) ensure(code, name string, accountType domain.AccountType) *domain.Account {
	acc, err := s.accounts.EnsureAccount(s.ctx, code, name, accountType)
	s.Require().NoError(err)
	return acc
}

func (s *LedgerStoreTestSuite) balance(code string) decimal.Decimal {
	acc, err := s.accounts.FindAccountByCode(s.ctx, code)
	s.Require().NoError(err)
	return acc.Balance
}

func (s *LedgerStoreTestSuite) count(table string) int {
	var n int
	s.Require().NoError(s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n))
	return n
}

func sale(amount int64) []domain.EntryInput {
	return []domain.EntryInput{
		{AccountCode: "ASSET.CASH", Debit: decimal.NewFromInt(amount), Narration: "cash in"},
		{AccountCode: "INCOME.SALES", Credit: decimal.NewFromInt(amount), Narration: "sale"},
	}
}

func (s *LedgerStoreTestSuite) TestEnsureAccount_ConcurrentCallsCreateOneRow() {
	const workers = 12
	var wg sync.WaitGroup
	ids := make([]int64, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acc, err := s.accounts.EnsureAccount(s.ctx, "EXPENSE.OFFICE_SUPPLIES", "Office Supplies", domain.Expense)
			errs[i] = err
			if acc != nil {
				ids[i] = acc.AccountID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(ids[0], ids[i])
	}
	s.Equal(1, s.count("accounts"))
}

func (s *LedgerStoreTestSuite) TestEnsureAccount_FirstCreationWins() {
	first := s.ensure("ASSET.CASH", "Cash", domain.Asset)
	second := s.ensure("ASSET.CASH", "Petty Cash", domain.Asset)

	s.Equal(first.AccountID, second.AccountID)
	s.Equal("Cash", second.Name)
	s.True(second.Balance.IsZero())
}

func (s *LedgerStoreTestSuite) TestPost_TwoConcurrentPostingsKeepBothUpdates() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.ledger.Post(s.ctx, "sale", "S-1", sale(500))
		}(i)
	}
	wg.Wait()

	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])
	s.True(s.balance("ASSET.CASH").Equal(decimal.NewFromInt(1000)), "got %s", s.balance("ASSET.CASH"))
	s.True(s.balance("INCOME.SALES").Equal(decimal.NewFromInt(1000)))
	s.Equal(2, s.count("transactions"))
}

func (s *LedgerStoreTestSuite) TestPost_ManyConcurrentPostingsConverge() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)
	s.ensure("EXPENSE.RENT", "Rent", domain.Expense)

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = s.ledger.Post(s.ctx, "sale", "S", sale(100))
				return
			}
			_, errs[i] = s.ledger.Post(s.ctx, "expense", "E", []domain.EntryInput{
				{AccountCode: "EXPENSE.RENT", Debit: decimal.RequireFromString("30.25")},
				{AccountCode: "ASSET.CASH", Credit: decimal.RequireFromString("30.25")},
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		s.Require().NoError(err)
	}

	// 10 sales of 100 less 10 rent payments of 30.25
	s.True(s.balance("ASSET.CASH").Equal(decimal.RequireFromString("697.5")), "got %s", s.balance("ASSET.CASH"))

	report, err := s.ledger.VerifyBalances(s.ctx)
	s.Require().NoError(err)
	s.True(report.Balanced())
	s.Equal(3, report.AccountsChecked)
}

func (s *LedgerStoreTestSuite) TestPost_RejectedPostingsLeaveNoTrace() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("EXPENSE.RENT", "Rent", domain.Expense)

	_, err := s.ledger.Post(s.ctx, "expense", "E-1", []domain.EntryInput{
		{AccountCode: "EXPENSE.RENT", Debit: decimal.NewFromInt(100)},
		{AccountCode: "ASSET.CASH", Credit: decimal.NewFromInt(99)},
	})
	s.ErrorIs(err, apperrors.ErrUnbalancedTransaction)

	_, err = s.ledger.Post(s.ctx, "expense", "E-1", []domain.EntryInput{
		{AccountCode: "EXPENSE.RENT", Debit: decimal.NewFromInt(100)},
		{AccountCode: "ASSET.MISSING", Credit: decimal.NewFromInt(100)},
	})
	s.ErrorIs(err, apperrors.ErrUnknownAccount)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err = s.ledger.Post(ctx, "expense", "E-1", []domain.EntryInput{
		{AccountCode: "EXPENSE.RENT", Debit: decimal.NewFromInt(100)},
		{AccountCode: "ASSET.CASH", Credit: decimal.NewFromInt(100)},
	})
	s.Error(err)

	s.Equal(0, s.count("transactions"))
	s.Equal(0, s.count("entries"))
	s.True(s.balance("ASSET.CASH").IsZero())
	s.True(s.balance("EXPENSE.RENT").IsZero())
}

func (s *LedgerStoreTestSuite) TestSaveTransaction_AccountDeletedBeforeLock() {
	repos := NewRepositoryProvider(s.db)
	s.ensure("ASSET.CASH", "Cash", domain.Asset)

	_, err := repos.LedgerRepo.SaveTransaction(s.ctx, domain.Transaction{
		ReferenceType: "sale",
		ReferenceID:   "S-1",
		Entries: []domain.Entry{
			{LineNo: 1, AccountCode: "ASSET.CASH", Debit: decimal.NewFromInt(5)},
			{LineNo: 2, AccountCode: "INCOME.GONE", Credit: decimal.NewFromInt(5)},
		},
	}, map[string]decimal.Decimal{"ASSET.CASH": decimal.NewFromInt(5), "INCOME.GONE": decimal.NewFromInt(5)})

	s.ErrorIs(err, apperrors.ErrUnknownAccount)
	s.Equal(0, s.count("transactions"))
	s.True(s.balance("ASSET.CASH").IsZero())
}

func (s *LedgerStoreTestSuite) TestGetTransaction_RoundTripsEntriesInOrder() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("EXPENSE.RENT", "Rent", domain.Expense)
	s.ensure("EXPENSE.UTILITIES", "Utilities", domain.Expense)

	posted, err := s.ledger.Post(s.ctx, "expense", "E-7", []domain.EntryInput{
		{AccountCode: "EXPENSE.RENT", Debit: decimal.RequireFromString("700.10"), Narration: "rent"},
		{AccountCode: "EXPENSE.UTILITIES", Debit: decimal.RequireFromString("0.01"), Narration: "water"},
		{AccountCode: "ASSET.CASH", Credit: decimal.RequireFromString("700.11"), Narration: "paid"},
	})
	s.Require().NoError(err)

	loaded, err := s.ledger.GetTransaction(s.ctx, posted.TransactionID)
	s.Require().NoError(err)
	s.Equal("expense", loaded.ReferenceType)
	s.Equal("E-7", loaded.ReferenceID)
	s.Require().Len(loaded.Entries, 3)
	for i, e := range loaded.Entries {
		s.Equal(i+1, e.LineNo)
		s.Equal(posted.Entries[i].EntryID, e.EntryID)
		s.Equal(posted.Entries[i].AccountCode, e.AccountCode)
		s.True(posted.Entries[i].Debit.Equal(e.Debit))
		s.True(posted.Entries[i].Credit.Equal(e.Credit))
	}
	s.True(loaded.TotalDebit().Equal(loaded.TotalCredit()))
	s.False(loaded.CreatedAt.IsZero())

	_, err = s.ledger.GetTransaction(s.ctx, posted.TransactionID+100)
	s.ErrorIs(err, apperrors.ErrNotFound)

	byRef, err := s.ledger.ListTransactionsByReference(s.ctx, "expense", "E-7")
	s.Require().NoError(err)
	s.Require().Len(byRef, 1)
	s.Equal(posted.TransactionID, byRef[0].TransactionID)
}

func (s *LedgerStoreTestSuite) TestReverse_RestoresBalances() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)

	original, err := s.ledger.Post(s.ctx, "sale", "S-9", sale(250))
	s.Require().NoError(err)

	reversal, err := s.ledger.Reverse(s.ctx, original.TransactionID, "refund")
	s.Require().NoError(err)
	s.Equal(domain.ReferenceTypeReversal, reversal.ReferenceType)
	s.True(s.balance("ASSET.CASH").IsZero())
	s.True(s.balance("INCOME.SALES").IsZero())

	_, err = s.ledger.Reverse(s.ctx, original.TransactionID, "again")
	s.ErrorIs(err, apperrors.ErrDuplicate)

	report, err := s.ledger.VerifyBalances(s.ctx)
	s.Require().NoError(err)
	s.True(report.Balanced())
	s.True(report.TotalDebit.Equal(decimal.NewFromInt(500)))
}

// staleReversalLookup never sees earlier reversals and holds every caller until all
// of them have looked, so each one proceeds to post.
type staleReversalLookup struct {
	portsrepo.LedgerRepositoryFacade
	arrived *sync.WaitGroup
}

func (l *staleReversalLookup) FindTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error) {
	l.arrived.Done()
	l.arrived.Wait()
	return nil, nil
}

func (s *LedgerStoreTestSuite) TestReverse_ConcurrentReversalsApplyOnce() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)
	original, err := s.ledger.Post(s.ctx, "sale", "S-10", sale(1000))
	s.Require().NoError(err)

	const workers = 4
	repos := NewRepositoryProvider(s.db)
	arrived := &sync.WaitGroup{}
	arrived.Add(workers)
	ledger := services.NewLedgerService(repos.AccountRepo, &staleReversalLookup{LedgerRepositoryFacade: repos.LedgerRepo, arrived: arrived})

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Reverse(s.ctx, original.TransactionID, "refund")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, apperrors.ErrDuplicate)
	}
	s.Equal(1, succeeded)
	s.Equal(2, s.count("transactions"))
	s.True(s.balance("ASSET.CASH").IsZero())
	s.True(s.balance("INCOME.SALES").IsZero())
}

func (s *LedgerStoreTestSuite) TestSaveTransaction_ReversalReferenceIsUnique() {
	repos := NewRepositoryProvider(s.db)
	cash := s.ensure("ASSET.CASH", "Cash", domain.Asset)
	sales := s.ensure("INCOME.SALES", "Sales", domain.Income)

	txn := func(referenceType string) domain.Transaction {
		return domain.Transaction{
			ReferenceType: referenceType,
			ReferenceID:   "77",
			Entries: []domain.Entry{
				{LineNo: 1, AccountID: cash.AccountID, AccountCode: "ASSET.CASH", Debit: decimal.NewFromInt(5), AccountType: domain.Asset},
				{LineNo: 2, AccountID: sales.AccountID, AccountCode: "INCOME.SALES", Credit: decimal.NewFromInt(5), AccountType: domain.Income},
			},
		}
	}
	deltas := map[string]decimal.Decimal{"ASSET.CASH": decimal.NewFromInt(5), "INCOME.SALES": decimal.NewFromInt(5)}

	// Ordinary references may repeat; deduplicating them is the caller's job.
	_, err := repos.LedgerRepo.SaveTransaction(s.ctx, txn("sale"), deltas)
	s.Require().NoError(err)
	_, err = repos.LedgerRepo.SaveTransaction(s.ctx, txn("sale"), deltas)
	s.Require().NoError(err)

	_, err = repos.LedgerRepo.SaveTransaction(s.ctx, txn(domain.ReferenceTypeReversal), deltas)
	s.Require().NoError(err)
	_, err = repos.LedgerRepo.SaveTransaction(s.ctx, txn(domain.ReferenceTypeReversal), deltas)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	s.Equal(3, s.count("transactions"))
	s.True(s.balance("ASSET.CASH").Equal(decimal.NewFromInt(15)))
}

func (s *LedgerStoreTestSuite) TestSaveTransaction_RecreatedAccountTypeIsConflict() {
	repos := NewRepositoryProvider(s.db)
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)

	// Prepared while INCOME.SALES was an income account.
	prepared := domain.Transaction{
		ReferenceType: "sale",
		ReferenceID:   "S-11",
		Entries: []domain.Entry{
			{LineNo: 1, AccountCode: "ASSET.CASH", Debit: decimal.NewFromInt(5), AccountType: domain.Asset},
			{LineNo: 2, AccountCode: "INCOME.SALES", Credit: decimal.NewFromInt(5), AccountType: domain.Income},
		},
	}
	deltas := map[string]decimal.Decimal{"ASSET.CASH": decimal.NewFromInt(5), "INCOME.SALES": decimal.NewFromInt(5)}

	s.Require().NoError(s.accounts.DeleteAccount(s.ctx, "INCOME.SALES"))
	s.ensure("INCOME.SALES", "Sales", domain.Expense)

	_, err := repos.LedgerRepo.SaveTransaction(s.ctx, prepared, deltas)
	s.ErrorIs(err, apperrors.ErrConcurrentBalanceConflict)
	s.Equal(0, s.count("transactions"))
	s.True(s.balance("ASSET.CASH").IsZero())
	s.True(s.balance("INCOME.SALES").IsZero())

	// A fresh posting signs the credit for the account's current type.
	_, err = s.ledger.Post(s.ctx, "sale", "S-11", sale(5))
	s.Require().NoError(err)
	s.True(s.balance("INCOME.SALES").Equal(decimal.NewFromInt(-5)))
}

func (s *LedgerStoreTestSuite) TestVerifyBalances_ReportsDrift() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)
	s.ensure("EQUITY.CAPITAL", "Capital", domain.Equity)
	_, err := s.ledger.Post(s.ctx, "sale", "S-1", sale(40))
	s.Require().NoError(err)

	_, err = s.db.Exec(`UPDATE accounts SET balance = '41' WHERE code = 'ASSET.CASH'`)
	s.Require().NoError(err)

	report, err := s.ledger.VerifyBalances(s.ctx)
	s.Require().NoError(err)
	s.False(report.Balanced())
	s.Equal(3, report.AccountsChecked)
	s.Require().Len(report.Drifts, 1)
	s.Equal("ASSET.CASH", report.Drifts[0].AccountCode)
	s.True(report.Drifts[0].ReplayedBalance.Equal(decimal.NewFromInt(40)))
	s.True(report.Drifts[0].StoredBalance.Equal(decimal.NewFromInt(41)))
}

func (s *LedgerStoreTestSuite) TestDeleteAccount() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)
	s.ensure("EXPENSE.UNUSED", "Unused", domain.Expense)

	original, err := s.ledger.Post(s.ctx, "sale", "S-1", sale(10))
	s.Require().NoError(err)

	s.ErrorIs(s.accounts.DeleteAccount(s.ctx, "ASSET.CASH"), apperrors.ErrAccountInUse)

	// Zero balance again, but entries still reference the account.
	_, err = s.ledger.Reverse(s.ctx, original.TransactionID, "")
	s.Require().NoError(err)
	s.ErrorIs(s.accounts.DeleteAccount(s.ctx, "ASSET.CASH"), apperrors.ErrAccountInUse)

	s.NoError(s.accounts.DeleteAccount(s.ctx, "EXPENSE.UNUSED"))
	_, err = s.accounts.FindAccountByCode(s.ctx, "EXPENSE.UNUSED")
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.ErrorIs(s.accounts.DeleteAccount(s.ctx, "EXPENSE.UNUSED"), apperrors.ErrNotFound)
}

func (s *LedgerStoreTestSuite) TestListAccounts_FiltersByType() {
	s.ensure("INCOME.SALES", "Sales", domain.Income)
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("ASSET.BANK", "Bank", domain.Asset)

	all, err := s.accounts.ListAccounts(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("ASSET.BANK", all[0].Code)
	s.Equal("INCOME.SALES", all[2].Code)

	asset := domain.Asset
	assets, err := s.accounts.ListAccounts(s.ctx, &asset)
	s.Require().NoError(err)
	s.Len(assets, 2)
}

func (s *LedgerStoreTestSuite) TestListEntriesByAccount_Paginates() {
	s.ensure("ASSET.CASH", "Cash", domain.Asset)
	s.ensure("INCOME.SALES", "Sales", domain.Income)
	for i := 1; i <= 5; i++ {
		_, err := s.ledger.Post(s.ctx, "sale", "S", sale(int64(i)))
		s.Require().NoError(err)
	}

	var seen []string
	var token *string
	pages := 0
	for {
		page, err := s.ledger.ListEntriesByAccount(s.ctx, "ASSET.CASH", dto.ListAccountEntriesParams{Limit: 2, NextToken: token})
		s.Require().NoError(err)
		pages++
		for _, e := range page.Entries {
			seen = append(seen, e.Debit.String())
		}
		if page.NextToken == nil {
			break
		}
		token = page.NextToken
	}

	s.Equal(3, pages)
	s.Equal([]string{"1", "2", "3", "4", "5"}, seen)

	_, err := s.ledger.ListEntriesByAccount(s.ctx, "INCOME.SALES", dto.ListAccountEntriesParams{Limit: 2, NextToken: token})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestOpenSQLite_ForeignKeysEnforced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk.db")
	require.NoError(t, database.MigrateSQLite(path))
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO entries (transaction_id, line_no, account_id, account_code, debit, credit, narration) VALUES (999, 1, 999, 'X', '1', '0', '')`)
	assert.True(t, isForeignKeyViolation(err), "expected foreign key violation, got %v", err)
}
