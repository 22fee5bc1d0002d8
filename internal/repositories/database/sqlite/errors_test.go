package sqlite

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	assert.ErrorIs(t, classifyError(sqlite3.Error{Code: sqlite3.ErrBusy}, "x"), apperrors.ErrConcurrentBalanceConflict)
	assert.ErrorIs(t, classifyError(sqlite3.Error{Code: sqlite3.ErrLocked}, "x"), apperrors.ErrConcurrentBalanceConflict)

	err := classifyError(sqlite3.Error{Code: sqlite3.ErrIoErr}, "x")
	assert.NotErrorIs(t, err, apperrors.ErrConcurrentBalanceConflict)
	var appErr *apperrors.AppError
	assert.ErrorAs(t, err, &appErr)
}

func TestSaveAccount_UniqueViolationIsCreationConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

	repo := newSQLiteAccountRepository(db)
	_, err = repo.SaveAccount(context.Background(), domain.Account{Code: "ASSET.CASH", Name: "Cash", AccountType: domain.Asset})

	assert.ErrorIs(t, err, apperrors.ErrAccountCreationConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTransaction_BusyIsBalanceConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id, code, account_type, balance FROM accounts")).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})
	mock.ExpectRollback()

	repo := newSQLiteLedgerRepository(db)
	_, err = repo.SaveTransaction(context.Background(), domain.Transaction{
		ReferenceType: "sale",
		ReferenceID:   "S-1",
		Entries: []domain.Entry{
			{LineNo: 1, AccountCode: "ASSET.CASH", Debit: decimal.NewFromInt(1)},
			{LineNo: 2, AccountCode: "INCOME.SALES", Credit: decimal.NewFromInt(1)},
		},
	}, map[string]decimal.Decimal{"ASSET.CASH": decimal.NewFromInt(1), "INCOME.SALES": decimal.NewFromInt(1)})

	assert.ErrorIs(t, err, apperrors.ErrConcurrentBalanceConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTransaction_CommitBusyIsBalanceConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id, code, account_type, balance FROM accounts")).
		WithArgs("ASSET.CASH", "INCOME.SALES").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "code", "account_type", "balance"}).
			AddRow(1, "ASSET.CASH", "asset", "10").
			AddRow(2, "INCOME.SALES", "income", "10"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entries")).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entries")).WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance")).
		WithArgs(decimal.NewFromInt(11), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance")).
		WithArgs(decimal.NewFromInt(11), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})

	repo := newSQLiteLedgerRepository(db)
	_, err = repo.SaveTransaction(context.Background(), domain.Transaction{
		ReferenceType: "sale",
		ReferenceID:   "S-1",
		Entries: []domain.Entry{
			{LineNo: 1, AccountCode: "ASSET.CASH", Debit: decimal.NewFromInt(1)},
			{LineNo: 2, AccountCode: "INCOME.SALES", Credit: decimal.NewFromInt(1)},
		},
	}, map[string]decimal.Decimal{"ASSET.CASH": decimal.NewFromInt(1), "INCOME.SALES": decimal.NewFromInt(1)})

	assert.ErrorIs(t, err, apperrors.ErrConcurrentBalanceConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func saleTransaction(referenceType, referenceID string) domain.Transaction {
	return domain.Transaction{
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Entries: []domain.Entry{
			{LineNo: 1, AccountCode: "ASSET.CASH", Debit: decimal.NewFromInt(1), AccountType: domain.Asset},
			{LineNo: 2, AccountCode: "INCOME.SALES", Credit: decimal.NewFromInt(1), AccountType: domain.Income},
		},
	}
}

func TestSaveTransaction_UniqueReferenceIsDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id, code, account_type, balance FROM accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "code", "account_type", "balance"}).
			AddRow(1, "ASSET.CASH", "asset", "0").
			AddRow(2, "INCOME.SALES", "income", "0"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	mock.ExpectRollback()

	repo := newSQLiteLedgerRepository(db)
	_, err = repo.SaveTransaction(context.Background(), saleTransaction(domain.ReferenceTypeReversal, "4"),
		map[string]decimal.Decimal{"ASSET.CASH": decimal.NewFromInt(1), "INCOME.SALES": decimal.NewFromInt(1)})

	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.NotErrorIs(t, err, apperrors.ErrAccountCreationConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTransaction_AccountTypeChangedIsBalanceConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id, code, account_type, balance FROM accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "code", "account_type", "balance"}).
			AddRow(1, "ASSET.CASH", "asset", "0").
			AddRow(3, "INCOME.SALES", "expense", "0"))
	mock.ExpectRollback()

	repo := newSQLiteLedgerRepository(db)
	_, err = repo.SaveTransaction(context.Background(), saleTransaction("sale", "S-2"),
		map[string]decimal.Decimal{"ASSET.CASH": decimal.NewFromInt(1), "INCOME.SALES": decimal.NewFromInt(1)})

	assert.ErrorIs(t, err, apperrors.ErrConcurrentBalanceConflict)
	assert.Contains(t, err.Error(), "INCOME.SALES")
	assert.NoError(t, mock.ExpectationsWereMet())
}
