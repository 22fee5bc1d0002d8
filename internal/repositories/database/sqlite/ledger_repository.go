package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/models"
	"github.com/SscSPs/backoffice_ledger/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const transactionEntryColumns = `
	t.transaction_id, t.reference_type, t.reference_id, t.created_at,
	e.entry_id, e.line_no, e.account_id, e.account_code, e.debit, e.credit, e.narration`

type SQLiteLedgerRepository struct {
	BaseRepository
}

func newSQLiteLedgerRepository(db *sql.DB) *SQLiteLedgerRepository {
	return &SQLiteLedgerRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.LedgerRepositoryFacade = (*SQLiteLedgerRepository)(nil)

type lockedAccount struct {
	id          int64
	accountType domain.AccountType
	balance     decimal.Decimal
}

// SaveTransaction is the posting unit. The IMMEDIATE transaction holds the database
// write lock from the first statement, so the balances read here cannot change
// before the updated values are written back.
func (r *SQLiteLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(tx)

	codes := make([]string, 0, len(balanceChanges))
	for code := range balanceChanges {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	locked, err := readAccounts(ctx, tx, codes)
	if err != nil {
		return nil, err
	}
	if err := checkAccountTypes(txn.Entries, locked); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (reference_type, reference_id, created_at)
		VALUES (?, ?, ?);
	`, txn.ReferenceType, txn.ReferenceID, now)
	if err != nil {
		return nil, classifyTransactionInsertError(err, txn.ReferenceType, txn.ReferenceID)
	}
	transactionID, err := res.LastInsertId()
	if err != nil {
		return nil, classifyError(err, "failed to read transaction id")
	}

	saved := domain.Transaction{
		TransactionID: transactionID,
		ReferenceType: txn.ReferenceType,
		ReferenceID:   txn.ReferenceID,
		CreatedAt:     now,
		Entries:       make([]domain.Entry, len(txn.Entries)),
	}

	for i, e := range txn.Entries {
		e.AccountID = locked[e.AccountCode].id
		m := mapping.ToModelEntry(e, transactionID)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO entries (transaction_id, line_no, account_id, account_code, debit, credit, narration)
			VALUES (?, ?, ?, ?, ?, ?, ?);
		`, m.TransactionID, m.LineNo, m.AccountID, m.AccountCode, m.Debit, m.Credit, m.Narration)
		if err != nil {
			return nil, classifyError(err, fmt.Sprintf("failed to insert entry %d", i+1))
		}
		if e.EntryID, err = res.LastInsertId(); err != nil {
			return nil, classifyError(err, "failed to read entry id")
		}
		e.TransactionID = transactionID
		saved.Entries[i] = e
	}

	for _, code := range codes {
		acc := locked[code]
		newBalance := acc.balance.Add(balanceChanges[code])
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ?, updated_at = ? WHERE account_id = ?;`, newBalance, now, acc.id); err != nil {
			return nil, classifyError(err, "failed to update balance of "+code)
		}
	}

	if err := r.Commit(tx); err != nil {
		return nil, err
	}
	return &saved, nil
}

// readAccounts loads the current balance of each touched account inside tx.
// A code that no longer exists yields ErrUnknownAccount.
func readAccounts(ctx context.Context, tx *sql.Tx, sortedCodes []string) (map[string]lockedAccount, error) {
	placeholders, args := inClause(sortedCodes)
	rows, err := tx.QueryContext(ctx, `SELECT account_id, code, account_type, balance FROM accounts WHERE code IN (`+placeholders+`) ORDER BY code;`, args...)
	if err != nil {
		return nil, classifyError(err, "failed to read accounts for update")
	}
	defer rows.Close()

	accounts := make(map[string]lockedAccount, len(sortedCodes))
	for rows.Next() {
		var code, accountType string
		var acc lockedAccount
		if err := rows.Scan(&acc.id, &code, &accountType, &acc.balance); err != nil {
			return nil, classifyError(err, "failed to scan account")
		}
		acc.accountType = domain.AccountType(accountType)
		accounts[code] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "failed to read accounts for update")
	}

	for _, code := range sortedCodes {
		if _, ok := accounts[code]; !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, code)
		}
	}
	return accounts, nil
}

// checkAccountTypes rejects a posting whose deltas were signed for a different account
// type than the one now locked, which happens when an account is re-created in between.
func checkAccountTypes(entries []domain.Entry, locked map[string]lockedAccount) error {
	for _, e := range entries {
		if e.AccountType == "" {
			continue
		}
		if got := locked[e.AccountCode].accountType; got != e.AccountType {
			return fmt.Errorf("%w: account %s is now %s, posting was prepared for %s",
				apperrors.ErrConcurrentBalanceConflict, e.AccountCode, got, e.AccountType)
		}
	}
	return nil
}

func (r *SQLiteLedgerRepository) queryTransactionEntries(ctx context.Context, query string, args ...any) ([]models.TransactionEntry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var result []models.TransactionEntry
	for rows.Next() {
		var row models.TransactionEntry
		if err := rows.Scan(
			&row.Transaction.TransactionID,
			&row.Transaction.ReferenceType,
			&row.Transaction.ReferenceID,
			&row.Transaction.CreatedAt,
			&row.Entry.EntryID,
			&row.Entry.LineNo,
			&row.Entry.AccountID,
			&row.Entry.AccountCode,
			&row.Entry.Debit,
			&row.Entry.Credit,
			&row.Entry.Narration,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		row.Entry.TransactionID = row.Transaction.TransactionID
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return result, nil
}

// FindTransactionByID retrieves a transaction and its entries in line order.
func (r *SQLiteLedgerRepository) FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	rows, err := r.queryTransactionEntries(ctx, `
		SELECT `+transactionEntryColumns+`
		FROM transactions t
		JOIN entries e ON e.transaction_id = t.transaction_id
		WHERE t.transaction_id = ?
		ORDER BY e.line_no;
	`, transactionID)
	if err != nil {
		return nil, err
	}

	txns := mapping.ToDomainTransactions(rows)
	if len(txns) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &txns[0], nil
}

// FindTransactionsByReference retrieves every transaction posted for a business reference.
func (r *SQLiteLedgerRepository) FindTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error) {
	rows, err := r.queryTransactionEntries(ctx, `
		SELECT `+transactionEntryColumns+`
		FROM transactions t
		JOIN entries e ON e.transaction_id = t.transaction_id
		WHERE t.reference_type = ? AND t.reference_id = ?
		ORDER BY t.transaction_id, e.line_no;
	`, referenceType, referenceID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainTransactions(rows), nil
}

// ListEntriesByAccount retrieves an account's entries with entry_id > afterEntryID, oldest first.
func (r *SQLiteLedgerRepository) ListEntriesByAccount(ctx context.Context, accountCode string, limit int, afterEntryID int64) ([]domain.AccountEntry, error) {
	rows, err := r.queryTransactionEntries(ctx, `
		SELECT `+transactionEntryColumns+`
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		JOIN accounts a ON a.account_id = e.account_id
		WHERE a.code = ? AND e.entry_id > ?
		ORDER BY e.entry_id
		LIMIT ?;
	`, accountCode, afterEntryID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AccountEntry, len(rows))
	for i, row := range rows {
		entries[i] = mapping.ToDomainAccountEntry(row)
	}
	return entries, nil
}

// ReplayBalances reads every account joined with its entries in one statement and
// sums in Go, since amounts are stored as text.
func (r *SQLiteLedgerRepository) ReplayBalances(ctx context.Context) (*domain.VerificationReport, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.code, a.account_type, a.balance, e.debit, e.credit
		FROM accounts a
		LEFT JOIN entries e ON e.account_id = a.account_id
		ORDER BY a.code, e.entry_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to replay balances: %w", err)
	}
	defer rows.Close()

	type replay struct {
		accountType domain.AccountType
		stored      decimal.Decimal
		debits      decimal.Decimal
		credits     decimal.Decimal
	}
	var order []string
	byCode := make(map[string]*replay)

	for rows.Next() {
		var code, accountType string
		var stored decimal.Decimal
		var debit, credit decimal.NullDecimal
		if err := rows.Scan(&code, &accountType, &stored, &debit, &credit); err != nil {
			return nil, fmt.Errorf("failed to scan replay row: %w", err)
		}
		acc, ok := byCode[code]
		if !ok {
			acc = &replay{accountType: domain.AccountType(accountType), stored: stored}
			byCode[code] = acc
			order = append(order, code)
		}
		if debit.Valid {
			acc.debits = acc.debits.Add(debit.Decimal)
		}
		if credit.Valid {
			acc.credits = acc.credits.Add(credit.Decimal)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating replay rows: %w", err)
	}

	report := &domain.VerificationReport{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, code := range order {
		acc := byCode[code]
		report.AccountsChecked++
		report.TotalDebit = report.TotalDebit.Add(acc.debits)
		report.TotalCredit = report.TotalCredit.Add(acc.credits)

		replayed := acc.accountType.SignedDelta(acc.debits, acc.credits)
		if !replayed.Equal(acc.stored) {
			report.Drifts = append(report.Drifts, domain.BalanceDrift{AccountCode: code, StoredBalance: acc.stored, ReplayedBalance: replayed})
		}
	}
	return report, nil
}
