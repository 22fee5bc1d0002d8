package pgsql

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/models"
	"github.com/SscSPs/backoffice_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionEntryColumns = `
	t.transaction_id, t.reference_type, t.reference_id, t.created_at,
	e.entry_id, e.line_no, e.account_id, e.account_code, e.debit, e.credit, e.narration`

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for transactions and entries.
func newPgxLedgerRepository(pool DBPool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// SaveTransaction is the posting unit: lock, insert, apply deltas, commit.
// Accounts are locked in code order so that two postings touching the same
// accounts always queue on the first shared row instead of deadlocking.
func (r *PgxLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	// 1. Lock every touched account
	codes := make([]string, 0, len(balanceChanges))
	for code := range balanceChanges {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	locked, err := lockAccounts(ctx, tx, codes)
	if err != nil {
		return nil, err
	}
	if err := checkAccountTypes(txn.Entries, locked); err != nil {
		return nil, err
	}

	// 2. Insert the transaction header
	now := time.Now().UTC()
	saved := domain.Transaction{
		ReferenceType: txn.ReferenceType,
		ReferenceID:   txn.ReferenceID,
		Entries:       make([]domain.Entry, len(txn.Entries)),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (reference_type, reference_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING transaction_id, created_at;
	`, txn.ReferenceType, txn.ReferenceID, now).Scan(&saved.TransactionID, &saved.CreatedAt)
	if err != nil {
		return nil, classifyTransactionInsertError(err, txn.ReferenceType, txn.ReferenceID)
	}

	// 3. Entries and balance updates go out as one batch
	batch := &pgx.Batch{}
	entryQuery := `
		INSERT INTO entries (transaction_id, line_no, account_id, account_code, debit, credit, narration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING entry_id;
	`
	for i, e := range txn.Entries {
		e.AccountID = locked[e.AccountCode].id
		m := mapping.ToModelEntry(e, saved.TransactionID)
		batch.Queue(entryQuery, m.TransactionID, m.LineNo, m.AccountID, m.AccountCode, m.Debit, m.Credit, m.Narration)
		e.TransactionID = saved.TransactionID
		saved.Entries[i] = e
	}
	for _, code := range codes {
		batch.Queue(`UPDATE accounts SET balance = balance + $2, updated_at = $3 WHERE code = $1;`, code, balanceChanges[code], now)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range saved.Entries {
		if err := br.QueryRow().Scan(&saved.Entries[i].EntryID); err != nil {
			br.Close()
			return nil, classifyError(err, fmt.Sprintf("failed to insert entry %d", i+1))
		}
	}
	for _, code := range codes {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return nil, classifyError(err, "failed to update balance of "+code)
		}
	}
	if err := br.Close(); err != nil {
		return nil, classifyError(err, "failed to close batch")
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &saved, nil
}

type lockedAccount struct {
	id          int64
	accountType domain.AccountType
}

// lockAccounts takes row locks on the accounts and returns them by code.
// A code that no longer exists yields ErrUnknownAccount.
func lockAccounts(ctx context.Context, tx pgx.Tx, sortedCodes []string) (map[string]lockedAccount, error) {
	rows, err := tx.Query(ctx, `SELECT account_id, code, account_type FROM accounts WHERE code = ANY($1) ORDER BY code FOR UPDATE;`, sortedCodes)
	if err != nil {
		return nil, classifyError(err, "failed to lock accounts for update")
	}
	defer rows.Close()

	accounts := make(map[string]lockedAccount, len(sortedCodes))
	for rows.Next() {
		var id int64
		var code, accountType string
		if err := rows.Scan(&id, &code, &accountType); err != nil {
			return nil, classifyError(err, "failed to scan locked account")
		}
		accounts[code] = lockedAccount{id: id, accountType: domain.AccountType(accountType)}
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "failed to lock accounts for update")
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

func (r *PgxLedgerRepository) queryTransactionEntries(ctx context.Context, query string, args ...any) ([]models.TransactionEntry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
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
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	rows, err := r.queryTransactionEntries(ctx, `
		SELECT `+transactionEntryColumns+`
		FROM transactions t
		JOIN entries e ON e.transaction_id = t.transaction_id
		WHERE t.transaction_id = $1
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
func (r *PgxLedgerRepository) FindTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error) {
	rows, err := r.queryTransactionEntries(ctx, `
		SELECT `+transactionEntryColumns+`
		FROM transactions t
		JOIN entries e ON e.transaction_id = t.transaction_id
		WHERE t.reference_type = $1 AND t.reference_id = $2
		ORDER BY t.transaction_id, e.line_no;
	`, referenceType, referenceID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainTransactions(rows), nil
}

// ListEntriesByAccount retrieves an account's entries with entry_id > afterEntryID, oldest first.
func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, accountCode string, limit int, afterEntryID int64) ([]domain.AccountEntry, error) {
	rows, err := r.queryTransactionEntries(ctx, `
		SELECT `+transactionEntryColumns+`
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		JOIN accounts a ON a.account_id = e.account_id
		WHERE a.code = $1 AND e.entry_id > $2
		ORDER BY e.entry_id
		LIMIT $3;
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

// ReplayBalances sums each account's entries in a single statement, so the stored
// balances and the entry totals come from the same snapshot.
func (r *PgxLedgerRepository) ReplayBalances(ctx context.Context) (*domain.VerificationReport, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT a.code, a.account_type, a.balance,
		       COALESCE(SUM(e.debit), 0), COALESCE(SUM(e.credit), 0)
		FROM accounts a
		LEFT JOIN entries e ON e.account_id = a.account_id
		GROUP BY a.account_id, a.code, a.account_type, a.balance
		ORDER BY a.code;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to replay balances: %w", err)
	}
	defer rows.Close()

	report := &domain.VerificationReport{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for rows.Next() {
		var code, accountType string
		var stored, debits, credits decimal.Decimal
		if err := rows.Scan(&code, &accountType, &stored, &debits, &credits); err != nil {
			return nil, fmt.Errorf("failed to scan replay row: %w", err)
		}
		report.AccountsChecked++
		report.TotalDebit = report.TotalDebit.Add(debits)
		report.TotalCredit = report.TotalCredit.Add(credits)

		replayed := domain.AccountType(accountType).SignedDelta(debits, credits)
		if !replayed.Equal(stored) {
			report.Drifts = append(report.Drifts, domain.BalanceDrift{AccountCode: code, StoredBalance: stored, ReplayedBalance: replayed})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating replay rows: %w", err)
	}
	return report, nil
}
