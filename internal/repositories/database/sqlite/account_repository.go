package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/models"
	"github.com/SscSPs/backoffice_ledger/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, code, name, account_type, balance, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type SQLiteAccountRepository struct {
	BaseRepository
}

func newSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.AccountRepositoryFacade = (*SQLiteAccountRepository)(nil)

func scanAccount(row rowScanner) (models.Account, error) {
	var m models.Account
	err := row.Scan(&m.AccountID, &m.Code, &m.Name, &m.AccountType, &m.Balance, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// SaveAccount inserts a new account with a zero balance.
func (r *SQLiteAccountRepository) SaveAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	modelAcc := mapping.ToModelAccount(account)
	now := time.Now().UTC()

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO accounts (code, name, account_type, balance, created_at, updated_at)
		VALUES (?, ?, ?, '0', ?, ?);
	`, modelAcc.Code, modelAcc.Name, modelAcc.AccountType, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: account %s already exists", apperrors.ErrAccountCreationConflict, modelAcc.Code)
		}
		return nil, fmt.Errorf("failed to save account %s: %w", modelAcc.Code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read id of account %s: %w", modelAcc.Code, err)
	}

	saved := modelAcc
	saved.AccountID = id
	saved.Balance = decimal.Zero
	saved.CreatedAt = now
	saved.UpdatedAt = now
	acc := mapping.ToDomainAccount(saved)
	return &acc, nil
}

// FindAccountByCode retrieves an account by its code.
func (r *SQLiteAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = ?;`

	m, err := scanAccount(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", code, err)
	}

	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountsByCodes retrieves the accounts whose codes are listed, keyed by code.
func (r *SQLiteAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account, len(codes))
	if len(codes) == 0 {
		return accounts, nil
	}

	placeholders, args := inClause(codes)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code IN (`+placeholders+`);`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by code: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts[m.Code] = mapping.ToDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// ListAccounts retrieves accounts ordered by code, optionally filtered by type.
func (r *SQLiteAccountRepository) ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if accountType != nil {
		query += ` WHERE account_type = ?`
		args = append(args, string(*accountType))
	}
	query += ` ORDER BY code;`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var ms []models.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return mapping.ToDomainAccountSlice(ms), nil
}

// DeleteAccount removes an account that has a zero balance and no entries.
// The checks and the delete share one IMMEDIATE transaction, so no posting can land in between.
func (r *SQLiteAccountRepository) DeleteAccount(ctx context.Context, code string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(tx)

	var accountID int64
	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx, `SELECT account_id, balance FROM accounts WHERE code = ?;`, code).Scan(&accountID, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return classifyError(err, "failed to read account "+code)
	}
	if !balance.IsZero() {
		return fmt.Errorf("%w: %s has balance %s", apperrors.ErrAccountInUse, code, balance.String())
	}

	var referenced bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE account_id = ?);`, accountID).Scan(&referenced); err != nil {
		return classifyError(err, "failed to check entries for account "+code)
	}
	if referenced {
		return fmt.Errorf("%w: %s is referenced by posted entries", apperrors.ErrAccountInUse, code)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = ?;`, accountID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s is referenced by posted entries", apperrors.ErrAccountInUse, code)
		}
		return classifyError(err, "failed to delete account "+code)
	}

	return r.Commit(tx)
}
