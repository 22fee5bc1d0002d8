package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/models"
	"github.com/SscSPs/backoffice_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, code, name, account_type, balance, created_at, updated_at`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool DBPool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(&m.AccountID, &m.Code, &m.Name, &m.AccountType, &m.Balance, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// SaveAccount inserts a new account with a zero balance.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	modelAcc := mapping.ToModelAccount(account)
	now := time.Now().UTC()

	query := `
		INSERT INTO accounts (code, name, account_type, balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4)
		RETURNING ` + accountColumns + `;
	`
	saved, err := scanAccount(r.Pool.QueryRow(ctx, query, modelAcc.Code, modelAcc.Name, modelAcc.AccountType, now))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, fmt.Errorf("%w: account %s already exists", apperrors.ErrAccountCreationConflict, modelAcc.Code)
		}
		return nil, fmt.Errorf("failed to save account %s: %w", modelAcc.Code, err)
	}

	acc := mapping.ToDomainAccount(saved)
	return &acc, nil
}

// FindAccountByCode retrieves an account by its code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", code, err)
	}

	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountsByCodes retrieves the accounts whose codes are listed, keyed by code.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account, len(codes))
	if len(codes) == 0 {
		return accounts, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, codes)
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
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if accountType != nil {
		query += ` WHERE account_type = $1`
		args = append(args, string(*accountType))
	}
	query += ` ORDER BY code;`

	rows, err := r.Pool.Query(ctx, query, args...)
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

// DeleteAccount removes an account that has a zero balance and no entries. The row is
// locked first so a concurrent posting cannot slip in between the checks and the delete.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, code string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var accountID int64
	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT account_id, balance FROM accounts WHERE code = $1 FOR UPDATE;`, code).Scan(&accountID, &balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return classifyError(err, "failed to lock account "+code)
	}
	if !balance.IsZero() {
		return fmt.Errorf("%w: %s has balance %s", apperrors.ErrAccountInUse, code, balance.String())
	}

	var referenced bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE account_id = $1);`, accountID).Scan(&referenced); err != nil {
		return classifyError(err, "failed to check entries for account "+code)
	}
	if referenced {
		return fmt.Errorf("%w: %s is referenced by posted entries", apperrors.ErrAccountInUse, code)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1;`, accountID); err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("%w: %s is referenced by posted entries", apperrors.ErrAccountInUse, code)
		}
		return classifyError(err, "failed to delete account "+code)
	}

	return r.Commit(ctx, tx)
}
