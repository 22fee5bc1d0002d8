package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
)

// BaseRepository provides common functionality for all repositories.
// The connection is expected to come from database.OpenSQLite, whose DSN makes
// every transaction start with BEGIN IMMEDIATE.
type BaseRepository struct {
	DB *sql.DB
}

// Begin starts a new write transaction. A writer that cannot get the lock within
// the busy timeout gets ErrConcurrentBalanceConflict.
func (r *BaseRepository) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, classifyError(err, "failed to begin transaction")
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return classifyError(err, "failed to commit transaction")
	}
	return nil
}

// Rollback rolls back a transaction. Rolling back a finished transaction is a no-op.
func (r *BaseRepository) Rollback(tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// inClause returns "?, ?, ..." for n values and the values as driver args.
func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "), args
}
