package pgsql

import (
	"errors"
	"fmt"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories act on.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classifyError maps lock and serialization failures to ErrConcurrentBalanceConflict
// and wraps everything else as an internal AppError.
func classifyError(err error, msg string) error {
	switch pgErrorCode(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return fmt.Errorf("%w: %s: %v", apperrors.ErrConcurrentBalanceConflict, msg, err)
	}
	return apperrors.NewAppError(500, msg, err)
}

// classifyTransactionInsertError maps a unique violation on the transactions table to
// ErrDuplicate. Only reversals are unique per reference.
func classifyTransactionInsertError(err error, referenceType, referenceID string) error {
	if pgErrorCode(err) == pgUniqueViolation {
		return fmt.Errorf("%w: transaction %s/%s is already recorded", apperrors.ErrDuplicate, referenceType, referenceID)
	}
	return classifyError(err, "failed to insert transaction")
}
