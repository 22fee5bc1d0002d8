package sqlite

import (
	"errors"
	"fmt"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/mattn/go-sqlite3"
)

func sqliteError(err error) (sqlite3.Error, bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr, true
	}
	return sqlite3.Error{}, false
}

func isUniqueViolation(err error) bool {
	sqliteErr, ok := sqliteError(err)
	return ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isForeignKeyViolation(err error) bool {
	sqliteErr, ok := sqliteError(err)
	return ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// classifyError maps busy and locked failures to ErrConcurrentBalanceConflict
// and wraps everything else as an internal AppError.
func classifyError(err error, msg string) error {
	if sqliteErr, ok := sqliteError(err); ok {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %s: %v", apperrors.ErrConcurrentBalanceConflict, msg, err)
		}
	}
	return apperrors.NewAppError(500, msg, err)
}

// classifyTransactionInsertError maps a unique violation on the transactions table to
// ErrDuplicate. Only reversals are unique per reference.
func classifyTransactionInsertError(err error, referenceType, referenceID string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: transaction %s/%s is already recorded", apperrors.ErrDuplicate, referenceType, referenceID)
	}
	return classifyError(err, "failed to insert transaction")
}
