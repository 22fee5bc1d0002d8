package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal is returned when a lower layer failed in a way the caller cannot act on.
var ErrInternal = errors.New("internal error")

// Ledger errors. ErrUnknownAccount and ErrUnbalancedTransaction are permanent and
// indicate a caller bug; they must not be retried.
var (
	// ErrUnknownAccount indicates an entry referenced an account code with no matching account.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrUnbalancedTransaction indicates the sum of debits differs from the sum of credits.
	ErrUnbalancedTransaction = errors.New("unbalanced transaction")

	// ErrAccountInUse indicates an account cannot be removed because it carries a
	// balance or is referenced by entries.
	ErrAccountInUse = errors.New("account is in use")
)

// Transient storage conflicts. Both are resolved inside the ledger; only an exhausted
// retry budget lets ErrConcurrentBalanceConflict reach a caller.
var (
	// ErrAccountCreationConflict indicates a concurrent insert of the same account code won the race.
	ErrAccountCreationConflict = errors.New("account creation conflict")

	// ErrConcurrentBalanceConflict indicates a posting lost a lock or serialization race on an account balance.
	ErrConcurrentBalanceConflict = errors.New("concurrent balance conflict")
)

// AppError carries an HTTP-ish status code alongside a wrapped infrastructure error.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a storage conflict that may succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConcurrentBalanceConflict) || errors.Is(err, ErrAccountCreationConflict)
}
