package accounting

import (
	"fmt"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MinEntries is the smallest number of entries a transaction may carry.
const MinEntries = 2

// ValidateEntries checks the structural rules of a posting: at least two entries,
// non-negative amounts with exactly one nonzero side per entry, and debits equal to credits.
// The comparison is exact; there is no rounding tolerance.
func ValidateEntries(entries []domain.EntryInput) error {
	if len(entries) < MinEntries {
		return fmt.Errorf("%w: transaction must have at least %d entries, got %d", apperrors.ErrValidation, MinEntries, len(entries))
	}

	debits := decimal.Zero
	credits := decimal.Zero

	for i, e := range entries {
		if e.AccountCode == "" {
			return fmt.Errorf("%w: entry %d has no account code", apperrors.ErrValidation, i)
		}
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			return fmt.Errorf("%w: entry %d (%s) has a negative amount", apperrors.ErrValidation, i, e.AccountCode)
		}
		if e.Debit.IsZero() && e.Credit.IsZero() {
			return fmt.Errorf("%w: entry %d (%s) has neither a debit nor a credit", apperrors.ErrValidation, i, e.AccountCode)
		}
		if !e.Debit.IsZero() && !e.Credit.IsZero() {
			return fmt.Errorf("%w: entry %d (%s) has both a debit and a credit", apperrors.ErrValidation, i, e.AccountCode)
		}
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}

	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s", apperrors.ErrUnbalancedTransaction, debits.String(), credits.String())
	}

	return nil
}

// CalculateBalanceDeltas nets the entries of one posting into a single signed delta per
// account code, using each account's normal balance convention.
func CalculateBalanceDeltas(entries []domain.EntryInput, accountTypes map[string]domain.AccountType) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		accountType, ok := accountTypes[e.AccountCode]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, e.AccountCode)
		}
		deltas[e.AccountCode] = deltas[e.AccountCode].Add(accountType.SignedDelta(e.Debit, e.Credit))
	}
	return deltas, nil
}

// UniqueAccountCodes returns the distinct account codes referenced by entries, in first-seen order.
func UniqueAccountCodes(entries []domain.EntryInput) []string {
	seen := make(map[string]struct{}, len(entries))
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.AccountCode]; ok {
			continue
		}
		seen[e.AccountCode] = struct{}{}
		codes = append(codes, e.AccountCode)
	}
	return codes
}

// ReversalEntries mirrors a posted transaction's entries, swapping debit and credit.
func ReversalEntries(original domain.Transaction, narration string) []domain.EntryInput {
	reversed := make([]domain.EntryInput, len(original.Entries))
	for i, e := range original.Entries {
		n := narration
		if n == "" {
			n = "Reversal: " + e.Narration
		}
		reversed[i] = domain.EntryInput{
			AccountCode: e.AccountCode,
			Debit:       e.Credit,
			Credit:      e.Debit,
			Narration:   n,
		}
	}
	return reversed
}
