package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reference types written by the posting helpers. Callers may use any other non-empty value.
const (
	// ReferenceTypeReversal marks transactions that reverse an earlier transaction.
	// Their ReferenceID holds the reversed transaction's ID.
	ReferenceTypeReversal = "reversal"

	ReferenceTypeExpense         = "expense"
	ReferenceTypeSupplierPayment = "supplier_payment"
	ReferenceTypePurchase        = "purchase"
	ReferenceTypeSale            = "sale"
)

// Transaction is an immutable, balanced set of entries recorded for one business event.
type Transaction struct {
	TransactionID int64     `json:"transactionID"`
	ReferenceType string    `json:"referenceType"` // e.g. "expense"
	ReferenceID   string    `json:"referenceID"`
	CreatedAt     time.Time `json:"createdAt"`
	Entries       []Entry   `json:"entries"`
}

// Entry is a single debit or credit line of a Transaction.
type Entry struct {
	EntryID       int64           `json:"entryID,omitempty"`
	TransactionID int64           `json:"transactionID,omitempty"`
	LineNo        int             `json:"lineNo"`
	AccountID     int64           `json:"accountID,omitempty"`
	AccountCode   string          `json:"accountCode"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Narration     string          `json:"narration"`

	// AccountType is the account type the posting's balance delta was computed for.
	// It is not stored; the posting unit rejects the entry if the locked account differs.
	AccountType AccountType `json:"-"`
}

// EntryInput is what callers hand to the ledger for one line of a posting.
type EntryInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Narration   string
}

// TotalDebit sums the debit side of the transaction.
func (t Transaction) TotalDebit() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range t.Entries {
		sum = sum.Add(e.Debit)
	}
	return sum
}

// TotalCredit sums the credit side of the transaction.
func (t Transaction) TotalCredit() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range t.Entries {
		sum = sum.Add(e.Credit)
	}
	return sum
}

// AccountEntry is an entry as seen from one account's history, with the transaction's reference.
type AccountEntry struct {
	Entry
	ReferenceType string    `json:"referenceType"`
	ReferenceID   string    `json:"referenceID"`
	CreatedAt     time.Time `json:"createdAt"`
}

// BalanceDrift reports an account whose stored balance differs from the replay of its entries.
type BalanceDrift struct {
	AccountCode     string          `json:"accountCode"`
	StoredBalance   decimal.Decimal `json:"storedBalance"`
	ReplayedBalance decimal.Decimal `json:"replayedBalance"`
}

// VerificationReport is the outcome of replaying the entry log against stored balances.
type VerificationReport struct {
	AccountsChecked int             `json:"accountsChecked"`
	TotalDebit      decimal.Decimal `json:"totalDebit"`
	TotalCredit     decimal.Decimal `json:"totalCredit"`
	Drifts          []BalanceDrift  `json:"drifts"`
}

// Balanced reports whether the ledger as a whole is consistent.
func (r VerificationReport) Balanced() bool {
	return len(r.Drifts) == 0 && r.TotalDebit.Equal(r.TotalCredit)
}
