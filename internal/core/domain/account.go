package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Income    AccountType = "income"
	Expense   AccountType = "expense"
)

// AccountTypes lists every valid account type in chart order.
var AccountTypes = []AccountType{Asset, Liability, Equity, Income, Expense}

// ParseAccountType validates s and returns it as an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid account type %q", s)
	}
	return t, nil
}

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// DebitNormal reports whether a debit increases accounts of this type.
// Asset and expense accounts are debit-normal; liability, equity and income are credit-normal.
func (t AccountType) DebitNormal() bool {
	return t == Asset || t == Expense
}

// Account is a single bucket in the chart of accounts.
// Code, Name and AccountType are fixed at creation; only Balance moves, and only by posting.
type Account struct {
	AccountID   int64           `json:"accountID"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"accountType"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// SignedDelta returns the balance change an entry with the given debit and credit
// applies to an account of type t.
func (t AccountType) SignedDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
