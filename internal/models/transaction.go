package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table.
type Transaction struct {
	TransactionID int64     `db:"transaction_id"`
	ReferenceType string    `db:"reference_type"`
	ReferenceID   string    `db:"reference_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Entry is a row of the entries table.
type Entry struct {
	EntryID       int64           `db:"entry_id"`
	TransactionID int64           `db:"transaction_id"`
	LineNo        int             `db:"line_no"`
	AccountID     int64           `db:"account_id"`
	AccountCode   string          `db:"account_code"`
	Debit         decimal.Decimal `db:"debit"`
	Credit        decimal.Decimal `db:"credit"`
	Narration     string          `db:"narration"`
}

// TransactionEntry is one row of transactions joined with entries.
type TransactionEntry struct {
	Transaction Transaction
	Entry       Entry
}
