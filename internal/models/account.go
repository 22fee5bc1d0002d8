package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a row of the accounts table.
type Account struct {
	AccountID   int64           `db:"account_id"`
	Code        string          `db:"code"`
	Name        string          `db:"name"`
	AccountType string          `db:"account_type"`
	Balance     decimal.Decimal `db:"balance"` // NUMERIC on PostgreSQL, TEXT on SQLite
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
