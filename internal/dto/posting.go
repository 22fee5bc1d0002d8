package dto

import (
	"github.com/shopspring/decimal"
)

// PaymentMethod selects the default payment-source account of a two-sided event.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentBank   PaymentMethod = "bank"
	PaymentMobile PaymentMethod = "mobile"
)

// PaymentSource describes where money came from or went to. An explicit AccountCode wins
// over the Method default; the explicit account must already exist.
type PaymentSource struct {
	Method      PaymentMethod `json:"paymentMethod" binding:"omitempty,oneof=cash bank mobile"`
	AccountCode string        `json:"paymentAccountCode"`
}

// ExpenseEvent records an expense paid from a payment source.
type ExpenseEvent struct {
	ExpenseID    string          `json:"expenseID" binding:"required"`
	CategoryName string          `json:"categoryName" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	PaymentSource
}

// SupplierPaymentEvent records money paid to a supplier against its payable.
type SupplierPaymentEvent struct {
	PaymentID    string          `json:"paymentID" binding:"required"`
	SupplierID   string          `json:"supplierID" binding:"required"`
	SupplierName string          `json:"supplierName" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	PaymentSource
}

// PurchaseEvent records stock bought from a supplier, either paid immediately or on credit.
type PurchaseEvent struct {
	PurchaseID   string          `json:"purchaseID" binding:"required"`
	SupplierID   string          `json:"supplierID" binding:"required"`
	SupplierName string          `json:"supplierName" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	OnCredit     bool            `json:"onCredit"`
	// InventoryAccountCode defaults to ASSET.INVENTORY.
	InventoryAccountCode string `json:"inventoryAccountCode"`
	Description          string `json:"description"`
	PaymentSource
}

// SaleEvent records a sale settled into a payment source.
type SaleEvent struct {
	SaleID string          `json:"saleID" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
	// IncomeCategory defaults to "Sales".
	IncomeCategory string `json:"incomeCategory"`
	Description    string `json:"description"`
	PaymentSource
}

// TwoSidedPosting is the generic shape every business event reduces to.
type TwoSidedPosting struct {
	ReferenceType string
	ReferenceID   string
	DebitAccount  string
	CreditAccount string
	Amount        decimal.Decimal
	Narration     string
}
