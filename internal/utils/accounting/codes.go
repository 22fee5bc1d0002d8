package accounting

import (
	"strings"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// Well-known account code prefixes used by the posting helpers.
const (
	PrefixAsset     = "ASSET"
	PrefixLiability = "LIABILITY"
	PrefixEquity    = "EQUITY"
	PrefixIncome    = "INCOME"
	PrefixExpense   = "EXPENSE"

	SupplierPayablePrefix = "LIABILITY.SUPPLIER"
)

// NormalizeCategoryName turns a free-text category name into an account code segment:
// surrounding whitespace trimmed, upper-cased, spaces replaced by underscores.
// Punctuation is kept as-is, so "Food & Drinks" becomes "FOOD_&_DRINKS".
func NormalizeCategoryName(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "_")
}

// CategoryAccountCode builds "<PREFIX>.<NORMALIZED_NAME>".
func CategoryAccountCode(prefix, categoryName string) string {
	return strings.ToUpper(prefix) + "." + NormalizeCategoryName(categoryName)
}

// SupplierAccountCode builds the per-supplier payable code "LIABILITY.SUPPLIER.<id>".
func SupplierAccountCode(supplierID string) string {
	return SupplierPayablePrefix + "." + strings.TrimSpace(supplierID)
}

// Default accounts the posting helpers create on first use.
const (
	CashAccountCode        = "ASSET.CASH"
	BankAccountCode        = "ASSET.BANK"
	MobileMoneyAccountCode = "ASSET.MOBILE_MONEY"
	InventoryAccountCode   = "ASSET.INVENTORY"
	DefaultSalesCategory   = "Sales"
)

// AccountTypeForPrefix infers the account type from the first segment of a code prefix,
// so "EXPENSE" and "LIABILITY.SUPPLIER" map to expense and liability.
func AccountTypeForPrefix(prefix string) (domain.AccountType, bool) {
	head, _, _ := strings.Cut(strings.ToUpper(strings.TrimSpace(prefix)), ".")
	switch head {
	case PrefixAsset:
		return domain.Asset, true
	case PrefixLiability:
		return domain.Liability, true
	case PrefixEquity:
		return domain.Equity, true
	case PrefixIncome:
		return domain.Income, true
	case PrefixExpense:
		return domain.Expense, true
	}
	return "", false
}
