package dto

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// AccountCodeTag is the binding tag for account code fields.
const AccountCodeTag = "accountcode"

// RegisterValidations adds the ledger's custom binding tags to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation(AccountCodeTag, validateAccountCode)
}

// validateAccountCode accepts any non-empty code without whitespace or control characters.
// Hierarchy is a naming convention only and is not checked here.
func validateAccountCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" {
		return false
	}
	for _, r := range code {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
