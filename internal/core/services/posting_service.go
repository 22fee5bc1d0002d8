package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/utils/accounting"
)

type defaultAccount struct {
	code string
	name string
}

var paymentAccounts = map[dto.PaymentMethod]defaultAccount{
	dto.PaymentCash:   {accounting.CashAccountCode, "Cash"},
	dto.PaymentBank:   {accounting.BankAccountCode, "Bank"},
	dto.PaymentMobile: {accounting.MobileMoneyAccountCode, "Mobile Money"},
}

// postingService turns business events into two-sided postings.
// Accounts it creates stay created even when the posting that follows fails.
type postingService struct {
	BaseService
	accounts portssvc.AccountSvcFacade
	ledger   portssvc.LedgerPosterSvc
}

// NewPostingService creates the façade business modules post through.
func NewPostingService(accounts portssvc.AccountSvcFacade, ledger portssvc.LedgerPosterSvc) portssvc.PostingSvcFacade {
	return &postingService{
		accounts: accounts,
		ledger:   ledger,
	}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

func (s *postingService) EnsureAccount(ctx context.Context, code, name string, accountType domain.AccountType) (*domain.Account, error) {
	return s.accounts.EnsureAccount(ctx, code, name, accountType)
}

func (s *postingService) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return s.accounts.FindAccountByCode(ctx, code)
}

func (s *postingService) Post(ctx context.Context, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error) {
	return s.ledger.Post(ctx, referenceType, referenceID, entries)
}

func (s *postingService) EnsureCategoryAccount(ctx context.Context, prefix, categoryName string) (string, error) {
	accountType, ok := accounting.AccountTypeForPrefix(prefix)
	if !ok {
		return "", fmt.Errorf("%w: unsupported account prefix %q", apperrors.ErrValidation, prefix)
	}
	if accounting.NormalizeCategoryName(categoryName) == "" {
		return "", fmt.Errorf("%w: category name is required", apperrors.ErrValidation)
	}

	code := accounting.CategoryAccountCode(strings.TrimSpace(prefix), categoryName)
	if err := s.accounts.EnsureAccountExists(ctx, code, strings.TrimSpace(categoryName), accountType); err != nil {
		return "", err
	}
	return code, nil
}

func (s *postingService) EnsureSupplierAccount(ctx context.Context, supplierID, supplierName string) (*domain.Account, error) {
	if strings.TrimSpace(supplierID) == "" {
		return nil, fmt.Errorf("%w: supplier id is required", apperrors.ErrValidation)
	}
	name := strings.TrimSpace(supplierName)
	if name == "" {
		name = "Supplier " + strings.TrimSpace(supplierID)
	}
	return s.accounts.EnsureAccount(ctx, accounting.SupplierAccountCode(supplierID), name, domain.Liability)
}

func (s *postingService) PostTwoSided(ctx context.Context, p dto.TwoSidedPosting) (*domain.Transaction, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrValidation, p.Amount.String())
	}
	if p.DebitAccount == "" || p.CreditAccount == "" {
		return nil, fmt.Errorf("%w: both debit and credit accounts are required", apperrors.ErrValidation)
	}
	if p.DebitAccount == p.CreditAccount {
		return nil, fmt.Errorf("%w: debit and credit account are both %s", apperrors.ErrValidation, p.DebitAccount)
	}

	return s.ledger.Post(ctx, p.ReferenceType, p.ReferenceID, []domain.EntryInput{
		{AccountCode: p.DebitAccount, Debit: p.Amount, Narration: p.Narration},
		{AccountCode: p.CreditAccount, Credit: p.Amount, Narration: p.Narration},
	})
}

// paymentAccount resolves where money moves from or to. An explicit code is used as-is
// and must already exist; otherwise the method's default account is ensured.
func (s *postingService) paymentAccount(ctx context.Context, src dto.PaymentSource) (string, error) {
	if code := strings.TrimSpace(src.AccountCode); code != "" {
		return code, nil
	}

	method := src.Method
	if method == "" {
		method = dto.PaymentCash
	}
	def, ok := paymentAccounts[method]
	if !ok {
		return "", fmt.Errorf("%w: unsupported payment method %q", apperrors.ErrValidation, method)
	}
	if err := s.accounts.EnsureAccountExists(ctx, def.code, def.name, domain.Asset); err != nil {
		return "", err
	}
	return def.code, nil
}

func (s *postingService) RecordExpense(ctx context.Context, ev dto.ExpenseEvent) (*domain.Transaction, error) {
	expenseCode, err := s.EnsureCategoryAccount(ctx, accounting.PrefixExpense, ev.CategoryName)
	if err != nil {
		return nil, err
	}
	source, err := s.paymentAccount(ctx, ev.PaymentSource)
	if err != nil {
		return nil, err
	}

	s.LogDebug(ctx, "Recording expense", slog.String("expense_id", ev.ExpenseID), slog.String("account_code", expenseCode))
	return s.PostTwoSided(ctx, dto.TwoSidedPosting{
		ReferenceType: domain.ReferenceTypeExpense,
		ReferenceID:   ev.ExpenseID,
		DebitAccount:  expenseCode,
		CreditAccount: source,
		Amount:        ev.Amount,
		Narration:     narrationOr(ev.Description, "Expense: "+strings.TrimSpace(ev.CategoryName)),
	})
}

func (s *postingService) RecordSupplierPayment(ctx context.Context, ev dto.SupplierPaymentEvent) (*domain.Transaction, error) {
	supplier, err := s.EnsureSupplierAccount(ctx, ev.SupplierID, ev.SupplierName)
	if err != nil {
		return nil, err
	}
	source, err := s.paymentAccount(ctx, ev.PaymentSource)
	if err != nil {
		return nil, err
	}

	return s.PostTwoSided(ctx, dto.TwoSidedPosting{
		ReferenceType: domain.ReferenceTypeSupplierPayment,
		ReferenceID:   ev.PaymentID,
		DebitAccount:  supplier.Code,
		CreditAccount: source,
		Amount:        ev.Amount,
		Narration:     narrationOr(ev.Description, "Payment to "+supplier.Name),
	})
}

func (s *postingService) RecordPurchase(ctx context.Context, ev dto.PurchaseEvent) (*domain.Transaction, error) {
	inventory := strings.TrimSpace(ev.InventoryAccountCode)
	if inventory == "" {
		inventory = accounting.InventoryAccountCode
		if err := s.accounts.EnsureAccountExists(ctx, inventory, "Inventory", domain.Asset); err != nil {
			return nil, err
		}
	}

	supplier, err := s.EnsureSupplierAccount(ctx, ev.SupplierID, ev.SupplierName)
	if err != nil {
		return nil, err
	}

	credit := supplier.Code
	if !ev.OnCredit {
		if credit, err = s.paymentAccount(ctx, ev.PaymentSource); err != nil {
			return nil, err
		}
	}

	return s.PostTwoSided(ctx, dto.TwoSidedPosting{
		ReferenceType: domain.ReferenceTypePurchase,
		ReferenceID:   ev.PurchaseID,
		DebitAccount:  inventory,
		CreditAccount: credit,
		Amount:        ev.Amount,
		Narration:     narrationOr(ev.Description, "Purchase from "+supplier.Name),
	})
}

func (s *postingService) RecordSale(ctx context.Context, ev dto.SaleEvent) (*domain.Transaction, error) {
	category := ev.IncomeCategory
	if strings.TrimSpace(category) == "" {
		category = accounting.DefaultSalesCategory
	}
	incomeCode, err := s.EnsureCategoryAccount(ctx, accounting.PrefixIncome, category)
	if err != nil {
		return nil, err
	}
	source, err := s.paymentAccount(ctx, ev.PaymentSource)
	if err != nil {
		return nil, err
	}

	return s.PostTwoSided(ctx, dto.TwoSidedPosting{
		ReferenceType: domain.ReferenceTypeSale,
		ReferenceID:   ev.SaleID,
		DebitAccount:  source,
		CreditAccount: incomeCode,
		Amount:        ev.Amount,
		Narration:     narrationOr(ev.Description, "Sale "+ev.SaleID),
	})
}

func narrationOr(narration, fallback string) string {
	if n := strings.TrimSpace(narration); n != "" {
		return n
	}
	return fallback
}
