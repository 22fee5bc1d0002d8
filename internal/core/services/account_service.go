package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
)

// accountService is the account registry.
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	codeCache   portsrepo.AccountCodeCache
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountCodeCache enables the existence cache used by EnsureAccountExists.
func WithAccountCodeCache(cache portsrepo.AccountCodeCache) AccountServiceOption {
	return func(s *accountService) {
		s.codeCache = cache
	}
}

// NewAccountService creates a new account registry with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: repo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code", slog.String("account_code", code))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	if accountType != nil && !accountType.IsValid() {
		return nil, fmt.Errorf("%w: invalid account type %q", apperrors.ErrValidation, *accountType)
	}

	accounts, err := s.accountRepo.ListAccounts(ctx, accountType)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// EnsureAccount looks the code up first and only inserts on a miss. Two callers racing
// on the same new code both reach SaveAccount; the loser gets ErrAccountCreationConflict
// from storage and re-reads the winner's row.
func (s *accountService) EnsureAccount(ctx context.Context, code, name string, accountType domain.AccountType) (*domain.Account, error) {
	if err := validateNewAccount(code, name, accountType); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err == nil {
		s.rememberCode(ctx, code)
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up account before creation", slog.String("account_code", code))
		return nil, err
	}

	created, err := s.accountRepo.SaveAccount(ctx, domain.Account{
		Code:        code,
		Name:        strings.TrimSpace(name),
		AccountType: accountType,
	})
	if err == nil {
		s.LogInfo(ctx, "Account created",
			slog.String("account_code", created.Code),
			slog.Int64("account_id", created.AccountID),
			slog.String("account_type", string(created.AccountType)))
		s.rememberCode(ctx, code)
		return created, nil
	}
	if !errors.Is(err, apperrors.ErrAccountCreationConflict) {
		s.LogError(ctx, err, "Failed to save account", slog.String("account_code", code))
		return nil, err
	}

	s.LogDebug(ctx, "Account created concurrently, re-fetching", slog.String("account_code", code))
	winner, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		s.LogError(ctx, err, "Failed to re-fetch account after creation conflict", slog.String("account_code", code))
		return nil, err
	}
	s.rememberCode(ctx, code)
	return winner, nil
}

func (s *accountService) EnsureAccountExists(ctx context.Context, code, name string, accountType domain.AccountType) error {
	if s.codeCache != nil {
		known, err := s.codeCache.IsKnown(ctx, code)
		if err != nil {
			s.LogWarn(ctx, "Account code cache lookup failed, falling back to storage",
				slog.String("account_code", code), slog.String("error", err.Error()))
		} else if known {
			return nil
		}
	}
	_, err := s.EnsureAccount(ctx, code, name, accountType)
	return err
}

func (s *accountService) DeleteAccount(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}

	if err := s.accountRepo.DeleteAccount(ctx, code); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrAccountInUse) {
			s.LogError(ctx, err, "Failed to delete account", slog.String("account_code", code))
		}
		return err
	}

	if s.codeCache != nil {
		if err := s.codeCache.Forget(ctx, code); err != nil {
			s.LogWarn(ctx, "Failed to evict deleted account from code cache",
				slog.String("account_code", code), slog.String("error", err.Error()))
		}
	}
	s.LogInfo(ctx, "Account deleted", slog.String("account_code", code))
	return nil
}

func (s *accountService) rememberCode(ctx context.Context, code string) {
	if s.codeCache == nil {
		return
	}
	if err := s.codeCache.MarkKnown(ctx, code); err != nil {
		s.LogWarn(ctx, "Failed to cache account code", slog.String("account_code", code), slog.String("error", err.Error()))
	}
}

func validateNewAccount(code, name string, accountType domain.AccountType) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}
	if code != strings.TrimSpace(code) {
		return fmt.Errorf("%w: account code %q has surrounding whitespace", apperrors.ErrValidation, code)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: account name is required for %s", apperrors.ErrValidation, code)
	}
	if !accountType.IsValid() {
		return fmt.Errorf("%w: invalid account type %q for %s", apperrors.ErrValidation, accountType, code)
	}
	return nil
}
