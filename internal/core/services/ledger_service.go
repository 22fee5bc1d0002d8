package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/utils/accounting"
	"github.com/SscSPs/backoffice_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

const (
	// DefaultMaxRetries is how many times a posting is re-attempted after a balance conflict.
	DefaultMaxRetries = 3
	// DefaultRetryBackoff is the base wait between attempts; attempt n waits n times this.
	DefaultRetryBackoff = 50 * time.Millisecond

	defaultEntriesPageSize = 50
	maxEntriesPageSize     = 500
)

// ledgerService posts and reads balanced transactions.
type ledgerService struct {
	BaseService
	accountRepo  portsrepo.AccountReader
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	maxRetries   int
	retryBackoff time.Duration
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithRetryPolicy overrides the bounded retry applied to ErrConcurrentBalanceConflict.
func WithRetryPolicy(maxRetries int, backoff time.Duration) LedgerServiceOption {
	return func(s *ledgerService) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
		if backoff >= 0 {
			s.retryBackoff = backoff
		}
	}
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.AccountReader, ledgerRepo portsrepo.LedgerRepositoryFacade, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		maxRetries:   DefaultMaxRetries,
		retryBackoff: DefaultRetryBackoff,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) Post(ctx context.Context, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error) {
	logger := s.GetLogger(ctx).With(
		slog.String("reference_type", referenceType),
		slog.String("reference_id", referenceID),
	)

	if strings.TrimSpace(referenceType) == "" || strings.TrimSpace(referenceID) == "" {
		return nil, fmt.Errorf("%w: reference type and reference id are required", apperrors.ErrValidation)
	}

	if err := accounting.ValidateEntries(entries); err != nil {
		logger.Warn("Rejected posting", slog.String("error", err.Error()))
		return nil, err
	}

	saved, err := s.postWithRetry(ctx, logger, referenceType, referenceID, entries)
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction posted",
		slog.Int64("transaction_id", saved.TransactionID),
		slog.Int("entries", len(saved.Entries)),
		slog.String("amount", saved.TotalDebit().String()))
	return saved, nil
}

// preparePosting resolves every entry's account and signs the balance deltas by account type.
func (s *ledgerService) preparePosting(ctx context.Context, logger *slog.Logger, referenceType, referenceID string, entries []domain.EntryInput) (domain.Transaction, map[string]decimal.Decimal, error) {
	codes := accounting.UniqueAccountCodes(entries)
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		logger.Error("Failed to fetch accounts for posting", slog.String("error", err.Error()))
		return domain.Transaction{}, nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	var missing []string
	accountTypes := make(map[string]domain.AccountType, len(accounts))
	for _, code := range codes {
		acc, ok := accounts[code]
		if !ok {
			missing = append(missing, code)
			continue
		}
		accountTypes[code] = acc.AccountType
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		logger.Warn("Posting references unknown accounts", slog.String("account_codes", strings.Join(missing, ",")))
		return domain.Transaction{}, nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, strings.Join(missing, ", "))
	}

	balanceChanges, err := accounting.CalculateBalanceDeltas(entries, accountTypes)
	if err != nil {
		return domain.Transaction{}, nil, err
	}

	txn := domain.Transaction{
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Entries:       make([]domain.Entry, len(entries)),
	}
	for i, e := range entries {
		txn.Entries[i] = domain.Entry{
			LineNo:      i + 1,
			AccountID:   accounts[e.AccountCode].AccountID,
			AccountCode: e.AccountCode,
			Debit:       e.Debit,
			Credit:      e.Credit,
			Narration:   e.Narration,
			AccountType: accountTypes[e.AccountCode],
		}
	}
	return txn, balanceChanges, nil
}

// postWithRetry prepares and submits the whole posting unit, again after each balance
// conflict. Every attempt re-reads the accounts and runs in a fresh database transaction,
// so a failed attempt leaves nothing behind.
func (s *ledgerService) postWithRetry(ctx context.Context, logger *slog.Logger, referenceType, referenceID string, entries []domain.EntryInput) (*domain.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			wait := s.retryBackoff * time.Duration(attempt)
			logger.Warn("Retrying posting after balance conflict",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		txn, balanceChanges, err := s.preparePosting(ctx, logger, referenceType, referenceID, entries)
		if err != nil {
			return nil, err
		}

		saved, err := s.ledgerRepo.SaveTransaction(ctx, txn, balanceChanges)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, apperrors.ErrConcurrentBalanceConflict) {
			if errors.Is(err, apperrors.ErrUnknownAccount) || errors.Is(err, apperrors.ErrDuplicate) {
				logger.Warn("Posting rejected by storage", slog.String("error", err.Error()))
			} else {
				logger.Error("Failed to save transaction", slog.String("error", err.Error()))
			}
			return nil, err
		}
		lastErr = err
	}

	logger.Error("Posting retries exhausted", slog.Int("attempts", s.maxRetries+1), slog.String("error", lastErr.Error()))
	return nil, fmt.Errorf("posting %s/%s failed after %d attempts: %w", referenceType, referenceID, s.maxRetries+1, lastErr)
}

func (s *ledgerService) Reverse(ctx context.Context, transactionID int64, narration string) (*domain.Transaction, error) {
	original, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Storage enforces one reversal per transaction; this lookup only names the earlier one.
	refID := strconv.FormatInt(transactionID, 10)
	existing, err := s.ledgerRepo.FindTransactionsByReference(ctx, domain.ReferenceTypeReversal, refID)
	if err != nil {
		s.LogError(ctx, err, "Failed to check for an earlier reversal", slog.Int64("transaction_id", transactionID))
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: transaction %d was already reversed by transaction %d", apperrors.ErrDuplicate, transactionID, existing[0].TransactionID)
	}

	return s.Post(ctx, domain.ReferenceTypeReversal, refID, accounting.ReversalEntries(*original, narration))
}

func (s *ledgerService) GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	if transactionID <= 0 {
		return nil, fmt.Errorf("%w: invalid transaction id %d", apperrors.ErrValidation, transactionID)
	}

	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transaction", slog.Int64("transaction_id", transactionID))
		}
		return nil, err
	}
	return txn, nil
}

func (s *ledgerService) ListTransactionsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.Transaction, error) {
	if referenceType == "" || referenceID == "" {
		return nil, fmt.Errorf("%w: reference type and reference id are required", apperrors.ErrValidation)
	}

	txns, err := s.ledgerRepo.FindTransactionsByReference(ctx, referenceType, referenceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions by reference",
			slog.String("reference_type", referenceType),
			slog.String("reference_id", referenceID))
		return nil, err
	}
	if txns == nil {
		return []domain.Transaction{}, nil
	}
	return txns, nil
}

func (s *ledgerService) ListEntriesByAccount(ctx context.Context, accountCode string, params dto.ListAccountEntriesParams) (*dto.ListAccountEntriesResponse, error) {
	if _, err := s.accountRepo.FindAccountByCode(ctx, accountCode); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultEntriesPageSize
	}
	if limit > maxEntriesPageSize {
		limit = maxEntriesPageSize
	}

	var afterEntryID int64
	if params.NextToken != nil && *params.NextToken != "" {
		id, err := pagination.DecodeEntryToken(accountCode, *params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		afterEntryID = id
	}

	// One extra row tells us whether another page exists.
	entries, err := s.ledgerRepo.ListEntriesByAccount(ctx, accountCode, limit+1, afterEntryID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list account entries", slog.String("account_code", accountCode))
		return nil, err
	}

	resp := &dto.ListAccountEntriesResponse{Entries: []dto.AccountEntryResponse{}}
	if len(entries) > limit {
		entries = entries[:limit]
		token := pagination.EncodeEntryToken(accountCode, entries[len(entries)-1].EntryID)
		resp.NextToken = &token
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.ToAccountEntryResponse(e))
	}
	return resp, nil
}

func (s *ledgerService) VerifyBalances(ctx context.Context) (*domain.VerificationReport, error) {
	report, err := s.ledgerRepo.ReplayBalances(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to replay balances")
		return nil, err
	}

	if !report.Balanced() {
		s.LogWarn(ctx, "Ledger verification found inconsistencies",
			slog.Int("drifted_accounts", len(report.Drifts)),
			slog.String("total_debit", report.TotalDebit.String()),
			slog.String("total_credit", report.TotalCredit.String()))
	} else {
		s.LogInfo(ctx, "Ledger verified", slog.Int("accounts_checked", report.AccountsChecked))
	}
	return report, nil
}
