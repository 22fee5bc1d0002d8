package dto

import (
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryRequest is one line of a posting request.
type EntryRequest struct {
	AccountCode string          `json:"accountCode" binding:"required,accountcode"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Narration   string          `json:"narration" binding:"max=1000"`
}

// PostTransactionRequest defines the data needed to post a transaction.
type PostTransactionRequest struct {
	ReferenceType string         `json:"referenceType" binding:"required,max=64"`
	ReferenceID   string         `json:"referenceID" binding:"required,max=128"`
	Entries       []EntryRequest `json:"entries" binding:"required,min=2,dive"`
}

// ReverseTransactionRequest carries an optional narration for every reversing entry.
type ReverseTransactionRequest struct {
	Narration string `json:"narration" binding:"max=1000"`
}

// ListTransactionsParams selects transactions by their business reference.
type ListTransactionsParams struct {
	ReferenceType string `form:"referenceType" binding:"required"`
	ReferenceID   string `form:"referenceID" binding:"required"`
}

// ListAccountEntriesParams defines pagination for an account's entry history.
type ListAccountEntriesParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=500"`
	NextToken *string `form:"nextToken"`
}

// EntryResponse defines the data returned for an entry.
type EntryResponse struct {
	LineNo      int             `json:"lineNo"`
	AccountCode string          `json:"accountCode"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Narration   string          `json:"narration"`
}

// TransactionResponse defines the data returned for a transaction and its entries.
type TransactionResponse struct {
	TransactionID int64           `json:"transactionID"`
	ReferenceType string          `json:"referenceType"`
	ReferenceID   string          `json:"referenceID"`
	CreatedAt     time.Time       `json:"createdAt"`
	Entries       []EntryResponse `json:"entries"`
}

// AccountEntryResponse is an entry seen from an account's history.
type AccountEntryResponse struct {
	EntryID       int64           `json:"entryID"`
	TransactionID int64           `json:"transactionID"`
	ReferenceType string          `json:"referenceType"`
	ReferenceID   string          `json:"referenceID"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Narration     string          `json:"narration"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ListAccountEntriesResponse wraps a page of entries with the token for the next page.
type ListAccountEntriesResponse struct {
	Entries   []AccountEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToEntryInputs converts request lines into ledger inputs.
func ToEntryInputs(reqs []EntryRequest) []domain.EntryInput {
	inputs := make([]domain.EntryInput, len(reqs))
	for i, r := range reqs {
		inputs[i] = domain.EntryInput{
			AccountCode: r.AccountCode,
			Debit:       r.Debit,
			Credit:      r.Credit,
			Narration:   r.Narration,
		}
	}
	return inputs
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	entries := make([]EntryResponse, len(txn.Entries))
	for i, e := range txn.Entries {
		entries[i] = EntryResponse{
			LineNo:      e.LineNo,
			AccountCode: e.AccountCode,
			Debit:       e.Debit,
			Credit:      e.Credit,
			Narration:   e.Narration,
		}
	}
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		ReferenceType: txn.ReferenceType,
		ReferenceID:   txn.ReferenceID,
		CreatedAt:     txn.CreatedAt,
		Entries:       entries,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ToAccountEntryResponse converts a domain.AccountEntry.
func ToAccountEntryResponse(e domain.AccountEntry) AccountEntryResponse {
	return AccountEntryResponse{
		EntryID:       e.EntryID,
		TransactionID: e.TransactionID,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		Debit:         e.Debit,
		Credit:        e.Credit,
		Narration:     e.Narration,
		CreatedAt:     e.CreatedAt,
	}
}

// VerificationResponse is the outcome of a balance replay.
type VerificationResponse struct {
	Balanced        bool                  `json:"balanced"`
	AccountsChecked int                   `json:"accountsChecked"`
	TotalDebit      decimal.Decimal       `json:"totalDebit"`
	TotalCredit     decimal.Decimal       `json:"totalCredit"`
	Drifts          []domain.BalanceDrift `json:"drifts"`
}

// ToVerificationResponse converts a domain.VerificationReport.
func ToVerificationResponse(r *domain.VerificationReport) VerificationResponse {
	drifts := r.Drifts
	if drifts == nil {
		drifts = []domain.BalanceDrift{}
	}
	return VerificationResponse{
		Balanced:        r.Balanced(),
		AccountsChecked: r.AccountsChecked,
		TotalDebit:      r.TotalDebit,
		TotalCredit:     r.TotalCredit,
		Drifts:          drifts,
	}
}
