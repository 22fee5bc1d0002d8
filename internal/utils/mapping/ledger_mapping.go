package mapping

import (
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/models"
)

// ToModelEntry converts a domain Entry to the row stored under transactionID.
func ToModelEntry(d domain.Entry, transactionID int64) models.Entry {
	return models.Entry{
		EntryID:       d.EntryID,
		TransactionID: transactionID,
		LineNo:        d.LineNo,
		AccountID:     d.AccountID,
		AccountCode:   d.AccountCode,
		Debit:         d.Debit,
		Credit:        d.Credit,
		Narration:     d.Narration,
	}
}

// ToDomainEntry converts a model Entry to a domain Entry
func ToDomainEntry(m models.Entry) domain.Entry {
	return domain.Entry{
		EntryID:       m.EntryID,
		TransactionID: m.TransactionID,
		LineNo:        m.LineNo,
		AccountID:     m.AccountID,
		AccountCode:   m.AccountCode,
		Debit:         m.Debit,
		Credit:        m.Credit,
		Narration:     m.Narration,
	}
}

// ToDomainTransactions folds join rows into transactions. Rows must be ordered by
// transaction ID, then line number.
func ToDomainTransactions(rows []models.TransactionEntry) []domain.Transaction {
	txns := make([]domain.Transaction, 0)
	for _, row := range rows {
		if n := len(txns); n == 0 || txns[n-1].TransactionID != row.Transaction.TransactionID {
			txns = append(txns, domain.Transaction{
				TransactionID: row.Transaction.TransactionID,
				ReferenceType: row.Transaction.ReferenceType,
				ReferenceID:   row.Transaction.ReferenceID,
				CreatedAt:     row.Transaction.CreatedAt,
			})
		}
		last := &txns[len(txns)-1]
		last.Entries = append(last.Entries, ToDomainEntry(row.Entry))
	}
	return txns
}

// ToDomainAccountEntry converts a join row to an entry seen from its account.
func ToDomainAccountEntry(row models.TransactionEntry) domain.AccountEntry {
	return domain.AccountEntry{
		Entry:         ToDomainEntry(row.Entry),
		ReferenceType: row.Transaction.ReferenceType,
		ReferenceID:   row.Transaction.ReferenceID,
		CreatedAt:     row.Transaction.CreatedAt,
	}
}
