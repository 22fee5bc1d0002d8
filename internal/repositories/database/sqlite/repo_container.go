package sqlite

import (
	"database/sql"

	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the SQLite repositories onto one database handle.
func NewRepositoryProvider(db *sql.DB) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: newSQLiteAccountRepository(db),
		LedgerRepo:  newSQLiteLedgerRepository(db),
	}
}
