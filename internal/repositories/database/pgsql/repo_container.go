package pgsql

import (
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the PostgreSQL repositories onto one pool.
func NewRepositoryProvider(dbPool DBPool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: newPgxAccountRepository(dbPool),
		LedgerRepo:  newPgxLedgerRepository(dbPool),
	}
}
