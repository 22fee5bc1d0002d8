package services

import (
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	var accountOpts []AccountServiceOption
	if repos.AccountCache != nil {
		accountOpts = append(accountOpts, WithAccountCodeCache(repos.AccountCache))
	}
	container.Account = NewAccountService(repos.AccountRepo, accountOpts...)

	container.Ledger = NewLedgerService(
		repos.AccountRepo,
		repos.LedgerRepo,
		WithRetryPolicy(cfg.LedgerMaxRetries, cfg.LedgerRetryBackoff),
	)

	// The façade only sees the registry and the posting half of the ledger.
	container.Posting = NewPostingService(container.Account, container.Ledger)

	return container
}
