package cmd

import (
	"github.com/SscSPs/backoffice_ledger/internal/platform/storage"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return storage.Migrate(cfg)
	},
}
