package cmd

import (
	"fmt"

	"github.com/SscSPs/backoffice_ledger/internal/chart"
	"github.com/SscSPs/backoffice_ledger/internal/core/services"
	"github.com/SscSPs/backoffice_ledger/internal/platform/storage"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the accounts listed in a chart of accounts file",
	Long: `Create every account of a YAML chart of accounts. Existing accounts are left
untouched, so the command can be run repeatedly.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "chart of accounts file (default CHART_OF_ACCOUNTS_FILE)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := seedFile
	if path == "" {
		path = cfg.ChartOfAccountsFile
	}
	if path == "" {
		return fmt.Errorf("no chart of accounts file: pass --file or set CHART_OF_ACCOUNTS_FILE")
	}

	c, err := chart.Load(path)
	if err != nil {
		return err
	}

	store, err := storage.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := services.NewServiceContainer(cfg, store.Repos)
	n, err := chart.Seed(cmd.Context(), svc.Account, c)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d accounts ensured from %s\n", n, path)
	return nil
}
