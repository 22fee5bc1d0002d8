// Package cmd provides the ledgerctl operator commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/SscSPs/backoffice_ledger/internal/platform/config"
	"github.com/spf13/cobra"
)

var debug bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the back-office ledger",
	Long: `ledgerctl runs maintenance tasks against the ledger database configured
through the same environment variables as the server (DB_DRIVER, PGSQL_URL, SQLITE_PATH, ...).

Example:
  ledgerctl migrate
  ledgerctl seed --file configs/chart_of_accounts.yaml
  ledgerctl verify`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(verifyCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
