package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/backoffice_ledger/internal/core/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/platform/storage"
	"github.com/spf13/cobra"
)

var verifyJSON bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay every entry and compare against stored balances",
	Long: `Recompute each account's balance from its entries and report accounts whose
stored balance differs. Exits non-zero when the ledger is out of balance.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the report as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := services.NewServiceContainer(cfg, store.Repos)
	report, err := svc.Ledger.VerifyBalances(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	resp := dto.ToVerificationResponse(report)
	if verifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Accounts checked: %d\n", resp.AccountsChecked)
		fmt.Fprintf(out, "Total debit:      %s\n", resp.TotalDebit.String())
		fmt.Fprintf(out, "Total credit:     %s\n", resp.TotalCredit.String())
		for _, d := range resp.Drifts {
			fmt.Fprintf(out, "DRIFT %s: stored %s, replayed %s\n", d.AccountCode, d.StoredBalance.String(), d.ReplayedBalance.String())
		}
	}

	if !resp.Balanced {
		return fmt.Errorf("ledger is out of balance")
	}
	fmt.Fprintln(out, "Ledger balanced")
	return nil
}
