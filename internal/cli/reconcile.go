package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inkwell-network/inkwell/internal/app/ledger"
	"github.com/inkwell-network/inkwell/internal/daemon"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Audit wallet balances against the ledger",
	Long: `Recompute the sum of ledger entries for every wallet and compare it
to the stored balance. Any mismatch means the reconciliation invariant is
broken and exits non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.Load(configPath)
		if err != nil {
			return err
		}
		db, err := sqlite.Open(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := ledger.New(db, daemon.NewLogger(cfg.Log), nil)
		bad, err := svc.Reconcile(context.Background())
		if err != nil {
			return err
		}

		if len(bad) == 0 {
			fmt.Fprintln(os.Stdout, "all wallets reconcile")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WALLET\tBALANCE\tENTRY SUM")
		for _, row := range bad {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", row.WalletID, row.Balance, row.EntrySum)
		}
		tw.Flush()
		return fmt.Errorf("%d wallet(s) out of balance", len(bad))
	},
}
