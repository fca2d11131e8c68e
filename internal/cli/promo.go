package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-network/inkwell/internal/app/promo"
	"github.com/inkwell-network/inkwell/internal/daemon"
	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

// ─── Promo Code Admin Commands ──────────────────────────────────────────────
// Promo codes are operator tooling: created and disabled from the CLI,
// redeemed over the API.

func init() {
	rootCmd.AddCommand(promoCmd)
	promoCmd.AddCommand(promoCreateCmd)
	promoCmd.AddCommand(promoListCmd)
	promoCmd.AddCommand(promoDisableCmd)

	promoCreateCmd.Flags().String("bonus", "100.00", "Bonus amount as a fixed-point decimal")
	promoCreateCmd.Flags().Int64("limit", 100, "Maximum number of redemptions")
	promoCreateCmd.Flags().String("expires", "", "Expiry date (YYYY-MM-DD, default 30 days out)")
}

// openIssuer builds a CLI-scoped issuer against the configured database.
func openIssuer() (*promo.Issuer, *sqlite.DB, error) {
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlite.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}
	promoCfg, err := cfg.PromoConfig()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log := daemon.NewLogger(cfg.Log)
	return promo.New(db, promoCfg, log, nil), db, nil
}

var promoCmd = &cobra.Command{
	Use:   "promo",
	Short: "Manage promo codes",
}

var promoCreateCmd = &cobra.Command{
	Use:   "create CODE",
	Short: "Create a promo code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bonusStr, _ := cmd.Flags().GetString("bonus")
		limit, _ := cmd.Flags().GetInt64("limit")
		expiresStr, _ := cmd.Flags().GetString("expires")

		bonus, err := domain.ParseMoney(bonusStr)
		if err != nil {
			return err
		}
		expiry := time.Now().AddDate(0, 0, 30)
		if expiresStr != "" {
			expiry, err = time.Parse("2006-01-02", expiresStr)
			if err != nil {
				return fmt.Errorf("invalid expiry date: %w", err)
			}
		}

		issuer, db, err := openIssuer()
		if err != nil {
			return err
		}
		defer db.Close()

		code, err := issuer.CreateCode(context.Background(), args[0], bonus, limit, expiry)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "created %s: bonus %s, limit %d, expires %s\n",
			code.Code, code.BonusAmount, code.UsageLimit, code.ExpiryDate.Format("2006-01-02"))
		return nil
	},
}

var promoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List promo codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		issuer, db, err := openIssuer()
		if err != nil {
			return err
		}
		defer db.Close()

		codes, err := issuer.ListCodes(context.Background())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tBONUS\tUSED\tLIMIT\tEXPIRES\tACTIVE")
		for _, c := range codes {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%v\n",
				c.Code, c.BonusAmount, c.UsedCount, c.UsageLimit,
				c.ExpiryDate.Format("2006-01-02"), c.IsActive)
		}
		return tw.Flush()
	},
}

var promoDisableCmd = &cobra.Command{
	Use:   "disable CODE",
	Short: "Deactivate a promo code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issuer, db, err := openIssuer()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := issuer.DisableCode(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "disabled %s\n", promo.NormalizeCode(args[0]))
		return nil
	},
}
