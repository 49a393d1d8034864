package main

import (
	"fmt"

	"github.com/lztpay/lztpay/internal/bootstrap"

	"github.com/spf13/cobra"
)

func balanceCmd(flags *globalFlags) *cobra.Command {
	var merchantID int64

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the account or merchant balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				bal, err := app.Manager.Balance(cmd.Context(), merchantID)
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return printJSON(cmd.OutOrStdout(), bal)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s %s\n", bal.Amount.StringFixed(2), bal.Currency)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&merchantID, "merchant", 0, "Merchant id (default: account balance)")
	return cmd
}
