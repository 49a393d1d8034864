package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lztpay/lztpay/internal/bootstrap"
	"github.com/lztpay/lztpay/internal/domain/invoice"

	"github.com/spf13/cobra"
)

func historyCmd(flags *globalFlags) *cobra.Command {
	var (
		q       invoice.HistoryQuery
		comment string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				out := cmd.OutOrStdout()

				if comment != "" {
					item, err := app.Manager.FindByComment(cmd.Context(), comment)
					if err != nil {
						return err
					}
					if item == nil {
						return fmt.Errorf("no payment with comment %q", comment)
					}
					if flags.jsonOutput {
						return printJSON(out, item)
					}
					return printHistory(cmd, []invoice.HistoryItem{*item}, 1)
				}

				hist, err := app.Manager.History(cmd.Context(), q)
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return printJSON(out, hist)
				}
				return printHistory(cmd, hist.Payments, hist.Total)
			})
		},
	}

	f := cmd.Flags()
	f.IntVarP(&q.Limit, "limit", "n", 20, "Maximum entries")
	f.IntVar(&q.Offset, "offset", 0, "Entries to skip")
	f.StringVar(&q.Type, "type", "", "Filter by operation type (income, outcome)")
	f.StringVar(&comment, "comment", "", "Find a single payment by exact comment")

	return cmd
}

func printHistory(cmd *cobra.Command, items []invoice.HistoryItem, total int) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tTIME\tCOMMENT")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			it.ID, it.Type, it.Amount.StringFixed(2), time.Unix(it.Timestamp, 0).Format(time.RFC3339), it.Comment)
	}
	fmt.Fprintf(tw, "\n%d of %d\n", len(items), total)
	return tw.Flush()
}
