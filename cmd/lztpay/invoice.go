package main

import (
	"fmt"
	"io"
	"time"

	"github.com/lztpay/lztpay/internal/bootstrap"
	"github.com/lztpay/lztpay/internal/domain/invoice"
	"github.com/lztpay/lztpay/internal/domain/payment"
	"github.com/lztpay/lztpay/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func invoiceCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create and check invoices",
	}
	cmd.AddCommand(invoiceCreateCmd(flags))
	cmd.AddCommand(invoiceCheckCmd(flags))
	return cmd
}

type waitFlags struct {
	enabled  bool
	interval time.Duration
	attempts int
}

func invoiceCreateCmd(flags *globalFlags) *cobra.Command {
	var (
		amount   string
		req      service.CreateInvoiceRequest
		currency string
		wait     waitFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice and optionally wait for it to be paid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil || !amt.IsPositive() {
				return fmt.Errorf("--amount must be a positive decimal, got %q", amount)
			}
			cur, ok := invoice.ParseCurrency(currency)
			if !ok {
				return fmt.Errorf("unsupported currency %q", currency)
			}
			req.Amount = amt
			req.Currency = cur

			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				out := cmd.OutOrStdout()

				summary, err := app.Manager.CreateInvoice(cmd.Context(), req)
				if err != nil {
					return err
				}
				if err := printSummary(out, flags.jsonOutput, summary); err != nil {
					return err
				}
				if !wait.enabled {
					return nil
				}

				conf, err := app.Manager.WaitForPayment(cmd.Context(), summary.PaymentID, wait.interval, wait.attempts)
				if err != nil {
					return err
				}
				return printConfirmation(out, flags.jsonOutput, conf)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&amount, "amount", "a", "", "Amount to charge")
	f.StringVar(&currency, "currency", string(invoice.CurrencyRUB), "Invoice currency")
	f.StringVar(&req.PaymentID, "payment-id", "", "Payment id (default: random UUID)")
	f.StringVar(&req.Comment, "comment", "", "Invoice comment")
	f.Int64Var(&req.OwnerID, "owner", 0, "Owner id the payment belongs to")
	f.IntVar(&req.Lifetime, "lifetime", invoice.DefaultLifetime, "Invoice lifetime in seconds")
	f.StringVar(&req.AdditionalData, "data", "", "Additional data echoed back by the gateway")
	f.BoolVar(&req.IsTest, "test", false, "Create a test invoice")
	f.BoolVarP(&wait.enabled, "wait", "w", false, "Poll until the invoice is paid")
	f.DurationVar(&wait.interval, "interval", 5*time.Second, "Poll interval for --wait")
	f.IntVar(&wait.attempts, "attempts", 60, "Maximum checks for --wait")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// invoiceCheckCmd asks the gateway directly. Each CLI run starts with an
// empty tracker, so a payment created by an earlier run is never tracked.
func invoiceCheckCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [payment-id]",
		Short: "Check once whether an invoice has been paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID := args[0]

			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				inv, err := app.Gateway.GetInvoice(cmd.Context(), invoice.Lookup{PaymentID: paymentID})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !inv.IsPaid() {
					if flags.jsonOutput {
						return printJSON(out, inv)
					}
					fmt.Fprintf(out, "Payment %s: %s (expires %s)\n", paymentID, inv.Status, inv.ExpiresTime().Format(time.RFC3339))
					return nil
				}
				return printConfirmation(out, flags.jsonOutput, &payment.Confirmation{
					PaymentID:   paymentID,
					InvoiceID:   inv.InvoiceID,
					Amount:      inv.Amount,
					PayerUserID: inv.Payer(),
					PaidDate:    inv.PaidTime(),
					Confirmed:   true,
				})
			})
		},
	}
	return cmd
}

func printSummary(w io.Writer, asJSON bool, s *payment.Summary) error {
	if asJSON {
		return printJSON(w, s)
	}
	fmt.Fprintf(w, "Invoice %d created\n", s.InvoiceID)
	fmt.Fprintf(w, "  Payment ID: %s\n", s.PaymentID)
	fmt.Fprintf(w, "  Amount:     %s\n", s.Amount.StringFixed(2))
	fmt.Fprintf(w, "  Pay at:     %s\n", s.PaymentURL)
	fmt.Fprintf(w, "  Expires:    %s\n", s.ExpiresAt.Format(time.RFC3339))
	return nil
}

func printConfirmation(w io.Writer, asJSON bool, c *payment.Confirmation) error {
	if asJSON {
		return printJSON(w, c)
	}
	fmt.Fprintf(w, "Payment %s confirmed: %s paid by user %d at %s\n",
		c.PaymentID, c.Amount.StringFixed(2), c.PayerUserID, c.PaidDate.Format(time.RFC3339))
	return nil
}
