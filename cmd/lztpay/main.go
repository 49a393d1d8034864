package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/lztpay/lztpay/internal/bootstrap"

	"github.com/spf13/cobra"
)

var Version = "dev"

type globalFlags struct {
	configPath   string
	mock         bool
	mockPayAfter int
	jsonOutput   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "lztpay",
		Short:         "Create and track LZT Market invoices",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file (default: ./config.yaml, ./config/, /etc/lztpay/)")
	pf.BoolVar(&flags.mock, "mock", false, "Use the in-memory gateway simulator")
	pf.IntVar(&flags.mockPayAfter, "mock-pay-after", 0, "Simulator reports invoices paid on the n-th check")
	pf.BoolVarP(&flags.jsonOutput, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(balanceCmd(flags))
	rootCmd.AddCommand(invoiceCmd(flags))
	rootCmd.AddCommand(historyCmd(flags))
	rootCmd.AddCommand(tokenCmd(flags))

	return rootCmd
}

// withApp bootstraps the process for one command and tears it down after.
func withApp(ctx context.Context, flags *globalFlags, fn func(*bootstrap.App) error) (err error) {
	app, err := bootstrap.New(ctx, bootstrap.Options{
		ServiceName:      "lztpay-cli",
		MetricsNamespace: "lztpay_cli",
		ConfigPath:       flags.configPath,
		Mock:             flags.mock,
		MockPayAfter:     flags.mockPayAfter,
		Console:          true,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
