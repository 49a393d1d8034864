package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/lztpay/lztpay/internal/infrastructure/config"
	"github.com/lztpay/lztpay/internal/middleware"

	"github.com/spf13/cobra"
)

// tokenCmd issues a bearer token for the HTTP API from the configured secret.
func tokenCmd(flags *globalFlags) *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(flags.configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.JWTExpiry
			}

			token, err := middleware.NewToken(cfg.Auth.JWTSecret, operator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "cli", "Operator name embedded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.jwt_expiry)")
	return cmd
}
