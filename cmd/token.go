// cmd/token.go
package main

import (
	"errors"
	"fmt"
	"time"

	"vjezbajmo/internal/config"
	"vjezbajmo/internal/middleware"

	"github.com/spf13/cobra"
)

// tokenCmd mints account tokens for local testing against the configured secret.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Print a signed account token for user-id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setup(cmd); err != nil {
			return err
		}
		if config.Cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is not configured")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := middleware.NewUserToken(config.Cfg.Auth.JWTSecret, args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
