package main

import (
	"errors"
	"fmt"
	"time"
	"voting-ledger/internal/config"
	"voting-ledger/internal/ports/http/middleware/auth"

	"github.com/spf13/cobra"
)

var flagTokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <address>",
	Short: "Issue an API token for address, signed with JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := config.GetJWTSecret()
		if secret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		token, err := auth.IssueToken(auth.JwtTokenParams{
			Issuer: config.GetJWTIssuer(),
			Secret: []byte(secret),
		}, args[0], flagTokenTTL)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "token validity")
}
