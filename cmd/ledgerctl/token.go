package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ledgerdesk/internal/middleware"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with API_TOKEN_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("API_TOKEN_SECRET")
			if secret == "" {
				return errors.New("API_TOKEN_SECRET is not set; the API is running without auth")
			}
			token, err := middleware.IssueToken([]byte(secret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "ledgerctl", "Token subject")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return tokenCmd
}
