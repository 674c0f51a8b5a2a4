package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/MAB12-Star/hotel-management/internal/config"
	"github.com/MAB12-Star/hotel-management/internal/identity"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint a session token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if cfg.AuthJWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is not set")
		}

		token, err := identity.NewResolver(cfg.AuthJWTSecret, cfg.AuthSessionCookie).Issue(args[0], tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
