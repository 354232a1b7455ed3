package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rail-service/bridge_service/internal/infrastructure/config"
	"github.com/rail-service/bridge_service/pkg/auth"
)

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		secret  string
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint an operator token for DELETE /api/v1/bridge/cache",
		Long: `Mint an HS256 operator token with the admin role. The secret defaults to
server.admin_token_secret from the regular configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				secret = cfg.Server.AdminTokenSecret
			}
			if secret == "" {
				return fmt.Errorf("no admin token secret configured")
			}

			token, expiresAt, err := auth.GenerateToken(subject, auth.RoleAdmin, secret, ttl)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"token":      token,
					"expires_at": expiresAt,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret, overrides configuration")
	return cmd
}
