package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lessonloop/internal/config"
	"lessonloop/internal/domain"
	"lessonloop/internal/infra/identity"
)

// NewTokenCmd mints a development bearer token signed with the configured secret.
func NewTokenCmd(configPath *string) *cobra.Command {
	var uid, email string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development identity token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			token, err := identity.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(domain.Identity{
				UID:           uid,
				Email:         email,
				EmailVerified: true,
			}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "identity id")
	cmd.Flags().StringVar(&email, "email", "", "identity email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}
