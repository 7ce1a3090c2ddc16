package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/tripwiser/internal/auth"
)

func newTokenCommand(opts *options) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Mint a bearer token for a user with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret (JWT_SECRET) is not set")
			}
			if duration <= 0 {
				duration = cfg.Auth.TokenDuration
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := store.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("looking up user %s: %w", args[0], err)
			}

			token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, duration).Generate(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "ttl", 0, "token lifetime (default auth.token_duration)")

	return cmd
}
