package commands

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/tripwiser/internal/models"
)

func newUserCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCommand(opts))
	cmd.AddCommand(newUserListCommand(opts))
	return cmd
}

func newUserAddCommand(opts *options) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return errors.New("username is required")
			}
			if email == "" {
				email = username + "@localhost"
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			user := models.NewUser(username, email)
			if err := store.CreateUser(cmd.Context(), user); err != nil {
				return fmt.Errorf("creating user %s: %w", username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (default <username>@localhost)")

	return cmd
}

func newUserListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREATED")
			for _, u := range users {
				created := time.Unix(u.CreatedAt, 0).UTC().Format(time.DateOnly)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, created)
			}
			return w.Flush()
		},
	}
}
