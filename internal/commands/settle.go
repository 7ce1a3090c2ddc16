package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mmynk/tripwiser/internal/calculator"
)

func newSettleCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "settle <trip-id>",
		Short: "Print member balances and suggested payments for a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			trip, err := store.GetTrip(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading trip: %w", err)
			}

			res, err := calculator.NewEngine(store).Calculate(ctx, trip.ID)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(res.Balances))
			for id := range res.Balances {
				ids = append(ids, id)
			}
			users, err := store.GetUsersByIDs(ctx, ids)
			if err != nil {
				return fmt.Errorf("loading members: %w", err)
			}
			name := func(id string) string {
				if u, ok := users[id]; ok {
					return u.Username
				}
				return id
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", trip.Title, trip.Destination)

			sort.Slice(ids, func(i, j int) bool {
				if res.Balances[ids[i]] != res.Balances[ids[j]] {
					return res.Balances[ids[i]] > res.Balances[ids[j]]
				}
				return ids[i] < ids[j]
			})
			for _, id := range ids {
				fmt.Fprintf(out, "  %-16s %10.2f\n", name(id), calculator.RoundCents(res.Balances[id]))
			}

			if len(res.Suggestions) == 0 {
				fmt.Fprintln(out, "All settled up.")
				return nil
			}
			fmt.Fprintln(out, "Suggested payments:")
			for _, s := range res.Suggestions {
				fmt.Fprintf(out, "  %s pays %s %.2f\n", name(s.FromUserID), name(s.ToUserID), calculator.RoundCents(s.Amount))
			}
			return nil
		},
	}
}
