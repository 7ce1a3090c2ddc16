package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/tripwiser/internal/chatbot"
	"github.com/mmynk/tripwiser/internal/metrics"
)

const (
	InvitationSweepJob = "invitation_sweep"
	FAQReloadJob       = "faq_reload"
)

// InvitationExpirer marks pending invitations sent before cutoff as expired.
type InvitationExpirer interface {
	ExpirePendingInvitations(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpireInvitations returns a job that expires pending invitations older than maxAge.
func ExpireInvitations(store InvitationExpirer, maxAge time.Duration, now func() time.Time) Func {
	return func(ctx context.Context) error {
		cutoff := now().Add(-maxAge)
		n, err := store.ExpirePendingInvitations(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to expire invitations: %w", err)
		}
		metrics.RecordInvitationsExpired(n)
		if n > 0 {
			slog.Info("Expired pending invitations", "count", n, "cutoff", cutoff.Format(time.RFC3339))
		}
		return nil
	}
}

// ReloadFAQs returns a job that refreshes the chatbot's FAQ index.
func ReloadFAQs(bot *chatbot.Bot) Func {
	return func(context.Context) error {
		_, err := bot.Reload()
		return err
	}
}
