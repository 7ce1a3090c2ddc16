package models

import "time"

// InvitationStatus tracks a collaborator invitation through its lifecycle.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
	InvitationExpired  InvitationStatus = "expired"
)

// Collaborator links a user to a trip they were invited to.
// Only accepted collaborators have access to the trip.
type Collaborator struct {
	// ID is the unique identifier for the invitation (UUID format).
	ID string

	TripID string
	UserID string

	// Role is the access level granted once the invitation is accepted.
	Role Role

	Status InvitationStatus

	// InvitedBy is the user ID who sent (or last re-sent) the invitation.
	InvitedBy string

	// InvitedAt is the Unix timestamp of the latest invitation.
	InvitedAt int64

	// AcceptedAt is zero until the invitation is accepted.
	AcceptedAt int64
}

// ExpiredAt reports whether a pending invitation is older than window at now.
func (c *Collaborator) ExpiredAt(now time.Time, window time.Duration) bool {
	return c.Status == InvitationPending && now.After(time.Unix(c.InvitedAt, 0).Add(window))
}
