package api

type Collaborator struct {
	ID         string `json:"id"`
	TripID     string `json:"trip_id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username,omitempty"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	InvitedBy  string `json:"invited_by"`
	InvitedAt  int64  `json:"invited_at"`
	AcceptedAt int64  `json:"accepted_at,omitempty"`
}

type InviteCollaboratorRequest struct {
	TripID string `json:"trip_id"`
	UserID string `json:"user_id"`

	// Role defaults to viewer.
	Role string `json:"role,omitempty"`
}

type InviteCollaboratorResponse struct {
	Collaborator *Collaborator `json:"collaborator"`
}

type AcceptInvitationRequest struct {
	CollaboratorID string `json:"collaborator_id"`
}

type AcceptInvitationResponse struct {
	Collaborator *Collaborator `json:"collaborator"`
}

type RejectInvitationRequest struct {
	CollaboratorID string `json:"collaborator_id"`
}

type RejectInvitationResponse struct {
	Collaborator *Collaborator `json:"collaborator"`
}

type RemoveCollaboratorRequest struct {
	TripID         string `json:"trip_id"`
	CollaboratorID string `json:"collaborator_id"`
}

type RemoveCollaboratorResponse struct{}

type UpdateRoleRequest struct {
	TripID         string `json:"trip_id"`
	CollaboratorID string `json:"collaborator_id"`
	Role           string `json:"role"`
}

type UpdateRoleResponse struct {
	Collaborator *Collaborator `json:"collaborator"`
}

type ListCollaboratorsRequest struct {
	TripID string `json:"trip_id"`
}

type ListCollaboratorsResponse struct {
	OwnerID       string          `json:"owner_id"`
	OwnerUsername string          `json:"owner_username,omitempty"`
	Collaborators []*Collaborator `json:"collaborators"`
}

// Invitation is a collaborator row seen from the invitee's side.
type Invitation struct {
	Collaborator  *Collaborator `json:"collaborator"`
	TripTitle     string        `json:"trip_title"`
	Destination   string        `json:"destination"`
	InvitedByName string        `json:"invited_by_username,omitempty"`
}

type ListInvitationsRequest struct {
	Status string `json:"status,omitempty"`
}

type ListInvitationsResponse struct {
	Invitations []*Invitation `json:"invitations"`
}
