package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/metrics"
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/internal/storage"
	"github.com/mmynk/tripwiser/pkg/api"
)

// CollaboratorService implements the Connect CollaboratorService
type CollaboratorService struct {
	store        storage.Store
	maxPerTrip   int
	inviteExpiry time.Duration
	now          func() time.Time
}

// NewCollaboratorService creates a CollaboratorService. maxPerTrip caps the
// accepted collaborators of a trip; invitations older than inviteExpiry can no
// longer be accepted.
func NewCollaboratorService(store storage.Store, maxPerTrip int, inviteExpiry time.Duration) *CollaboratorService {
	return &CollaboratorService{
		store:        store,
		maxPerTrip:   maxPerTrip,
		inviteExpiry: inviteExpiry,
		now:          time.Now,
	}
}

// Handler returns the mount path and handler serving this service.
func (s *CollaboratorService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	m := rpc.NewServiceMux(api.CollaboratorServiceName, opts...)
	rpc.Handle(m, "InviteCollaborator", s.InviteCollaborator)
	rpc.Handle(m, "AcceptInvitation", s.AcceptInvitation)
	rpc.Handle(m, "RejectInvitation", s.RejectInvitation)
	rpc.Handle(m, "RemoveCollaborator", s.RemoveCollaborator)
	rpc.Handle(m, "UpdateRole", s.UpdateRole)
	rpc.Handle(m, "ListCollaborators", s.ListCollaborators)
	rpc.Handle(m, "ListInvitations", s.ListInvitations)
	return m.Handler()
}

// InviteCollaborator invites a user to a trip. Rejected and expired
// invitations are sent again; pending and accepted ones are duplicates.
func (s *CollaboratorService) InviteCollaborator(ctx context.Context, req *connect.Request[api.InviteCollaboratorRequest]) (*connect.Response[api.InviteCollaboratorResponse], error) {
	slog.Info("InviteCollaborator request received", "trip_id", req.Msg.TripID, "invitee", req.Msg.UserID, "role", req.Msg.Role)

	trip, callerRole, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	inviterID, _ := callerID(ctx)

	role := models.RoleViewer
	if req.Msg.Role != "" {
		if role, err = models.ParseRole(req.Msg.Role); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	if role > callerRole {
		return nil, permissionDenied("cannot grant %s access with %s access", role, callerRole)
	}

	if req.Msg.UserID == "" {
		return nil, invalidArgument("user_id required")
	}
	if req.Msg.UserID == trip.UserID {
		return nil, invalidArgument("the trip creator cannot be invited")
	}
	invitee, err := s.store.GetUserByID(ctx, req.Msg.UserID)
	if err != nil {
		return nil, storageError(err)
	}

	if err := s.checkCapacity(ctx, trip.ID); err != nil {
		return nil, err
	}

	existing, err := s.store.GetCollaboratorByTripAndUser(ctx, trip.ID, invitee.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, storageError(err)
	}

	now := s.now().Unix()
	var c *models.Collaborator
	if existing != nil {
		if existing.Status == models.InvitationPending || existing.Status == models.InvitationAccepted {
			return nil, connect.NewError(connect.CodeAlreadyExists,
				errors.New("user is already invited to or collaborating on this trip"))
		}
		c = existing
		c.Role = role
		c.Status = models.InvitationPending
		c.InvitedBy = inviterID
		c.InvitedAt = now
		c.AcceptedAt = 0
		err = s.store.UpdateCollaborator(ctx, c)
	} else {
		c = &models.Collaborator{
			TripID:    trip.ID,
			UserID:    invitee.ID,
			Role:      role,
			Status:    models.InvitationPending,
			InvitedBy: inviterID,
			InvitedAt: now,
		}
		err = s.store.CreateCollaborator(ctx, c)
	}
	if err != nil {
		slog.Error("InviteCollaborator failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Collaborator invited", "trip_id", trip.ID, "collaborator_id", c.ID, "user_id", invitee.ID, "role", role.String())

	users := map[string]*models.User{invitee.ID: invitee}
	return connect.NewResponse(&api.InviteCollaboratorResponse{Collaborator: collaboratorToAPI(c, users)}), nil
}

// AcceptInvitation accepts one of the caller's pending invitations.
func (s *CollaboratorService) AcceptInvitation(ctx context.Context, req *connect.Request[api.AcceptInvitationRequest]) (*connect.Response[api.AcceptInvitationResponse], error) {
	slog.Info("AcceptInvitation request received", "collaborator_id", req.Msg.CollaboratorID)

	c, err := s.pendingInvitation(ctx, req.Msg.CollaboratorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if c.ExpiredAt(now, s.inviteExpiry) {
		c.Status = models.InvitationExpired
		if err := s.store.UpdateCollaborator(ctx, c); err != nil {
			return nil, storageError(err)
		}
		metrics.RecordInvitationsExpired(1)
		return nil, failedPrecondition("invitation has expired")
	}
	if err := s.checkCapacity(ctx, c.TripID); err != nil {
		return nil, err
	}

	c.Status = models.InvitationAccepted
	c.AcceptedAt = now.Unix()
	if err := s.store.UpdateCollaborator(ctx, c); err != nil {
		slog.Error("AcceptInvitation failed", "collaborator_id", c.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Invitation accepted", "collaborator_id", c.ID, "trip_id", c.TripID)

	return connect.NewResponse(&api.AcceptInvitationResponse{Collaborator: collaboratorToAPI(c, nil)}), nil
}

// RejectInvitation declines one of the caller's pending invitations.
func (s *CollaboratorService) RejectInvitation(ctx context.Context, req *connect.Request[api.RejectInvitationRequest]) (*connect.Response[api.RejectInvitationResponse], error) {
	slog.Info("RejectInvitation request received", "collaborator_id", req.Msg.CollaboratorID)

	c, err := s.pendingInvitation(ctx, req.Msg.CollaboratorID)
	if err != nil {
		return nil, err
	}

	c.Status = models.InvitationRejected
	if err := s.store.UpdateCollaborator(ctx, c); err != nil {
		slog.Error("RejectInvitation failed", "collaborator_id", c.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Invitation rejected", "collaborator_id", c.ID, "trip_id", c.TripID)

	return connect.NewResponse(&api.RejectInvitationResponse{Collaborator: collaboratorToAPI(c, nil)}), nil
}

// RemoveCollaborator removes a collaborator. Allowed for trip owners and for
// collaborators removing themselves.
func (s *CollaboratorService) RemoveCollaborator(ctx context.Context, req *connect.Request[api.RemoveCollaboratorRequest]) (*connect.Response[api.RemoveCollaboratorResponse], error) {
	slog.Info("RemoveCollaborator request received", "trip_id", req.Msg.TripID, "collaborator_id", req.Msg.CollaboratorID)

	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	trip, err := s.store.GetTrip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, storageError(err)
	}
	c, err := s.collaboratorOnTrip(ctx, trip.ID, req.Msg.CollaboratorID)
	if err != nil {
		return nil, err
	}

	if c.UserID != userID {
		role, err := roleOn(ctx, s.store, trip, userID)
		if err != nil {
			return nil, storageError(err)
		}
		if !role.AtLeast(models.RoleOwner) {
			return nil, permissionDenied("only trip owners can remove other collaborators")
		}
	}

	if err := s.store.DeleteCollaborator(ctx, c.ID); err != nil {
		slog.Error("RemoveCollaborator failed", "collaborator_id", c.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Collaborator removed", "trip_id", trip.ID, "collaborator_id", c.ID, "user_id", c.UserID)

	return connect.NewResponse(&api.RemoveCollaboratorResponse{}), nil
}

// UpdateRole changes an accepted collaborator's role. Requires owner access.
func (s *CollaboratorService) UpdateRole(ctx context.Context, req *connect.Request[api.UpdateRoleRequest]) (*connect.Response[api.UpdateRoleResponse], error) {
	slog.Info("UpdateRole request received", "trip_id", req.Msg.TripID, "collaborator_id", req.Msg.CollaboratorID, "role", req.Msg.Role)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleOwner)
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(req.Msg.Role)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	c, err := s.collaboratorOnTrip(ctx, trip.ID, req.Msg.CollaboratorID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.InvitationAccepted {
		return nil, failedPrecondition("only accepted collaborators have a role to update (status %s)", c.Status)
	}

	c.Role = role
	if err := s.store.UpdateCollaborator(ctx, c); err != nil {
		slog.Error("UpdateRole failed", "collaborator_id", c.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Collaborator role updated", "trip_id", trip.ID, "collaborator_id", c.ID, "role", role.String())

	return connect.NewResponse(&api.UpdateRoleResponse{Collaborator: collaboratorToAPI(c, nil)}), nil
}

// ListCollaborators lists every invitation on a trip, in any status.
func (s *CollaboratorService) ListCollaborators(ctx context.Context, req *connect.Request[api.ListCollaboratorsRequest]) (*connect.Response[api.ListCollaboratorsResponse], error) {
	slog.Info("ListCollaborators request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	collaborators, err := s.store.ListCollaboratorsByTrip(ctx, trip.ID)
	if err != nil {
		slog.Error("ListCollaborators failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	ids := []string{trip.UserID}
	for _, c := range collaborators {
		ids = append(ids, c.UserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, storageError(err)
	}

	res := &api.ListCollaboratorsResponse{
		OwnerID:       trip.UserID,
		Collaborators: make([]*api.Collaborator, len(collaborators)),
	}
	if owner, ok := users[trip.UserID]; ok {
		res.OwnerUsername = owner.Username
	}
	for i, c := range collaborators {
		res.Collaborators[i] = collaboratorToAPI(c, users)
	}

	return connect.NewResponse(res), nil
}

// ListInvitations lists the caller's invitations, optionally filtered by status.
func (s *CollaboratorService) ListInvitations(ctx context.Context, req *connect.Request[api.ListInvitationsRequest]) (*connect.Response[api.ListInvitationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListInvitations request received", "user_id", userID, "status", req.Msg.Status)

	status := models.InvitationStatus(req.Msg.Status)
	switch status {
	case "", models.InvitationPending, models.InvitationAccepted, models.InvitationRejected, models.InvitationExpired:
	default:
		return nil, invalidArgument("invalid status %q", req.Msg.Status)
	}

	invitations, err := s.store.ListInvitationsByUser(ctx, userID, status)
	if err != nil {
		slog.Error("ListInvitations failed", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	var inviterIDs []string
	for _, c := range invitations {
		inviterIDs = append(inviterIDs, c.InvitedBy)
	}
	inviters, err := s.store.GetUsersByIDs(ctx, inviterIDs)
	if err != nil {
		return nil, storageError(err)
	}

	out := make([]*api.Invitation, 0, len(invitations))
	for _, c := range invitations {
		trip, err := s.store.GetTrip(ctx, c.TripID)
		if err != nil {
			return nil, storageError(err)
		}
		inv := &api.Invitation{
			Collaborator: collaboratorToAPI(c, nil),
			TripTitle:    trip.Title,
			Destination:  trip.Destination,
		}
		if u, ok := inviters[c.InvitedBy]; ok {
			inv.InvitedByName = u.Username
		}
		out = append(out, inv)
	}

	return connect.NewResponse(&api.ListInvitationsResponse{Invitations: out}), nil
}

// pendingInvitation loads an invitation addressed to the caller that is still pending.
func (s *CollaboratorService) pendingInvitation(ctx context.Context, id string) (*models.Collaborator, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("collaborator_id required")
	}
	c, err := s.store.GetCollaborator(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if c.UserID != userID {
		return nil, permissionDenied("invitation belongs to another user")
	}
	if c.Status != models.InvitationPending {
		return nil, failedPrecondition("invitation is %s, not pending", c.Status)
	}
	return c, nil
}

// collaboratorOnTrip loads a collaborator and checks it belongs to tripID.
func (s *CollaboratorService) collaboratorOnTrip(ctx context.Context, tripID, id string) (*models.Collaborator, error) {
	if id == "" {
		return nil, invalidArgument("collaborator_id required")
	}
	c, err := s.store.GetCollaborator(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if c.TripID != tripID {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("collaborator not found on this trip"))
	}
	return c, nil
}

func (s *CollaboratorService) checkCapacity(ctx context.Context, tripID string) error {
	n, err := s.store.CountAcceptedCollaborators(ctx, tripID)
	if err != nil {
		return storageError(err)
	}
	if n >= s.maxPerTrip {
		return failedPrecondition("trip already has the maximum of %d collaborators", s.maxPerTrip)
	}
	return nil
}
