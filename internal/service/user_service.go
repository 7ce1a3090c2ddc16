package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/internal/storage"
	"github.com/mmynk/tripwiser/pkg/api"
)

// UserService implements the UserService RPC interface. Accounts are created
// out of band; this service only serves the caller's own profile.
type UserService struct {
	store  storage.UserStore
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store storage.UserStore, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// Handler returns the mount path and handler serving this service.
func (s *UserService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	m := rpc.NewServiceMux(api.UserServiceName, opts...)
	rpc.Handle(m, "GetProfile", s.GetProfile)
	rpc.Handle(m, "DeleteProfile", s.DeleteProfile)
	return m.Handler()
}

// GetProfile returns the currently authenticated user's information.
func (s *UserService) GetProfile(ctx context.Context, req *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetProfile request", "user_id", userID)

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("GetProfile failed", "user_id", userID, "error", err)
		return nil, storageError(err)
	}
	return connect.NewResponse(&api.GetProfileResponse{User: userToAPI(user)}), nil
}

// DeleteProfile deletes the caller's account along with every trip they created.
func (s *UserService) DeleteProfile(ctx context.Context, req *connect.Request[api.DeleteProfileRequest]) (*connect.Response[api.DeleteProfileResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeleteProfile request", "user_id", userID)

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		s.logger.Error("DeleteProfile failed", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	s.logger.Info("User deleted", "user_id", userID)
	return connect.NewResponse(&api.DeleteProfileResponse{}), nil
}
