package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// UserService implements the Connect UserService.
type UserService struct {
	apiconnect.UnimplementedUserServiceHandler
	store storage.Store
}

// NewUserService creates a new UserService with the given storage backend.
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// SyncUser upserts the caller from their verified token claims. Explicit
// request fields win over the claims.
func (s *UserService) SyncUser(ctx context.Context, req *connect.Request[api.SyncUserRequest]) (*connect.Response[api.SyncUserResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: userID}
	if claims := middleware.GetClaims(ctx); claims != nil {
		user.Email = claims.Email
		user.Name = claims.Name
		user.ImageURL = claims.Picture
	}
	if name := strings.TrimSpace(req.Msg.Name); name != "" {
		user.Name = name
	}
	if req.Msg.ImageUrl != "" {
		user.ImageURL = req.Msg.ImageUrl
	}
	if user.Name == "" {
		user.Name = user.Email
	}
	if user.Name == "" {
		return nil, invalidArgument("name is required when the token carries none")
	}

	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, toConnectError(ctx, "SyncUser", err)
	}

	slog.InfoContext(ctx, "User synced", "user_id", user.ID)

	return connect.NewResponse(&api.SyncUserResponse{User: toAPIUser(user)}), nil
}

// GetProfile returns the requested user, or the caller when no ID is given.
func (s *UserService) GetProfile(ctx context.Context, req *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.UserId != "" {
		userID = req.Msg.UserId
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, "GetProfile", err)
	}
	return connect.NewResponse(&api.GetProfileResponse{User: toAPIUser(user)}), nil
}

// UpdateProfile changes the caller's display name or avatar. The caller must
// have synced first.
func (s *UserService) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" && req.Msg.ImageUrl == "" {
		return nil, invalidArgument("nothing to update")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateProfile", err)
	}
	if name != "" {
		user.Name = name
	}
	if req.Msg.ImageUrl != "" {
		user.ImageURL = req.Msg.ImageUrl
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, toConnectError(ctx, "UpdateProfile", err)
	}

	slog.InfoContext(ctx, "Profile updated", "user_id", user.ID)

	return connect.NewResponse(&api.UpdateProfileResponse{User: toAPIUser(user)}), nil
}

// maxUserLookup caps the IDs accepted by GetUsersByIds.
const maxUserLookup = 100

// GetUsersByIds returns the known users among the requested IDs, in request
// order. Duplicates and unknown IDs are skipped.
func (s *UserService) GetUsersByIds(ctx context.Context, req *connect.Request[api.GetUsersByIdsRequest]) (*connect.Response[api.GetUsersByIdsResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	if len(req.Msg.UserIds) > maxUserLookup {
		return nil, invalidArgument("at most %d user_ids per request", maxUserLookup)
	}

	ids := make([]string, 0, len(req.Msg.UserIds))
	seen := make(map[string]bool, len(req.Msg.UserIds))
	for _, id := range req.Msg.UserIds {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	found, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, toConnectError(ctx, "GetUsersByIds", err)
	}
	users := make([]*api.User, 0, len(found))
	for _, id := range ids {
		if user, ok := found[id]; ok {
			users = append(users, toAPIUser(user))
		}
	}
	return connect.NewResponse(&api.GetUsersByIdsResponse{Users: users}), nil
}
