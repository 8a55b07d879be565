package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// UserServiceName is the fully-qualified name of the UserService service.
const UserServiceName = "splitledger.v1.UserService"

// Procedure paths of the UserService RPCs.
const (
	UserServiceSyncUserProcedure      = "/" + UserServiceName + "/SyncUser"
	UserServiceGetProfileProcedure    = "/" + UserServiceName + "/GetProfile"
	UserServiceUpdateProfileProcedure = "/" + UserServiceName + "/UpdateProfile"
	UserServiceGetUsersByIdsProcedure = "/" + UserServiceName + "/GetUsersByIds"
)

// UserServiceClient is a client for the UserService service.
type UserServiceClient interface {
	SyncUser(context.Context, *connect.Request[api.SyncUserRequest]) (*connect.Response[api.SyncUserResponse], error)
	GetProfile(context.Context, *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error)
	GetUsersByIds(context.Context, *connect.Request[api.GetUsersByIdsRequest]) (*connect.Response[api.GetUsersByIdsResponse], error)
}

// NewUserServiceClient constructs a client for the UserService service. Requests use
// the JSON codec; opts may add interceptors or headers.
func NewUserServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) UserServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{withJSON()}, opts...)
	return &userServiceClient{
		syncUser: connect.NewClient[api.SyncUserRequest, api.SyncUserResponse](
			httpClient,
			baseURL+UserServiceSyncUserProcedure,
			opts...,
		),
		getProfile: connect.NewClient[api.GetProfileRequest, api.GetProfileResponse](
			httpClient,
			baseURL+UserServiceGetProfileProcedure,
			opts...,
		),
		updateProfile: connect.NewClient[api.UpdateProfileRequest, api.UpdateProfileResponse](
			httpClient,
			baseURL+UserServiceUpdateProfileProcedure,
			opts...,
		),
		getUsersByIds: connect.NewClient[api.GetUsersByIdsRequest, api.GetUsersByIdsResponse](
			httpClient,
			baseURL+UserServiceGetUsersByIdsProcedure,
			opts...,
		),
	}
}

type userServiceClient struct {
	syncUser      *connect.Client[api.SyncUserRequest, api.SyncUserResponse]
	getProfile    *connect.Client[api.GetProfileRequest, api.GetProfileResponse]
	updateProfile *connect.Client[api.UpdateProfileRequest, api.UpdateProfileResponse]
	getUsersByIds *connect.Client[api.GetUsersByIdsRequest, api.GetUsersByIdsResponse]
}

func (c *userServiceClient) SyncUser(ctx context.Context, req *connect.Request[api.SyncUserRequest]) (*connect.Response[api.SyncUserResponse], error) {
	return c.syncUser.CallUnary(ctx, req)
}

func (c *userServiceClient) GetProfile(ctx context.Context, req *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error) {
	return c.getProfile.CallUnary(ctx, req)
}

func (c *userServiceClient) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	return c.updateProfile.CallUnary(ctx, req)
}

func (c *userServiceClient) GetUsersByIds(ctx context.Context, req *connect.Request[api.GetUsersByIdsRequest]) (*connect.Response[api.GetUsersByIdsResponse], error) {
	return c.getUsersByIds.CallUnary(ctx, req)
}

// UserServiceHandler is implemented by the server side of the UserService service.
// UserService manages the synced identity-provider accounts.
type UserServiceHandler interface {
	// SyncUser creates or refreshes the caller from their token claims.
	SyncUser(context.Context, *connect.Request[api.SyncUserRequest]) (*connect.Response[api.SyncUserResponse], error)

	// GetProfile returns a user's profile.
	GetProfile(context.Context, *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error)

	// UpdateProfile changes the caller's display name or avatar.
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error)

	// GetUsersByIds looks up several users at once.
	GetUsersByIds(context.Context, *connect.Request[api.GetUsersByIdsRequest]) (*connect.Response[api.GetUsersByIdsResponse], error)
}

// NewUserServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewUserServiceHandler(svc UserServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{withJSON()}, opts...)
	syncUserHandler := connect.NewUnaryHandler(
		UserServiceSyncUserProcedure,
		svc.SyncUser,
		opts...,
	)
	getProfileHandler := connect.NewUnaryHandler(
		UserServiceGetProfileProcedure,
		svc.GetProfile,
		opts...,
	)
	updateProfileHandler := connect.NewUnaryHandler(
		UserServiceUpdateProfileProcedure,
		svc.UpdateProfile,
		opts...,
	)
	getUsersByIdsHandler := connect.NewUnaryHandler(
		UserServiceGetUsersByIdsProcedure,
		svc.GetUsersByIds,
		opts...,
	)
	return "/" + UserServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case UserServiceSyncUserProcedure:
			syncUserHandler.ServeHTTP(w, r)
		case UserServiceGetProfileProcedure:
			getProfileHandler.ServeHTTP(w, r)
		case UserServiceUpdateProfileProcedure:
			updateProfileHandler.ServeHTTP(w, r)
		case UserServiceGetUsersByIdsProcedure:
			getUsersByIdsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedUserServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedUserServiceHandler struct{}

func (UnimplementedUserServiceHandler) SyncUser(context.Context, *connect.Request[api.SyncUserRequest]) (*connect.Response[api.SyncUserResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.UserService.SyncUser is not implemented"))
}

func (UnimplementedUserServiceHandler) GetProfile(context.Context, *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.UserService.GetProfile is not implemented"))
}

func (UnimplementedUserServiceHandler) UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.UserService.UpdateProfile is not implemented"))
}

func (UnimplementedUserServiceHandler) GetUsersByIds(context.Context, *connect.Request[api.GetUsersByIdsRequest]) (*connect.Response[api.GetUsersByIdsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.UserService.GetUsersByIds is not implemented"))
}
