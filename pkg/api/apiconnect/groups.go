package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "splitledger.v1.GroupService"

// Procedure paths of the GroupService RPCs.
const (
	GroupServiceCreateGroupProcedure        = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure           = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure         = "/" + GroupServiceName + "/ListGroups"
	GroupServiceAddMemberProcedure          = "/" + GroupServiceName + "/AddMember"
	GroupServiceRemoveMemberProcedure       = "/" + GroupServiceName + "/RemoveMember"
	GroupServiceGetGroupBalancesProcedure   = "/" + GroupServiceName + "/GetGroupBalances"
	GroupServiceSuggestSettlementsProcedure = "/" + GroupServiceName + "/SuggestSettlements"
	GroupServiceGetCategoryTotalsProcedure  = "/" + GroupServiceName + "/GetCategoryTotals"
	GroupServiceUpdateGroupProcedure        = "/" + GroupServiceName + "/UpdateGroup"
	GroupServiceDeleteGroupProcedure        = "/" + GroupServiceName + "/DeleteGroup"
)

// GroupServiceClient is a client for the GroupService service.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
	SuggestSettlements(context.Context, *connect.Request[api.SuggestSettlementsRequest]) (*connect.Response[api.SuggestSettlementsResponse], error)
	GetCategoryTotals(context.Context, *connect.Request[api.GetCategoryTotalsRequest]) (*connect.Response[api.GetCategoryTotalsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
}

// NewGroupServiceClient constructs a client for the GroupService service. Requests use
// the JSON codec; opts may add interceptors or headers.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{withJSON()}, opts...)
	return &groupServiceClient{
		createGroup: connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](
			httpClient,
			baseURL+GroupServiceCreateGroupProcedure,
			opts...,
		),
		getGroup: connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](
			httpClient,
			baseURL+GroupServiceGetGroupProcedure,
			opts...,
		),
		listGroups: connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](
			httpClient,
			baseURL+GroupServiceListGroupsProcedure,
			opts...,
		),
		addMember: connect.NewClient[api.AddMemberRequest, api.AddMemberResponse](
			httpClient,
			baseURL+GroupServiceAddMemberProcedure,
			opts...,
		),
		removeMember: connect.NewClient[api.RemoveMemberRequest, api.RemoveMemberResponse](
			httpClient,
			baseURL+GroupServiceRemoveMemberProcedure,
			opts...,
		),
		getGroupBalances: connect.NewClient[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse](
			httpClient,
			baseURL+GroupServiceGetGroupBalancesProcedure,
			opts...,
		),
		suggestSettlements: connect.NewClient[api.SuggestSettlementsRequest, api.SuggestSettlementsResponse](
			httpClient,
			baseURL+GroupServiceSuggestSettlementsProcedure,
			opts...,
		),
		getCategoryTotals: connect.NewClient[api.GetCategoryTotalsRequest, api.GetCategoryTotalsResponse](
			httpClient,
			baseURL+GroupServiceGetCategoryTotalsProcedure,
			opts...,
		),
		updateGroup: connect.NewClient[api.UpdateGroupRequest, api.UpdateGroupResponse](
			httpClient,
			baseURL+GroupServiceUpdateGroupProcedure,
			opts...,
		),
		deleteGroup: connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](
			httpClient,
			baseURL+GroupServiceDeleteGroupProcedure,
			opts...,
		),
	}
}

type groupServiceClient struct {
	createGroup        *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup           *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups         *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	addMember          *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	removeMember       *connect.Client[api.RemoveMemberRequest, api.RemoveMemberResponse]
	getGroupBalances   *connect.Client[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse]
	suggestSettlements *connect.Client[api.SuggestSettlementsRequest, api.SuggestSettlementsResponse]
	getCategoryTotals  *connect.Client[api.GetCategoryTotalsRequest, api.GetCategoryTotalsResponse]
	updateGroup        *connect.Client[api.UpdateGroupRequest, api.UpdateGroupResponse]
	deleteGroup        *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *groupServiceClient) SuggestSettlements(ctx context.Context, req *connect.Request[api.SuggestSettlementsRequest]) (*connect.Response[api.SuggestSettlementsResponse], error) {
	return c.suggestSettlements.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetCategoryTotals(ctx context.Context, req *connect.Request[api.GetCategoryTotalsRequest]) (*connect.Response[api.GetCategoryTotalsResponse], error) {
	return c.getCategoryTotals.CallUnary(ctx, req)
}

func (c *groupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

// GroupServiceHandler is implemented by the server side of the GroupService service.
// GroupService manages groups, their members and group-level reports.
type GroupServiceHandler interface {
	// CreateGroup creates a group with the caller as admin.
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)

	// GetGroup returns a group the caller belongs to.
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)

	// ListGroups returns the caller's groups.
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)

	// AddMember adds a user to a group.
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)

	// RemoveMember removes a settled-up member from a group.
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)

	// GetGroupBalances returns every member's net balance.
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)

	// SuggestSettlements proposes transfers that settle the group.
	SuggestSettlements(context.Context, *connect.Request[api.SuggestSettlementsRequest]) (*connect.Response[api.SuggestSettlementsResponse], error)

	// GetCategoryTotals totals the group's expenses per category.
	GetCategoryTotals(context.Context, *connect.Request[api.GetCategoryTotalsRequest]) (*connect.Response[api.GetCategoryTotalsResponse], error)

	// UpdateGroup changes a group's name, description or category.
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)

	// DeleteGroup deletes a settled-up group with its history.
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{withJSON()}, opts...)
	createGroupHandler := connect.NewUnaryHandler(
		GroupServiceCreateGroupProcedure,
		svc.CreateGroup,
		opts...,
	)
	getGroupHandler := connect.NewUnaryHandler(
		GroupServiceGetGroupProcedure,
		svc.GetGroup,
		opts...,
	)
	listGroupsHandler := connect.NewUnaryHandler(
		GroupServiceListGroupsProcedure,
		svc.ListGroups,
		opts...,
	)
	addMemberHandler := connect.NewUnaryHandler(
		GroupServiceAddMemberProcedure,
		svc.AddMember,
		opts...,
	)
	removeMemberHandler := connect.NewUnaryHandler(
		GroupServiceRemoveMemberProcedure,
		svc.RemoveMember,
		opts...,
	)
	getGroupBalancesHandler := connect.NewUnaryHandler(
		GroupServiceGetGroupBalancesProcedure,
		svc.GetGroupBalances,
		opts...,
	)
	suggestSettlementsHandler := connect.NewUnaryHandler(
		GroupServiceSuggestSettlementsProcedure,
		svc.SuggestSettlements,
		opts...,
	)
	getCategoryTotalsHandler := connect.NewUnaryHandler(
		GroupServiceGetCategoryTotalsProcedure,
		svc.GetCategoryTotals,
		opts...,
	)
	updateGroupHandler := connect.NewUnaryHandler(
		GroupServiceUpdateGroupProcedure,
		svc.UpdateGroup,
		opts...,
	)
	deleteGroupHandler := connect.NewUnaryHandler(
		GroupServiceDeleteGroupProcedure,
		svc.DeleteGroup,
		opts...,
	)
	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceCreateGroupProcedure:
			createGroupHandler.ServeHTTP(w, r)
		case GroupServiceGetGroupProcedure:
			getGroupHandler.ServeHTTP(w, r)
		case GroupServiceListGroupsProcedure:
			listGroupsHandler.ServeHTTP(w, r)
		case GroupServiceAddMemberProcedure:
			addMemberHandler.ServeHTTP(w, r)
		case GroupServiceRemoveMemberProcedure:
			removeMemberHandler.ServeHTTP(w, r)
		case GroupServiceGetGroupBalancesProcedure:
			getGroupBalancesHandler.ServeHTTP(w, r)
		case GroupServiceSuggestSettlementsProcedure:
			suggestSettlementsHandler.ServeHTTP(w, r)
		case GroupServiceGetCategoryTotalsProcedure:
			getCategoryTotalsHandler.ServeHTTP(w, r)
		case GroupServiceUpdateGroupProcedure:
			updateGroupHandler.ServeHTTP(w, r)
		case GroupServiceDeleteGroupProcedure:
			deleteGroupHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedGroupServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedGroupServiceHandler struct{}

func (UnimplementedGroupServiceHandler) CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.CreateGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.GetGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.ListGroups is not implemented"))
}

func (UnimplementedGroupServiceHandler) AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.AddMember is not implemented"))
}

func (UnimplementedGroupServiceHandler) RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.RemoveMember is not implemented"))
}

func (UnimplementedGroupServiceHandler) GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.GetGroupBalances is not implemented"))
}

func (UnimplementedGroupServiceHandler) SuggestSettlements(context.Context, *connect.Request[api.SuggestSettlementsRequest]) (*connect.Response[api.SuggestSettlementsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.SuggestSettlements is not implemented"))
}

func (UnimplementedGroupServiceHandler) GetCategoryTotals(context.Context, *connect.Request[api.GetCategoryTotalsRequest]) (*connect.Response[api.GetCategoryTotalsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.GetCategoryTotals is not implemented"))
}

func (UnimplementedGroupServiceHandler) UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.UpdateGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.GroupService.DeleteGroup is not implemented"))
}
