package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	host            *ledger.Host
	store           storage.Store
	defaultCurrency string
}

// NewGroupService creates a GroupService. Groups created without a currency
// use defaultCurrency.
func NewGroupService(host *ledger.Host, store storage.Store, defaultCurrency string) *GroupService {
	return &GroupService{host: host, store: store, defaultCurrency: defaultCurrency}
}

// viewGroup loads a group the caller belongs to or used to belong to.
func viewGroup(ctx context.Context, store storage.Store, userID, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, invalidArgument("group_id required")
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, ok := group.Member(userID); !ok {
		return nil, fmt.Errorf("%w: %s in group %s", ledger.ErrNotMember, userID, groupID)
	}
	return group, nil
}

// CreateGroup creates a new group with the caller as its admin.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	in := ledger.GroupInput{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		Currency:    req.Msg.Currency,
		MemberIDs:   req.Msg.MemberIds,
	}
	if in.Currency == "" {
		in.Currency = s.defaultCurrency
	}
	if req.Msg.Category != "" {
		if in.Category, err = models.ParseGroupCategory(req.Msg.Category); err != nil {
			return nil, invalidArgument("%v", err)
		}
	}

	group, err := s.host.CreateGroup(ctx, userID, in)
	if err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}

	slog.InfoContext(ctx, "Group created", "group_id", group.ID, "members_count", len(group.Members))

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroup", err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, "ListGroups", err)
	}

	apiGroups := make([]*api.Group, len(groups))
	for i, group := range groups {
		apiGroups[i] = toAPIGroup(group)
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: apiGroups}), nil
}

// UpdateGroup edits a group's details. Only admins may call it.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupId == "" {
		return nil, invalidArgument("group_id required")
	}

	in := ledger.GroupUpdate{Name: req.Msg.Name, Description: req.Msg.Description}
	if req.Msg.Category != "" {
		if in.Category, err = models.ParseGroupCategory(req.Msg.Category); err != nil {
			return nil, invalidArgument("%v", err)
		}
	}

	group, err := s.host.UpdateGroup(ctx, userID, req.Msg.GroupId, in)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateGroup", err)
	}

	slog.InfoContext(ctx, "Group updated", "group_id", group.ID)

	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(group)}), nil
}

// DeleteGroup deletes a settled-up group. Only admins may call it.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupId == "" {
		return nil, invalidArgument("group_id required")
	}

	if err := s.host.DeleteGroup(ctx, userID, req.Msg.GroupId); err != nil {
		return nil, toConnectError(ctx, "DeleteGroup", err)
	}

	slog.InfoContext(ctx, "Group deleted", "group_id", req.Msg.GroupId)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember adds a user to a group and returns the updated group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupId == "" || req.Msg.UserId == "" {
		return nil, invalidArgument("group_id and user_id required")
	}
	var role models.GroupRole
	if req.Msg.Role != "" {
		if role, err = models.ParseGroupRole(req.Msg.Role); err != nil {
			return nil, invalidArgument("%v", err)
		}
	}

	if err := s.host.AddMember(ctx, userID, req.Msg.GroupId, req.Msg.UserId, role); err != nil {
		return nil, toConnectError(ctx, "AddMember", err)
	}
	group, err := s.store.GetGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "AddMember", err)
	}

	slog.InfoContext(ctx, "Member added", "group_id", group.ID, "member_id", req.Msg.UserId)

	return connect.NewResponse(&api.AddMemberResponse{Group: toAPIGroup(group)}), nil
}

// RemoveMember removes a settled-up member from a group.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupId == "" || req.Msg.UserId == "" {
		return nil, invalidArgument("group_id and user_id required")
	}

	if err := s.host.RemoveMember(ctx, userID, req.Msg.GroupId, req.Msg.UserId); err != nil {
		return nil, toConnectError(ctx, "RemoveMember", err)
	}
	group, err := s.store.GetGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "RemoveMember", err)
	}

	slog.InfoContext(ctx, "Member removed", "group_id", group.ID, "member_id", req.Msg.UserId)

	return connect.NewResponse(&api.RemoveMemberResponse{Group: toAPIGroup(group)}), nil
}

// GetGroupBalances returns every member's net balance in the group.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId); err != nil {
		return nil, toConnectError(ctx, "GetGroupBalances", err)
	}

	result, err := s.host.Balances(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroupBalances", err)
	}

	balances := make([]*api.MemberBalance, len(result.Balances))
	for i, b := range result.Balances {
		balances[i] = &api.MemberBalance{
			UserId:    b.UserID,
			Net:       b.Net.Decimal(),
			TotalPaid: b.TotalPaid.Decimal(),
			TotalOwed: b.TotalOwed.Decimal(),
		}
	}
	var excluded []*api.ExcludedSettlement
	for _, ex := range result.Excluded {
		excluded = append(excluded, &api.ExcludedSettlement{SettlementId: ex.SettlementID, Reason: ex.Reason})
	}
	var excludedExpenses []*api.ExcludedExpense
	for _, ex := range result.ExcludedExpenses {
		excludedExpenses = append(excludedExpenses, &api.ExcludedExpense{ExpenseId: ex.ExpenseID, Reason: ex.Reason})
	}

	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Currency:         result.Currency,
		Balances:         balances,
		Excluded:         excluded,
		ExcludedExpenses: excludedExpenses,
	}), nil
}

// SuggestSettlements proposes the transfers that would settle the group.
func (s *GroupService) SuggestSettlements(ctx context.Context, req *connect.Request[api.SuggestSettlementsRequest]) (*connect.Response[api.SuggestSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "SuggestSettlements", err)
	}

	transfers, err := s.host.SuggestSettlements(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, "SuggestSettlements", err)
	}

	out := make([]*api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = &api.Transfer{From: t.From, To: t.To, Amount: t.Amount.Decimal()}
	}
	return connect.NewResponse(&api.SuggestSettlementsResponse{
		Currency:  group.Currency,
		Transfers: out,
	}), nil
}

// GetCategoryTotals totals the group's expenses per category.
func (s *GroupService) GetCategoryTotals(ctx context.Context, req *connect.Request[api.GetCategoryTotalsRequest]) (*connect.Response[api.GetCategoryTotalsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "GetCategoryTotals", err)
	}

	expenses, err := s.store.ListExpenses(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, "GetCategoryTotals", err)
	}

	totals, err := calculator.CategoryTotals(group.Currency, expenses)
	if err != nil {
		return nil, toConnectError(ctx, "GetCategoryTotals", err)
	}
	return connect.NewResponse(&api.GetCategoryTotalsResponse{
		Currency: group.Currency,
		Totals:   toAPICategoryTotals(totals),
	}), nil
}
