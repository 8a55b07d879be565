package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

const testSecret = "test-secret-that-is-at-least-32-bytes"

// clients bundles the service clients of one authenticated user.
type clients struct {
	users       apiconnect.UserServiceClient
	groups      apiconnect.GroupServiceClient
	expenses    apiconnect.ExpenseServiceClient
	settlements apiconnect.SettlementServiceClient
	balances    apiconnect.BalanceServiceClient
}

type testServer struct {
	url      string
	verifier *auth.Verifier
}

// setupTestServer serves every service over httptest with a temp SQLite
// database and real bearer-token verification.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	host, err := ledger.New(store, ledger.Options{})
	if err != nil {
		t.Fatalf("failed to create ledger host: %v", err)
	}

	verifier := auth.NewVerifier(testSecret, "")
	opts := connect.WithInterceptors(middleware.RequireAuth(verifier))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewUserServiceHandler(NewUserService(store), opts))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(host, store, "USD"), opts))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(host, store), opts))
	mux.Handle(apiconnect.NewSettlementServiceHandler(NewSettlementService(host, store), opts))
	mux.Handle(apiconnect.NewBalanceServiceHandler(NewBalanceService(host, store), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return &testServer{url: server.URL, verifier: verifier}
}

// bearer attaches a fixed Authorization header to every request.
func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

func (s *testServer) clientsWithToken(token string) *clients {
	opt := connect.WithInterceptors(bearer(token))
	return &clients{
		users:       apiconnect.NewUserServiceClient(http.DefaultClient, s.url, opt),
		groups:      apiconnect.NewGroupServiceClient(http.DefaultClient, s.url, opt),
		expenses:    apiconnect.NewExpenseServiceClient(http.DefaultClient, s.url, opt),
		settlements: apiconnect.NewSettlementServiceClient(http.DefaultClient, s.url, opt),
		balances:    apiconnect.NewBalanceServiceClient(http.DefaultClient, s.url, opt),
	}
}

// as returns clients for userID, synced into the store.
func (s *testServer) as(t *testing.T, userID string) *clients {
	t.Helper()
	token, err := s.verifier.Issue(&models.User{ID: userID, Email: userID + "@example.com", Name: userID}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	c := s.clientsWithToken(token)
	if _, err := c.users.SyncUser(context.Background(), connect.NewRequest(&api.SyncUserRequest{})); err != nil {
		t.Fatalf("SyncUser(%s) failed: %v", userID, err)
	}
	return c
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}

// createTrip creates a USD group of alice (admin), bob and carol.
func createTrip(t *testing.T, alice *clients) *api.Group {
	t.Helper()
	resp, err := alice.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:      "Lisbon",
		Category:  "trip",
		MemberIds: []string{"bob", "carol"},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func createDinner(t *testing.T, c *clients, groupID string) *api.Expense {
	t.Helper()
	resp, err := c.expenses.CreateExpense(context.Background(), connect.NewRequest(&api.CreateExpenseRequest{
		GroupId:     groupID,
		Description: "Dinner",
		Total:       "100.00",
		Category:    "food",
		SplitType:   "equal",
		Participants: []*api.Participant{
			{UserId: "alice"},
			{UserId: "bob"},
			{UserId: "carol"},
		},
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func nets(t *testing.T, c *clients, groupID string) map[string]string {
	t.Helper()
	resp, err := c.groups.GetGroupBalances(context.Background(), connect.NewRequest(&api.GetGroupBalancesRequest{GroupId: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	out := make(map[string]string)
	for _, b := range resp.Msg.Balances {
		out[b.UserId] = b.Net
	}
	return out
}

func TestUserService(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	ctx := context.Background()

	resp, err := alice.users.GetProfile(ctx, connect.NewRequest(&api.GetProfileRequest{}))
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if resp.Msg.User.Email != "alice@example.com" || resp.Msg.User.Name != "alice" {
		t.Errorf("profile = %+v", resp.Msg.User)
	}

	sync, err := alice.users.SyncUser(ctx, connect.NewRequest(&api.SyncUserRequest{Name: "Alice A."}))
	if err != nil {
		t.Fatalf("SyncUser failed: %v", err)
	}
	if sync.Msg.User.Name != "Alice A." {
		t.Errorf("name = %q, want request name to win over claims", sync.Msg.User.Name)
	}
	if sync.Msg.User.CreatedAt != resp.Msg.User.CreatedAt {
		t.Errorf("CreatedAt changed on resync: %d -> %d", resp.Msg.User.CreatedAt, sync.Msg.User.CreatedAt)
	}

	_, err = alice.users.GetProfile(ctx, connect.NewRequest(&api.GetProfileRequest{UserId: "nobody"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestUnauthenticated(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()

	anon := srv.clientsWithToken("")
	_, err := anon.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	forged := srv.clientsWithToken("not-a-jwt")
	_, err = forged.users.SyncUser(ctx, connect.NewRequest(&api.SyncUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	other := auth.NewVerifier("another-secret-that-is-32-bytes-long", "")
	token, err := other.Issue(&models.User{ID: "mallory", Email: "m@example.com", Name: "m"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	_, err = srv.clientsWithToken(token).users.SyncUser(ctx, connect.NewRequest(&api.SyncUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestGroupService(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	bob := srv.as(t, "bob")
	srv.as(t, "carol")
	dave := srv.as(t, "dave")
	ctx := context.Background()

	group := createTrip(t, alice)
	if group.Id == "" {
		t.Error("expected non-empty group ID")
	}
	if group.Currency != "USD" {
		t.Errorf("currency: expected default USD, got %q", group.Currency)
	}
	if group.Category != "trip" {
		t.Errorf("category: expected trip, got %q", group.Category)
	}
	if len(group.Members) != 3 {
		t.Errorf("members: expected 3, got %d", len(group.Members))
	}

	get, err := bob.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if get.Msg.Group.Name != "Lisbon" {
		t.Errorf("name: expected Lisbon, got %q", get.Msg.Group.Name)
	}

	_, err = dave.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = alice.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupId: "nonexistent-id"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = alice.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{Name: "  "}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = alice.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{Name: "X", Currency: "XXX"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	list, err := dave.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(list.Msg.Groups) != 0 {
		t.Errorf("dave: expected 0 groups, got %d", len(list.Msg.Groups))
	}

	// Regular members cannot add admins.
	_, err = bob.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupId: group.Id, UserId: "dave", Role: "admin"}))
	assertCode(t, err, connect.CodePermissionDenied)

	added, err := bob.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupId: group.Id, UserId: "dave"}))
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if len(added.Msg.Group.Members) != 4 {
		t.Errorf("members after add: expected 4, got %d", len(added.Msg.Group.Members))
	}
	_, err = alice.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupId: group.Id, UserId: "dave"}))
	assertCode(t, err, connect.CodeAlreadyExists)

	list, err = dave.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(list.Msg.Groups) != 1 {
		t.Errorf("dave: expected 1 group, got %d", len(list.Msg.Groups))
	}

	// Only admins remove others; anyone may leave.
	_, err = bob.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupId: group.Id, UserId: "carol"}))
	assertCode(t, err, connect.CodePermissionDenied)

	removed, err := dave.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupId: group.Id, UserId: "dave"}))
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	for _, m := range removed.Msg.Group.Members {
		if m.UserId == "dave" && m.RemovedAt == 0 {
			t.Error("dave should be marked removed")
		}
	}
}

func TestExpenseAndSettlementFlow(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	bob := srv.as(t, "bob")
	carol := srv.as(t, "carol")
	ctx := context.Background()

	group := createTrip(t, alice)
	expense := createDinner(t, alice, group.Id)

	wantSplits := map[string]string{"alice": "33.34", "bob": "33.33", "carol": "33.33"}
	if len(expense.Splits) != 3 {
		t.Fatalf("splits: expected 3, got %d", len(expense.Splits))
	}
	for _, s := range expense.Splits {
		if s.Amount != wantSplits[s.UserId] {
			t.Errorf("split(%s) = %s, want %s", s.UserId, s.Amount, wantSplits[s.UserId])
		}
	}
	if expense.PayerId != "alice" {
		t.Errorf("payer: expected caller alice, got %q", expense.PayerId)
	}

	got := nets(t, bob, group.Id)
	want := map[string]string{"alice": "66.66", "bob": "-33.33", "carol": "-33.33"}
	for user, w := range want {
		if got[user] != w {
			t.Errorf("net(%s) = %s, want %s", user, got[user], w)
		}
	}

	suggest, err := carol.groups.SuggestSettlements(ctx, connect.NewRequest(&api.SuggestSettlementsRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("SuggestSettlements failed: %v", err)
	}
	wantTransfers := []api.Transfer{
		{From: "bob", To: "alice", Amount: "33.33"},
		{From: "carol", To: "alice", Amount: "33.33"},
	}
	if len(suggest.Msg.Transfers) != len(wantTransfers) {
		t.Fatalf("transfers: expected %d, got %d", len(wantTransfers), len(suggest.Msg.Transfers))
	}
	for i, w := range wantTransfers {
		if *suggest.Msg.Transfers[i] != w {
			t.Errorf("transfer %d = %+v, want %+v", i, *suggest.Msg.Transfers[i], w)
		}
	}

	created, err := bob.settlements.CreateSettlement(ctx, connect.NewRequest(&api.CreateSettlementRequest{
		GroupId: group.Id,
		PayerId: "bob",
		PayeeId: "alice",
		Amount:  "33.33",
	}))
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	if created.Msg.Settlement.Status != "pending" {
		t.Errorf("status: expected pending, got %q", created.Msg.Settlement.Status)
	}
	if got := nets(t, bob, group.Id)["bob"]; got != "-33.33" {
		t.Errorf("pending settlement changed bob's net to %s", got)
	}

	// carol is neither party nor admin.
	_, err = carol.settlements.CompleteSettlement(ctx, connect.NewRequest(&api.CompleteSettlementRequest{SettlementId: created.Msg.Settlement.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	completed, err := alice.settlements.CompleteSettlement(ctx, connect.NewRequest(&api.CompleteSettlementRequest{SettlementId: created.Msg.Settlement.Id}))
	if err != nil {
		t.Fatalf("CompleteSettlement failed: %v", err)
	}
	if completed.Msg.Settlement.Status != "completed" || completed.Msg.Settlement.CompletedAt == 0 {
		t.Errorf("settlement = %+v", completed.Msg.Settlement)
	}

	_, err = alice.settlements.RejectSettlement(ctx, connect.NewRequest(&api.RejectSettlementRequest{SettlementId: created.Msg.Settlement.Id}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	got = nets(t, alice, group.Id)
	want = map[string]string{"alice": "33.33", "bob": "0.00", "carol": "-33.33"}
	for user, w := range want {
		if got[user] != w {
			t.Errorf("net(%s) = %s, want %s", user, got[user], w)
		}
	}

	// The completed settlement froze the dinner.
	get, err := alice.expenses.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{ExpenseId: expense.Id}))
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if get.Msg.Expense.LockedBy != created.Msg.Settlement.Id {
		t.Errorf("LockedBy = %q, want %q", get.Msg.Expense.LockedBy, created.Msg.Settlement.Id)
	}
	_, err = alice.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseId: expense.Id}))
	assertCode(t, err, connect.CodeFailedPrecondition)
	_, err = alice.expenses.SplitEqually(ctx, connect.NewRequest(&api.SplitEquallyRequest{ExpenseId: expense.Id, UserIds: []string{"alice", "bob"}}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	// bob is settled up and may leave; carol still owes.
	_, err = alice.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupId: group.Id, UserId: "carol"}))
	assertCode(t, err, connect.CodeFailedPrecondition)
	if _, err := bob.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupId: group.Id, UserId: "bob"})); err != nil {
		t.Fatalf("RemoveMember(bob) failed: %v", err)
	}

	summary, err := alice.balances.GetBalanceSummary(ctx, connect.NewRequest(&api.GetBalanceSummaryRequest{}))
	if err != nil {
		t.Fatalf("GetBalanceSummary failed: %v", err)
	}
	if len(summary.Msg.Summaries) != 1 {
		t.Fatalf("summaries: expected 1, got %d", len(summary.Msg.Summaries))
	}
	s := summary.Msg.Summaries[0]
	if s.Currency != "USD" || s.TotalOwed != "0.00" || s.TotalOwedToYou != "33.33" || s.NetBalance != "33.33" {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Groups) != 1 || s.Groups[0].GroupName != "Lisbon" {
		t.Errorf("summary groups = %+v", s.Groups)
	}

	list, err := carol.settlements.ListSettlements(ctx, connect.NewRequest(&api.ListSettlementsRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(list.Msg.Settlements) != 1 {
		t.Errorf("settlements: expected 1, got %d", len(list.Msg.Settlements))
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	srv.as(t, "bob")
	srv.as(t, "carol")
	dave := srv.as(t, "dave")
	group := createTrip(t, alice)

	tests := []struct {
		name   string
		client *clients
		req    *api.CreateExpenseRequest
		want   connect.Code
	}{
		{
			name:   "exact splits do not add up",
			client: alice,
			req: &api.CreateExpenseRequest{
				Description: "Hotel", Total: "100.00", SplitType: "exact",
				Participants: []*api.Participant{{UserId: "alice", Amount: "50.00"}, {UserId: "bob", Amount: "49.00"}},
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name:   "percentages sum to 99",
			client: alice,
			req: &api.CreateExpenseRequest{
				Description: "Hotel", Total: "100.00", SplitType: "percentage",
				Participants: []*api.Participant{{UserId: "alice", Percentage: "50"}, {UserId: "bob", Percentage: "49"}},
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name:   "unknown split type",
			client: alice,
			req: &api.CreateExpenseRequest{
				Description: "Hotel", Total: "100.00", SplitType: "shares",
				Participants: []*api.Participant{{UserId: "alice"}},
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name:   "malformed total",
			client: alice,
			req: &api.CreateExpenseRequest{
				Description: "Hotel", Total: "ten", SplitType: "equal",
				Participants: []*api.Participant{{UserId: "alice"}},
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name:   "too many decimals",
			client: alice,
			req: &api.CreateExpenseRequest{
				Description: "Hotel", Total: "10.001", SplitType: "equal",
				Participants: []*api.Participant{{UserId: "alice"}},
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name:   "no participants",
			client: alice,
			req:    &api.CreateExpenseRequest{Description: "Hotel", Total: "10.00", SplitType: "equal"},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "participant outside the group",
			client: alice,
			req: &api.CreateExpenseRequest{
				Description: "Hotel", Total: "10.00", SplitType: "equal",
				Participants: []*api.Participant{{UserId: "alice"}, {UserId: "dave"}},
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name:   "caller outside the group",
			client: dave,
			req: &api.CreateExpenseRequest{
				Description: "Hotel", Total: "10.00", SplitType: "equal",
				Participants: []*api.Participant{{UserId: "alice"}},
			},
			want: connect.CodePermissionDenied,
		},
		{
			name:   "missing group",
			client: alice,
			req: &api.CreateExpenseRequest{
				GroupId: "nonexistent-id", Description: "Hotel", Total: "10.00", SplitType: "equal",
				Participants: []*api.Participant{{UserId: "alice"}},
			},
			want: connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.req.GroupId == "" {
				tt.req.GroupId = group.Id
			}
			_, err := tt.client.expenses.CreateExpense(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}

	// Nothing was written by the rejected requests.
	list, err := alice.expenses.ListExpenses(context.Background(), connect.NewRequest(&api.ListExpensesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list.Msg.Expenses) != 0 {
		t.Errorf("expected no expenses, got %d", len(list.Msg.Expenses))
	}
}

func TestExpenseEditing(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	bob := srv.as(t, "bob")
	carol := srv.as(t, "carol")
	ctx := context.Background()

	group := createTrip(t, alice)
	expense := createDinner(t, bob, group.Id)

	exact, err := bob.expenses.SplitExactly(ctx, connect.NewRequest(&api.SplitExactlyRequest{
		ExpenseId: expense.Id,
		Splits: []*api.Participant{
			{UserId: "alice", Amount: "20.00"},
			{UserId: "bob", Amount: "30.00"},
			{UserId: "carol", Amount: "50.00"},
		},
	}))
	if err != nil {
		t.Fatalf("SplitExactly failed: %v", err)
	}
	if exact.Msg.Expense.SplitType != "exact" || exact.Msg.Expense.Splits[2].Amount != "50.00" {
		t.Errorf("exact split = %+v", exact.Msg.Expense)
	}

	pct, err := bob.expenses.SplitByPercentage(ctx, connect.NewRequest(&api.SplitByPercentageRequest{
		ExpenseId: expense.Id,
		Splits: []*api.Participant{
			{UserId: "alice", Percentage: "33.33"},
			{UserId: "bob", Percentage: "33.33"},
			{UserId: "carol", Percentage: "33.34"},
		},
	}))
	if err != nil {
		t.Fatalf("SplitByPercentage failed: %v", err)
	}
	for i, want := range []string{"33.33", "33.33", "33.34"} {
		if got := pct.Msg.Expense.Splits[i].Amount; got != want {
			t.Errorf("percentage split %d = %s, want %s", i, got, want)
		}
	}

	// carol neither paid nor administers the group.
	_, err = carol.expenses.SplitEqually(ctx, connect.NewRequest(&api.SplitEquallyRequest{ExpenseId: expense.Id, UserIds: []string{"carol"}}))
	assertCode(t, err, connect.CodePermissionDenied)

	updated, err := alice.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseId:    expense.Id,
		Description:  "Late dinner",
		Total:        "90.00",
		Category:     "entertainment",
		PayerId:      "bob",
		SplitType:    "equal",
		Participants: []*api.Participant{{UserId: "alice"}, {UserId: "bob"}},
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if updated.Msg.Expense.Total != "90.00" || updated.Msg.Expense.Category != "entertainment" || len(updated.Msg.Expense.Splits) != 2 {
		t.Errorf("updated expense = %+v", updated.Msg.Expense)
	}

	totals, err := carol.groups.GetCategoryTotals(ctx, connect.NewRequest(&api.GetCategoryTotalsRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetCategoryTotals failed: %v", err)
	}
	if len(totals.Msg.Totals) != 1 || totals.Msg.Totals[0].Category != "entertainment" || totals.Msg.Totals[0].Percentage != "100.00" {
		t.Errorf("category totals = %+v", totals.Msg.Totals)
	}

	if _, err := bob.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseId: expense.Id})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	_, err = bob.expenses.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{ExpenseId: expense.Id}))
	assertCode(t, err, connect.CodeNotFound)

	for user, net := range nets(t, carol, group.Id) {
		if net != "0.00" {
			t.Errorf("net(%s) = %s after delete, want 0.00", user, net)
		}
	}
}

func TestUserService_ProfileAndLookup(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	srv.as(t, "bob")
	ctx := context.Background()

	updated, err := alice.users.UpdateProfile(ctx, connect.NewRequest(&api.UpdateProfileRequest{Name: "  Alice  ", ImageUrl: "https://img.example.com/a.png"}))
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Msg.User.Name != "Alice" || updated.Msg.User.ImageUrl != "https://img.example.com/a.png" {
		t.Errorf("profile = %+v", updated.Msg.User)
	}
	if updated.Msg.User.Email != "alice@example.com" {
		t.Errorf("email = %q, want it untouched", updated.Msg.User.Email)
	}

	_, err = alice.users.UpdateProfile(ctx, connect.NewRequest(&api.UpdateProfileRequest{Name: "   "}))
	assertCode(t, err, connect.CodeInvalidArgument)

	token, err := srv.verifier.Issue(&models.User{ID: "erin", Email: "erin@example.com", Name: "erin"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	_, err = srv.clientsWithToken(token).users.UpdateProfile(ctx, connect.NewRequest(&api.UpdateProfileRequest{Name: "Erin"}))
	assertCode(t, err, connect.CodeNotFound)

	lookup, err := alice.users.GetUsersByIds(ctx, connect.NewRequest(&api.GetUsersByIdsRequest{
		UserIds: []string{"bob", "nobody", "alice", "bob", ""},
	}))
	if err != nil {
		t.Fatalf("GetUsersByIds failed: %v", err)
	}
	if len(lookup.Msg.Users) != 2 || lookup.Msg.Users[0].Id != "bob" || lookup.Msg.Users[1].Id != "alice" {
		t.Errorf("users = %+v, want bob then alice", lookup.Msg.Users)
	}
	if lookup.Msg.Users[1].Name != "Alice" {
		t.Errorf("alice's name = %q, want the updated profile", lookup.Msg.Users[1].Name)
	}

	tooMany := make([]string, maxUserLookup+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("user-%d", i)
	}
	_, err = alice.users.GetUsersByIds(ctx, connect.NewRequest(&api.GetUsersByIdsRequest{UserIds: tooMany}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestGroupService_UpdateAndDelete(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	bob := srv.as(t, "bob")
	srv.as(t, "carol")
	ctx := context.Background()

	group := createTrip(t, alice)

	desc := "Spring break"
	updated, err := alice.groups.UpdateGroup(ctx, connect.NewRequest(&api.UpdateGroupRequest{
		GroupId:     group.Id,
		Name:        "Porto",
		Description: &desc,
	}))
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	g := updated.Msg.Group
	if g.Name != "Porto" || g.Description != "Spring break" || g.Category != "trip" || g.Currency != "USD" {
		t.Errorf("updated group = %+v", g)
	}
	if g.Version <= group.Version {
		t.Errorf("version = %d, want it above %d", g.Version, group.Version)
	}
	if len(g.Members) != 3 {
		t.Errorf("members: expected 3, got %d", len(g.Members))
	}

	_, err = bob.groups.UpdateGroup(ctx, connect.NewRequest(&api.UpdateGroupRequest{GroupId: group.Id, Name: "Mine"}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = alice.groups.UpdateGroup(ctx, connect.NewRequest(&api.UpdateGroupRequest{GroupId: group.Id, Category: "castle"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	expense := createDinner(t, alice, group.Id)

	_, err = bob.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = alice.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	if _, err := alice.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseId: expense.Id})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if _, err := alice.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupId: group.Id})); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	_, err = bob.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodeNotFound)

	list, err := bob.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(list.Msg.Groups) != 0 {
		t.Errorf("bob still lists %d groups", len(list.Msg.Groups))
	}
}

func createEqualExpense(t *testing.T, c *clients, groupID, description, total, category string, userIDs ...string) *api.Expense {
	t.Helper()
	participants := make([]*api.Participant, len(userIDs))
	for i, id := range userIDs {
		participants[i] = &api.Participant{UserId: id}
	}
	resp, err := c.expenses.CreateExpense(context.Background(), connect.NewRequest(&api.CreateExpenseRequest{
		GroupId:      groupID,
		Description:  description,
		Total:        total,
		Category:     category,
		SplitType:    "equal",
		Participants: participants,
	}))
	if err != nil {
		t.Fatalf("CreateExpense(%s) failed: %v", description, err)
	}
	return resp.Msg.Expense
}

func descriptions(expenses []*api.Expense) map[string]bool {
	out := make(map[string]bool, len(expenses))
	for _, e := range expenses {
		out[e.Description] = true
	}
	return out
}

func TestExpenseQueries(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	bob := srv.as(t, "bob")
	srv.as(t, "carol")
	dave := srv.as(t, "dave")
	ctx := context.Background()

	trip := createTrip(t, alice)
	flatResp, err := dave.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{
		Name:      "Flat",
		Category:  "home",
		MemberIds: []string{"bob"},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	flat := flatResp.Msg.Group

	createDinner(t, alice, trip.Id)
	createEqualExpense(t, bob, trip.Id, "Taxi", "30.00", "transport", "bob", "carol")
	createEqualExpense(t, dave, flat.Id, "Rent", "900.00", "utilities", "dave", "bob")

	t.Run("recent expenses cover the caller's groups", func(t *testing.T) {
		recent, err := alice.expenses.GetRecentExpenses(ctx, connect.NewRequest(&api.GetRecentExpensesRequest{}))
		if err != nil {
			t.Fatalf("GetRecentExpenses failed: %v", err)
		}
		got := descriptions(recent.Msg.Expenses)
		if len(got) != 2 || !got["Dinner"] || !got["Taxi"] {
			t.Errorf("alice's recent expenses = %v, want Dinner and Taxi", got)
		}

		one, err := bob.expenses.GetRecentExpenses(ctx, connect.NewRequest(&api.GetRecentExpensesRequest{Limit: 1}))
		if err != nil {
			t.Fatalf("GetRecentExpenses failed: %v", err)
		}
		if len(one.Msg.Expenses) != 1 {
			t.Errorf("limit 1 returned %d expenses", len(one.Msg.Expenses))
		}
	})

	t.Run("user expenses are the ones the caller shares", func(t *testing.T) {
		mine, err := alice.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{}))
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		if mine.Msg.Total != 1 || len(mine.Msg.Expenses) != 1 || mine.Msg.Expenses[0].Description != "Dinner" {
			t.Errorf("alice's expenses = %+v", mine.Msg)
		}
		if mine.Msg.Page != 1 || mine.Msg.PageSize != defaultPageSize {
			t.Errorf("paging = %d/%d, want 1/%d", mine.Msg.Page, mine.Msg.PageSize, defaultPageSize)
		}

		page1, err := bob.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{Page: 1, PageSize: 2}))
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		page2, err := bob.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{Page: 2, PageSize: 2}))
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		if page1.Msg.Total != 3 || page2.Msg.Total != 3 {
			t.Errorf("totals = %d, %d; want 3", page1.Msg.Total, page2.Msg.Total)
		}
		all := descriptions(append(page1.Msg.Expenses, page2.Msg.Expenses...))
		if len(page1.Msg.Expenses) != 2 || len(page2.Msg.Expenses) != 1 || len(all) != 3 {
			t.Errorf("pages = %d + %d expenses covering %v", len(page1.Msg.Expenses), len(page2.Msg.Expenses), all)
		}

		flatOnly, err := bob.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{GroupId: flat.Id}))
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		if flatOnly.Msg.Total != 1 || flatOnly.Msg.Expenses[0].Description != "Rent" {
			t.Errorf("flat expenses = %+v", flatOnly.Msg)
		}

		transport, err := bob.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{Category: "transport"}))
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		if transport.Msg.Total != 1 || transport.Msg.Expenses[0].Description != "Taxi" {
			t.Errorf("transport expenses = %+v", transport.Msg)
		}

		future := time.Now().Add(time.Hour).Unix()
		none, err := bob.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{StartDate: future}))
		if err != nil {
			t.Fatalf("GetUserExpenses failed: %v", err)
		}
		if none.Msg.Total != 0 {
			t.Errorf("expenses after %d = %d, want 0", future, none.Msg.Total)
		}

		_, err = dave.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{GroupId: trip.Id}))
		assertCode(t, err, connect.CodePermissionDenied)

		_, err = bob.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{StartDate: 20, EndDate: 10}))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = bob.expenses.GetUserExpenses(ctx, connect.NewRequest(&api.GetUserExpensesRequest{Category: "yachts"}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("search", func(t *testing.T) {
		tests := []struct {
			name string
			req  *api.SearchExpensesRequest
			want []string
		}{
			{"substring is case-insensitive", &api.SearchExpensesRequest{Query: "TA"}, []string{"Taxi"}},
			{"spans groups", &api.SearchExpensesRequest{Query: "n"}, []string{"Dinner", "Rent"}},
			{"minimum amount", &api.SearchExpensesRequest{Query: "n", MinAmount: "100.00"}, []string{"Dinner", "Rent"}},
			{"maximum amount", &api.SearchExpensesRequest{Query: "n", MaxAmount: "500"}, []string{"Dinner"}},
			{"amount range excludes all", &api.SearchExpensesRequest{Query: "n", MinAmount: "101", MaxAmount: "899.99"}, nil},
			{"group filter", &api.SearchExpensesRequest{Query: "n", GroupId: trip.Id}, []string{"Dinner"}},
			{"category filter", &api.SearchExpensesRequest{Query: "n", Category: "utilities"}, []string{"Rent"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, err := bob.expenses.SearchExpenses(ctx, connect.NewRequest(tt.req))
				if err != nil {
					t.Fatalf("SearchExpenses failed: %v", err)
				}
				got := descriptions(resp.Msg.Expenses)
				if len(got) != len(tt.want) {
					t.Fatalf("matched %v, want %v", got, tt.want)
				}
				for _, w := range tt.want {
					if !got[w] {
						t.Errorf("matched %v, missing %s", got, w)
					}
				}
			})
		}

		limited, err := bob.expenses.SearchExpenses(ctx, connect.NewRequest(&api.SearchExpensesRequest{Query: "n", Limit: 1}))
		if err != nil {
			t.Fatalf("SearchExpenses failed: %v", err)
		}
		if len(limited.Msg.Expenses) != 1 {
			t.Errorf("limit 1 returned %d expenses", len(limited.Msg.Expenses))
		}

		// alice does not belong to the flat.
		resp, err := alice.expenses.SearchExpenses(ctx, connect.NewRequest(&api.SearchExpensesRequest{Query: "rent"}))
		if err != nil {
			t.Fatalf("SearchExpenses failed: %v", err)
		}
		if len(resp.Msg.Expenses) != 0 {
			t.Errorf("alice found %d expenses of a group she is not in", len(resp.Msg.Expenses))
		}

		for _, bad := range []*api.SearchExpensesRequest{
			{Query: "  "},
			{Query: "n", MinAmount: "lots"},
			{Query: "n", MinAmount: "10", MaxAmount: "5"},
		} {
			_, err := bob.expenses.SearchExpenses(ctx, connect.NewRequest(bad))
			assertCode(t, err, connect.CodeInvalidArgument)
		}
	})

	t.Run("analytics", func(t *testing.T) {
		resp, err := bob.expenses.GetExpenseAnalytics(ctx, connect.NewRequest(&api.GetExpenseAnalyticsRequest{}))
		if err != nil {
			t.Fatalf("GetExpenseAnalytics failed: %v", err)
		}
		if resp.Msg.Timeframe != "month" || resp.Msg.Since == 0 {
			t.Errorf("window = %s since %d", resp.Msg.Timeframe, resp.Msg.Since)
		}
		if len(resp.Msg.Reports) != 1 {
			t.Fatalf("got %d reports, want 1", len(resp.Msg.Reports))
		}
		r := resp.Msg.Reports[0]
		if r.Currency != "USD" || r.TotalSpent != "1030.00" || r.Count != 3 {
			t.Errorf("report = %s %s x%d, want USD 1030.00 x3", r.Currency, r.TotalSpent, r.Count)
		}
		if len(r.CategoryBreakdown) != 3 || r.CategoryBreakdown[0].Category != "utilities" {
			t.Errorf("category breakdown = %+v", r.CategoryBreakdown)
		}
		if len(r.TrendData) == 0 {
			t.Error("expected trend data")
		}
		if len(r.TopExpenses) != 3 || r.TopExpenses[0].Description != "Rent" {
			t.Errorf("top expenses = %+v", r.TopExpenses)
		}

		week, err := bob.expenses.GetExpenseAnalytics(ctx, connect.NewRequest(&api.GetExpenseAnalyticsRequest{Timeframe: "week", GroupId: trip.Id}))
		if err != nil {
			t.Fatalf("GetExpenseAnalytics failed: %v", err)
		}
		if len(week.Msg.Reports) != 1 || week.Msg.Reports[0].TotalSpent != "130.00" {
			t.Errorf("trip report = %+v", week.Msg.Reports)
		}

		_, err = bob.expenses.GetExpenseAnalytics(ctx, connect.NewRequest(&api.GetExpenseAnalyticsRequest{Timeframe: "decade"}))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = alice.expenses.GetExpenseAnalytics(ctx, connect.NewRequest(&api.GetExpenseAnalyticsRequest{GroupId: flat.Id}))
		assertCode(t, err, connect.CodePermissionDenied)
	})
}
