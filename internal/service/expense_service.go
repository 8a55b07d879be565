package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Paging limits of the cross-group expense queries.
const (
	defaultRecentLimit = 10
	defaultPageSize    = 20
	defaultSearchLimit = 50
	maxPageSize        = 100
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	apiconnect.UnimplementedExpenseServiceHandler
	host  *ledger.Host
	store storage.Store
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(host *ledger.Host, store storage.Store) *ExpenseService {
	return &ExpenseService{host: host, store: store}
}

// expenseInput parses the wire fields shared by create and update. Amounts
// are read in the group's currency.
func expenseInput(currency, description, total, category, payerID, splitType string, participants []*api.Participant) (ledger.ExpenseInput, error) {
	var in ledger.ExpenseInput
	amount, err := money.Parse(total, currency)
	if err != nil {
		return in, invalidArgument("total: %v", err)
	}
	st, err := parseSplitType(splitType)
	if err != nil {
		return in, err
	}
	cat, err := parseExpenseCategory(category)
	if err != nil {
		return in, err
	}
	ps, err := parseParticipants(currency, participants)
	if err != nil {
		return in, err
	}
	return ledger.ExpenseInput{
		Description:  description,
		Total:        amount,
		Category:     cat,
		PayerID:      payerID,
		SplitType:    st,
		Participants: ps,
	}, nil
}

// CreateExpense records an expense and its splits.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "CreateExpense request received",
		"group_id", req.Msg.GroupId,
		"split_type", req.Msg.SplitType,
		"participants_count", len(req.Msg.Participants),
	)

	group, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "CreateExpense", err)
	}
	in, err := expenseInput(group.Currency, req.Msg.Description, req.Msg.Total, req.Msg.Category,
		req.Msg.PayerId, req.Msg.SplitType, req.Msg.Participants)
	if err != nil {
		return nil, err
	}
	in.GroupID = group.ID

	expense, err := s.host.CreateExpense(ctx, userID, in)
	if err != nil {
		return nil, toConnectError(ctx, "CreateExpense", err)
	}

	slog.InfoContext(ctx, "Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// viewExpense loads an expense of a group the caller belongs to.
func (s *ExpenseService) viewExpense(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	if expenseID == "" {
		return nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if _, err := viewGroup(ctx, s.store, userID, expense.GroupID); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.viewExpense(ctx, userID, req.Msg.ExpenseId)
	if err != nil {
		return nil, toConnectError(ctx, "GetExpense", err)
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId); err != nil {
		return nil, toConnectError(ctx, "ListExpenses", err)
	}

	expenses, err := s.store.ListExpenses(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "ListExpenses", err)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: toAPIExpenses(expenses)}), nil
}

// UpdateExpense replaces an unlocked expense's fields and splits.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.viewExpense(ctx, userID, req.Msg.ExpenseId)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateExpense", err)
	}
	in, err := expenseInput(existing.Total.Currency, req.Msg.Description, req.Msg.Total, req.Msg.Category,
		req.Msg.PayerId, req.Msg.SplitType, req.Msg.Participants)
	if err != nil {
		return nil, err
	}

	expense, err := s.host.UpdateExpense(ctx, userID, existing.ID, in)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateExpense", err)
	}

	slog.InfoContext(ctx, "Expense updated", "expense_id", expense.ID)

	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ExpenseId == "" {
		return nil, invalidArgument("expense_id required")
	}

	if err := s.host.DeleteExpense(ctx, userID, req.Msg.ExpenseId); err != nil {
		return nil, toConnectError(ctx, "DeleteExpense", err)
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", req.Msg.ExpenseId)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// SplitEqually resplits an expense evenly between the given users.
func (s *ExpenseService) SplitEqually(ctx context.Context, req *connect.Request[api.SplitEquallyRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	participants := make([]*api.Participant, len(req.Msg.UserIds))
	for i, id := range req.Msg.UserIds {
		participants[i] = &api.Participant{UserId: id}
	}
	return s.resplit(ctx, req.Msg.ExpenseId, models.SplitEqual, participants)
}

// SplitExactly resplits an expense with explicit amounts.
func (s *ExpenseService) SplitExactly(ctx context.Context, req *connect.Request[api.SplitExactlyRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return s.resplit(ctx, req.Msg.ExpenseId, models.SplitExact, req.Msg.Splits)
}

// SplitByPercentage resplits an expense by percentages summing to 100.
func (s *ExpenseService) SplitByPercentage(ctx context.Context, req *connect.Request[api.SplitByPercentageRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return s.resplit(ctx, req.Msg.ExpenseId, models.SplitPercentage, req.Msg.Splits)
}

func (s *ExpenseService) resplit(ctx context.Context, expenseID string, splitType models.SplitType, participants []*api.Participant) (*connect.Response[api.SplitExpenseResponse], error) {
	op := fmt.Sprintf("Split (%s)", splitType)
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.viewExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, toConnectError(ctx, op, err)
	}
	ps, err := parseParticipants(existing.Total.Currency, participants)
	if err != nil {
		return nil, err
	}

	expense, err := s.host.Resplit(ctx, userID, existing.ID, splitType, ps)
	if err != nil {
		return nil, toConnectError(ctx, op, err)
	}

	slog.InfoContext(ctx, "Expense resplit", "expense_id", expense.ID, "split_type", splitType.String())

	return connect.NewResponse(&api.SplitExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// clampLimit applies a default to a non-positive limit and caps it at maxPageSize.
func clampLimit(n int32, def int) int {
	if n <= 0 {
		return def
	}
	return min(int(n), maxPageSize)
}

func toAPIExpenses(expenses []*models.Expense) []*api.Expense {
	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return out
}

// scopedQuery starts a query over the caller's groups, narrowed to one group
// when groupID is set.
func (s *ExpenseService) scopedQuery(ctx context.Context, userID, groupID, category string) (storage.ExpenseQuery, error) {
	q := storage.ExpenseQuery{MemberID: userID}
	if groupID != "" {
		if _, err := viewGroup(ctx, s.store, userID, groupID); err != nil {
			return q, err
		}
		q.GroupID = groupID
	}
	cat, err := parseExpenseCategory(category)
	if err != nil {
		return q, err
	}
	q.Category = cat
	return q, nil
}

// GetRecentExpenses returns the newest expenses across the caller's groups.
func (s *ExpenseService) GetRecentExpenses(ctx context.Context, req *connect.Request[api.GetRecentExpensesRequest]) (*connect.Response[api.GetRecentExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expenses, _, err := s.store.SearchExpenses(ctx, storage.ExpenseQuery{
		MemberID: userID,
		Limit:    clampLimit(req.Msg.Limit, defaultRecentLimit),
	})
	if err != nil {
		return nil, toConnectError(ctx, "GetRecentExpenses", err)
	}
	return connect.NewResponse(&api.GetRecentExpensesResponse{Expenses: toAPIExpenses(expenses)}), nil
}

// GetUserExpenses pages through the expenses the caller paid or shares in,
// newest first.
func (s *ExpenseService) GetUserExpenses(ctx context.Context, req *connect.Request[api.GetUserExpensesRequest]) (*connect.Response[api.GetUserExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.StartDate != 0 && req.Msg.EndDate != 0 && req.Msg.StartDate > req.Msg.EndDate {
		return nil, invalidArgument("start_date is after end_date")
	}

	q, err := s.scopedQuery(ctx, userID, req.Msg.GroupId, req.Msg.Category)
	if err != nil {
		return nil, toConnectError(ctx, "GetUserExpenses", err)
	}
	page := max(int(req.Msg.Page), 1)
	pageSize := clampLimit(req.Msg.PageSize, defaultPageSize)
	q.InvolvedID = userID
	q.Since = req.Msg.StartDate
	q.Until = req.Msg.EndDate
	q.Limit = pageSize
	q.Offset = (page - 1) * pageSize

	expenses, total, err := s.store.SearchExpenses(ctx, q)
	if err != nil {
		return nil, toConnectError(ctx, "GetUserExpenses", err)
	}
	return connect.NewResponse(&api.GetUserExpensesResponse{
		Expenses: toAPIExpenses(expenses),
		Total:    int32(total),
		Page:     int32(page),
		PageSize: int32(pageSize),
	}), nil
}

// parseBound reads an optional decimal amount bound.
func parseBound(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, invalidArgument("%s: invalid amount %q", name, s)
	}
	return &d, nil
}

// SearchExpenses matches a description substring across the caller's groups.
// The amount range is compared in each expense's own currency.
func (s *ExpenseService) SearchExpenses(ctx context.Context, req *connect.Request[api.SearchExpensesRequest]) (*connect.Response[api.SearchExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Msg.Query)
	if text == "" {
		return nil, invalidArgument("query required")
	}
	lo, err := parseBound("min_amount", req.Msg.MinAmount)
	if err != nil {
		return nil, err
	}
	hi, err := parseBound("max_amount", req.Msg.MaxAmount)
	if err != nil {
		return nil, err
	}
	if lo != nil && hi != nil && lo.GreaterThan(*hi) {
		return nil, invalidArgument("min_amount is greater than max_amount")
	}

	q, err := s.scopedQuery(ctx, userID, req.Msg.GroupId, req.Msg.Category)
	if err != nil {
		return nil, toConnectError(ctx, "SearchExpenses", err)
	}
	q.Text = text

	expenses, _, err := s.store.SearchExpenses(ctx, q)
	if err != nil {
		return nil, toConnectError(ctx, "SearchExpenses", err)
	}

	limit := clampLimit(req.Msg.Limit, defaultSearchLimit)
	matched := make([]*models.Expense, 0, min(len(expenses), limit))
	for _, e := range expenses {
		if len(matched) == limit {
			break
		}
		total := decimal.New(e.Total.Amount, -money.Digits(e.Total.Currency))
		if (lo != nil && total.LessThan(*lo)) || (hi != nil && total.GreaterThan(*hi)) {
			continue
		}
		matched = append(matched, e)
	}

	slog.DebugContext(ctx, "Expenses searched", "query", text, "candidates", len(expenses), "matched", len(matched))

	return connect.NewResponse(&api.SearchExpensesResponse{Expenses: toAPIExpenses(matched)}), nil
}

// GetExpenseAnalytics reports the caller's spending over a recent timeframe,
// one report per currency.
func (s *ExpenseService) GetExpenseAnalytics(ctx context.Context, req *connect.Request[api.GetExpenseAnalyticsRequest]) (*connect.Response[api.GetExpenseAnalyticsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	tf, err := calculator.ParseTimeframe(req.Msg.Timeframe)
	if err != nil {
		return nil, invalidArgument("%v", err)
	}

	q, err := s.scopedQuery(ctx, userID, req.Msg.GroupId, "")
	if err != nil {
		return nil, toConnectError(ctx, "GetExpenseAnalytics", err)
	}
	q.InvolvedID = userID
	q.Since = tf.Since(time.Now()).Unix()

	expenses, _, err := s.store.SearchExpenses(ctx, q)
	if err != nil {
		return nil, toConnectError(ctx, "GetExpenseAnalytics", err)
	}
	reports, err := calculator.ExpenseAnalytics(tf, expenses)
	if err != nil {
		return nil, toConnectError(ctx, "GetExpenseAnalytics", err)
	}

	out := make([]*api.ExpenseAnalytics, len(reports))
	for i, r := range reports {
		trend := make([]*api.TrendPoint, len(r.Trend))
		for j, p := range r.Trend {
			trend[j] = &api.TrendPoint{Start: p.Start, Total: p.Total.Decimal(), Count: int32(p.Count)}
		}
		out[i] = &api.ExpenseAnalytics{
			Currency:          r.Currency,
			TotalSpent:        r.TotalSpent.Decimal(),
			Count:             int32(r.Count),
			CategoryBreakdown: toAPICategoryTotals(r.Categories),
			TrendData:         trend,
			TopExpenses:       toAPIExpenses(r.Top),
		}
	}
	return connect.NewResponse(&api.GetExpenseAnalyticsResponse{
		Timeframe: tf.String(),
		Since:     q.Since,
		Reports:   out,
	}), nil
}
