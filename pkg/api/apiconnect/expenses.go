package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "splitledger.v1.ExpenseService"

// Procedure paths of the ExpenseService RPCs.
const (
	ExpenseServiceCreateExpenseProcedure       = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceGetExpenseProcedure          = "/" + ExpenseServiceName + "/GetExpense"
	ExpenseServiceListExpensesProcedure        = "/" + ExpenseServiceName + "/ListExpenses"
	ExpenseServiceUpdateExpenseProcedure       = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure       = "/" + ExpenseServiceName + "/DeleteExpense"
	ExpenseServiceSplitEquallyProcedure        = "/" + ExpenseServiceName + "/SplitEqually"
	ExpenseServiceSplitExactlyProcedure        = "/" + ExpenseServiceName + "/SplitExactly"
	ExpenseServiceSplitByPercentageProcedure   = "/" + ExpenseServiceName + "/SplitByPercentage"
	ExpenseServiceGetRecentExpensesProcedure   = "/" + ExpenseServiceName + "/GetRecentExpenses"
	ExpenseServiceGetUserExpensesProcedure     = "/" + ExpenseServiceName + "/GetUserExpenses"
	ExpenseServiceSearchExpensesProcedure      = "/" + ExpenseServiceName + "/SearchExpenses"
	ExpenseServiceGetExpenseAnalyticsProcedure = "/" + ExpenseServiceName + "/GetExpenseAnalytics"
)

// ExpenseServiceClient is a client for the ExpenseService service.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	SplitEqually(context.Context, *connect.Request[api.SplitEquallyRequest]) (*connect.Response[api.SplitExpenseResponse], error)
	SplitExactly(context.Context, *connect.Request[api.SplitExactlyRequest]) (*connect.Response[api.SplitExpenseResponse], error)
	SplitByPercentage(context.Context, *connect.Request[api.SplitByPercentageRequest]) (*connect.Response[api.SplitExpenseResponse], error)
	GetRecentExpenses(context.Context, *connect.Request[api.GetRecentExpensesRequest]) (*connect.Response[api.GetRecentExpensesResponse], error)
	GetUserExpenses(context.Context, *connect.Request[api.GetUserExpensesRequest]) (*connect.Response[api.GetUserExpensesResponse], error)
	SearchExpenses(context.Context, *connect.Request[api.SearchExpensesRequest]) (*connect.Response[api.SearchExpensesResponse], error)
	GetExpenseAnalytics(context.Context, *connect.Request[api.GetExpenseAnalyticsRequest]) (*connect.Response[api.GetExpenseAnalyticsResponse], error)
}

// NewExpenseServiceClient constructs a client for the ExpenseService service. Requests use
// the JSON codec; opts may add interceptors or headers.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{withJSON()}, opts...)
	return &expenseServiceClient{
		createExpense: connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceCreateExpenseProcedure,
			opts...,
		),
		getExpense: connect.NewClient[api.GetExpenseRequest, api.GetExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceGetExpenseProcedure,
			opts...,
		),
		listExpenses: connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](
			httpClient,
			baseURL+ExpenseServiceListExpensesProcedure,
			opts...,
		),
		updateExpense: connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceUpdateExpenseProcedure,
			opts...,
		),
		deleteExpense: connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceDeleteExpenseProcedure,
			opts...,
		),
		splitEqually: connect.NewClient[api.SplitEquallyRequest, api.SplitExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceSplitEquallyProcedure,
			opts...,
		),
		splitExactly: connect.NewClient[api.SplitExactlyRequest, api.SplitExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceSplitExactlyProcedure,
			opts...,
		),
		splitByPercentage: connect.NewClient[api.SplitByPercentageRequest, api.SplitExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceSplitByPercentageProcedure,
			opts...,
		),
		getRecentExpenses: connect.NewClient[api.GetRecentExpensesRequest, api.GetRecentExpensesResponse](
			httpClient,
			baseURL+ExpenseServiceGetRecentExpensesProcedure,
			opts...,
		),
		getUserExpenses: connect.NewClient[api.GetUserExpensesRequest, api.GetUserExpensesResponse](
			httpClient,
			baseURL+ExpenseServiceGetUserExpensesProcedure,
			opts...,
		),
		searchExpenses: connect.NewClient[api.SearchExpensesRequest, api.SearchExpensesResponse](
			httpClient,
			baseURL+ExpenseServiceSearchExpensesProcedure,
			opts...,
		),
		getExpenseAnalytics: connect.NewClient[api.GetExpenseAnalyticsRequest, api.GetExpenseAnalyticsResponse](
			httpClient,
			baseURL+ExpenseServiceGetExpenseAnalyticsProcedure,
			opts...,
		),
	}
}

type expenseServiceClient struct {
	createExpense       *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	getExpense          *connect.Client[api.GetExpenseRequest, api.GetExpenseResponse]
	listExpenses        *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	updateExpense       *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense       *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	splitEqually        *connect.Client[api.SplitEquallyRequest, api.SplitExpenseResponse]
	splitExactly        *connect.Client[api.SplitExactlyRequest, api.SplitExpenseResponse]
	splitByPercentage   *connect.Client[api.SplitByPercentageRequest, api.SplitExpenseResponse]
	getRecentExpenses   *connect.Client[api.GetRecentExpensesRequest, api.GetRecentExpensesResponse]
	getUserExpenses     *connect.Client[api.GetUserExpensesRequest, api.GetUserExpensesResponse]
	searchExpenses      *connect.Client[api.SearchExpensesRequest, api.SearchExpensesResponse]
	getExpenseAnalytics *connect.Client[api.GetExpenseAnalyticsRequest, api.GetExpenseAnalyticsResponse]
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) SplitEqually(ctx context.Context, req *connect.Request[api.SplitEquallyRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return c.splitEqually.CallUnary(ctx, req)
}

func (c *expenseServiceClient) SplitExactly(ctx context.Context, req *connect.Request[api.SplitExactlyRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return c.splitExactly.CallUnary(ctx, req)
}

func (c *expenseServiceClient) SplitByPercentage(ctx context.Context, req *connect.Request[api.SplitByPercentageRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return c.splitByPercentage.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetRecentExpenses(ctx context.Context, req *connect.Request[api.GetRecentExpensesRequest]) (*connect.Response[api.GetRecentExpensesResponse], error) {
	return c.getRecentExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetUserExpenses(ctx context.Context, req *connect.Request[api.GetUserExpensesRequest]) (*connect.Response[api.GetUserExpensesResponse], error) {
	return c.getUserExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) SearchExpenses(ctx context.Context, req *connect.Request[api.SearchExpensesRequest]) (*connect.Response[api.SearchExpensesResponse], error) {
	return c.searchExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpenseAnalytics(ctx context.Context, req *connect.Request[api.GetExpenseAnalyticsRequest]) (*connect.Response[api.GetExpenseAnalyticsResponse], error) {
	return c.getExpenseAnalytics.CallUnary(ctx, req)
}

// ExpenseServiceHandler is implemented by the server side of the ExpenseService service.
// ExpenseService records expenses and adjusts their splits.
type ExpenseServiceHandler interface {
	// CreateExpense records an expense and its splits.
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)

	// ListExpenses returns a group's expenses, newest first.
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)

	// UpdateExpense replaces an unlocked expense.
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)

	// SplitEqually resplits an expense evenly between the given users.
	SplitEqually(context.Context, *connect.Request[api.SplitEquallyRequest]) (*connect.Response[api.SplitExpenseResponse], error)
	SplitExactly(context.Context, *connect.Request[api.SplitExactlyRequest]) (*connect.Response[api.SplitExpenseResponse], error)
	SplitByPercentage(context.Context, *connect.Request[api.SplitByPercentageRequest]) (*connect.Response[api.SplitExpenseResponse], error)

	// GetRecentExpenses returns the newest expenses across the caller's groups.
	GetRecentExpenses(context.Context, *connect.Request[api.GetRecentExpensesRequest]) (*connect.Response[api.GetRecentExpensesResponse], error)

	// GetUserExpenses pages through the expenses the caller paid or shares.
	GetUserExpenses(context.Context, *connect.Request[api.GetUserExpensesRequest]) (*connect.Response[api.GetUserExpensesResponse], error)

	// SearchExpenses filters the caller's expenses by text, category and amount.
	SearchExpenses(context.Context, *connect.Request[api.SearchExpensesRequest]) (*connect.Response[api.SearchExpensesResponse], error)

	// GetExpenseAnalytics reports spending over a recent timeframe.
	GetExpenseAnalytics(context.Context, *connect.Request[api.GetExpenseAnalyticsRequest]) (*connect.Response[api.GetExpenseAnalyticsResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{withJSON()}, opts...)
	createExpenseHandler := connect.NewUnaryHandler(
		ExpenseServiceCreateExpenseProcedure,
		svc.CreateExpense,
		opts...,
	)
	getExpenseHandler := connect.NewUnaryHandler(
		ExpenseServiceGetExpenseProcedure,
		svc.GetExpense,
		opts...,
	)
	listExpensesHandler := connect.NewUnaryHandler(
		ExpenseServiceListExpensesProcedure,
		svc.ListExpenses,
		opts...,
	)
	updateExpenseHandler := connect.NewUnaryHandler(
		ExpenseServiceUpdateExpenseProcedure,
		svc.UpdateExpense,
		opts...,
	)
	deleteExpenseHandler := connect.NewUnaryHandler(
		ExpenseServiceDeleteExpenseProcedure,
		svc.DeleteExpense,
		opts...,
	)
	splitEquallyHandler := connect.NewUnaryHandler(
		ExpenseServiceSplitEquallyProcedure,
		svc.SplitEqually,
		opts...,
	)
	splitExactlyHandler := connect.NewUnaryHandler(
		ExpenseServiceSplitExactlyProcedure,
		svc.SplitExactly,
		opts...,
	)
	splitByPercentageHandler := connect.NewUnaryHandler(
		ExpenseServiceSplitByPercentageProcedure,
		svc.SplitByPercentage,
		opts...,
	)
	getRecentExpensesHandler := connect.NewUnaryHandler(
		ExpenseServiceGetRecentExpensesProcedure,
		svc.GetRecentExpenses,
		opts...,
	)
	getUserExpensesHandler := connect.NewUnaryHandler(
		ExpenseServiceGetUserExpensesProcedure,
		svc.GetUserExpenses,
		opts...,
	)
	searchExpensesHandler := connect.NewUnaryHandler(
		ExpenseServiceSearchExpensesProcedure,
		svc.SearchExpenses,
		opts...,
	)
	getExpenseAnalyticsHandler := connect.NewUnaryHandler(
		ExpenseServiceGetExpenseAnalyticsProcedure,
		svc.GetExpenseAnalytics,
		opts...,
	)
	return "/" + ExpenseServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceCreateExpenseProcedure:
			createExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseProcedure:
			getExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceListExpensesProcedure:
			listExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceUpdateExpenseProcedure:
			updateExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceDeleteExpenseProcedure:
			deleteExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceSplitEquallyProcedure:
			splitEquallyHandler.ServeHTTP(w, r)
		case ExpenseServiceSplitExactlyProcedure:
			splitExactlyHandler.ServeHTTP(w, r)
		case ExpenseServiceSplitByPercentageProcedure:
			splitByPercentageHandler.ServeHTTP(w, r)
		case ExpenseServiceGetRecentExpensesProcedure:
			getRecentExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceGetUserExpensesProcedure:
			getUserExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceSearchExpensesProcedure:
			searchExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseAnalyticsProcedure:
			getExpenseAnalyticsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedExpenseServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedExpenseServiceHandler struct{}

func (UnimplementedExpenseServiceHandler) CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.CreateExpense is not implemented"))
}

func (UnimplementedExpenseServiceHandler) GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.GetExpense is not implemented"))
}

func (UnimplementedExpenseServiceHandler) ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.ListExpenses is not implemented"))
}

func (UnimplementedExpenseServiceHandler) UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.UpdateExpense is not implemented"))
}

func (UnimplementedExpenseServiceHandler) DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.DeleteExpense is not implemented"))
}

func (UnimplementedExpenseServiceHandler) SplitEqually(context.Context, *connect.Request[api.SplitEquallyRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.SplitEqually is not implemented"))
}

func (UnimplementedExpenseServiceHandler) SplitExactly(context.Context, *connect.Request[api.SplitExactlyRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.SplitExactly is not implemented"))
}

func (UnimplementedExpenseServiceHandler) SplitByPercentage(context.Context, *connect.Request[api.SplitByPercentageRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.SplitByPercentage is not implemented"))
}

func (UnimplementedExpenseServiceHandler) GetRecentExpenses(context.Context, *connect.Request[api.GetRecentExpensesRequest]) (*connect.Response[api.GetRecentExpensesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.GetRecentExpenses is not implemented"))
}

func (UnimplementedExpenseServiceHandler) GetUserExpenses(context.Context, *connect.Request[api.GetUserExpensesRequest]) (*connect.Response[api.GetUserExpensesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.GetUserExpenses is not implemented"))
}

func (UnimplementedExpenseServiceHandler) SearchExpenses(context.Context, *connect.Request[api.SearchExpensesRequest]) (*connect.Response[api.SearchExpensesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.SearchExpenses is not implemented"))
}

func (UnimplementedExpenseServiceHandler) GetExpenseAnalytics(context.Context, *connect.Request[api.GetExpenseAnalyticsRequest]) (*connect.Response[api.GetExpenseAnalyticsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.ExpenseService.GetExpenseAnalytics is not implemented"))
}
