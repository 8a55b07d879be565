package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// BalanceServiceName is the fully-qualified name of the BalanceService service.
const BalanceServiceName = "splitledger.v1.BalanceService"

// Procedure paths of the BalanceService RPCs.
const (
	BalanceServiceGetBalanceSummaryProcedure = "/" + BalanceServiceName + "/GetBalanceSummary"
)

// BalanceServiceClient is a client for the BalanceService service.
type BalanceServiceClient interface {
	GetBalanceSummary(context.Context, *connect.Request[api.GetBalanceSummaryRequest]) (*connect.Response[api.GetBalanceSummaryResponse], error)
}

// NewBalanceServiceClient constructs a client for the BalanceService service. Requests use
// the JSON codec; opts may add interceptors or headers.
func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BalanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{withJSON()}, opts...)
	return &balanceServiceClient{
		getBalanceSummary: connect.NewClient[api.GetBalanceSummaryRequest, api.GetBalanceSummaryResponse](
			httpClient,
			baseURL+BalanceServiceGetBalanceSummaryProcedure,
			opts...,
		),
	}
}

type balanceServiceClient struct {
	getBalanceSummary *connect.Client[api.GetBalanceSummaryRequest, api.GetBalanceSummaryResponse]
}

func (c *balanceServiceClient) GetBalanceSummary(ctx context.Context, req *connect.Request[api.GetBalanceSummaryRequest]) (*connect.Response[api.GetBalanceSummaryResponse], error) {
	return c.getBalanceSummary.CallUnary(ctx, req)
}

// BalanceServiceHandler is implemented by the server side of the BalanceService service.
// BalanceService reports a user's position across groups.
type BalanceServiceHandler interface {
	// GetBalanceSummary totals the caller's balances per currency.
	GetBalanceSummary(context.Context, *connect.Request[api.GetBalanceSummaryRequest]) (*connect.Response[api.GetBalanceSummaryResponse], error)
}

// NewBalanceServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewBalanceServiceHandler(svc BalanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{withJSON()}, opts...)
	getBalanceSummaryHandler := connect.NewUnaryHandler(
		BalanceServiceGetBalanceSummaryProcedure,
		svc.GetBalanceSummary,
		opts...,
	)
	return "/" + BalanceServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case BalanceServiceGetBalanceSummaryProcedure:
			getBalanceSummaryHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedBalanceServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedBalanceServiceHandler struct{}

func (UnimplementedBalanceServiceHandler) GetBalanceSummary(context.Context, *connect.Request[api.GetBalanceSummaryRequest]) (*connect.Response[api.GetBalanceSummaryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.BalanceService.GetBalanceSummary is not implemented"))
}
