package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService service.
const SettlementServiceName = "splitledger.v1.SettlementService"

// Procedure paths of the SettlementService RPCs.
const (
	SettlementServiceCreateSettlementProcedure   = "/" + SettlementServiceName + "/CreateSettlement"
	SettlementServiceCompleteSettlementProcedure = "/" + SettlementServiceName + "/CompleteSettlement"
	SettlementServiceRejectSettlementProcedure   = "/" + SettlementServiceName + "/RejectSettlement"
	SettlementServiceListSettlementsProcedure    = "/" + SettlementServiceName + "/ListSettlements"
)

// SettlementServiceClient is a client for the SettlementService service.
type SettlementServiceClient interface {
	CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error)
	CompleteSettlement(context.Context, *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error)
	RejectSettlement(context.Context, *connect.Request[api.RejectSettlementRequest]) (*connect.Response[api.RejectSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
}

// NewSettlementServiceClient constructs a client for the SettlementService service. Requests use
// the JSON codec; opts may add interceptors or headers.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{withJSON()}, opts...)
	return &settlementServiceClient{
		createSettlement: connect.NewClient[api.CreateSettlementRequest, api.CreateSettlementResponse](
			httpClient,
			baseURL+SettlementServiceCreateSettlementProcedure,
			opts...,
		),
		completeSettlement: connect.NewClient[api.CompleteSettlementRequest, api.CompleteSettlementResponse](
			httpClient,
			baseURL+SettlementServiceCompleteSettlementProcedure,
			opts...,
		),
		rejectSettlement: connect.NewClient[api.RejectSettlementRequest, api.RejectSettlementResponse](
			httpClient,
			baseURL+SettlementServiceRejectSettlementProcedure,
			opts...,
		),
		listSettlements: connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](
			httpClient,
			baseURL+SettlementServiceListSettlementsProcedure,
			opts...,
		),
	}
}

type settlementServiceClient struct {
	createSettlement   *connect.Client[api.CreateSettlementRequest, api.CreateSettlementResponse]
	completeSettlement *connect.Client[api.CompleteSettlementRequest, api.CompleteSettlementResponse]
	rejectSettlement   *connect.Client[api.RejectSettlementRequest, api.RejectSettlementResponse]
	listSettlements    *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
}

func (c *settlementServiceClient) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	return c.createSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) CompleteSettlement(ctx context.Context, req *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error) {
	return c.completeSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) RejectSettlement(ctx context.Context, req *connect.Request[api.RejectSettlementRequest]) (*connect.Response[api.RejectSettlementResponse], error) {
	return c.rejectSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

// SettlementServiceHandler is implemented by the server side of the SettlementService service.
// SettlementService records payments between members.
type SettlementServiceHandler interface {
	// CreateSettlement records a pending settlement.
	CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error)

	// CompleteSettlement applies a pending settlement to the balances.
	CompleteSettlement(context.Context, *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error)
	RejectSettlement(context.Context, *connect.Request[api.RejectSettlementRequest]) (*connect.Response[api.RejectSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{withJSON()}, opts...)
	createSettlementHandler := connect.NewUnaryHandler(
		SettlementServiceCreateSettlementProcedure,
		svc.CreateSettlement,
		opts...,
	)
	completeSettlementHandler := connect.NewUnaryHandler(
		SettlementServiceCompleteSettlementProcedure,
		svc.CompleteSettlement,
		opts...,
	)
	rejectSettlementHandler := connect.NewUnaryHandler(
		SettlementServiceRejectSettlementProcedure,
		svc.RejectSettlement,
		opts...,
	)
	listSettlementsHandler := connect.NewUnaryHandler(
		SettlementServiceListSettlementsProcedure,
		svc.ListSettlements,
		opts...,
	)
	return "/" + SettlementServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SettlementServiceCreateSettlementProcedure:
			createSettlementHandler.ServeHTTP(w, r)
		case SettlementServiceCompleteSettlementProcedure:
			completeSettlementHandler.ServeHTTP(w, r)
		case SettlementServiceRejectSettlementProcedure:
			rejectSettlementHandler.ServeHTTP(w, r)
		case SettlementServiceListSettlementsProcedure:
			listSettlementsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedSettlementServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSettlementServiceHandler struct{}

func (UnimplementedSettlementServiceHandler) CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.SettlementService.CreateSettlement is not implemented"))
}

func (UnimplementedSettlementServiceHandler) CompleteSettlement(context.Context, *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.SettlementService.CompleteSettlement is not implemented"))
}

func (UnimplementedSettlementServiceHandler) RejectSettlement(context.Context, *connect.Request[api.RejectSettlementRequest]) (*connect.Response[api.RejectSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.SettlementService.RejectSettlement is not implemented"))
}

func (UnimplementedSettlementServiceHandler) ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.SettlementService.ListSettlements is not implemented"))
}
