package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// SettlementService implements the Connect SettlementService.
type SettlementService struct {
	apiconnect.UnimplementedSettlementServiceHandler
	host  *ledger.Host
	store storage.Store
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(host *ledger.Host, store storage.Store) *SettlementService {
	return &SettlementService{host: host, store: store}
}

// CreateSettlement records a pending settlement between two members.
func (s *SettlementService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "CreateSettlement", err)
	}
	amount, err := money.Parse(req.Msg.Amount, group.Currency)
	if err != nil {
		return nil, invalidArgument("amount: %v", err)
	}

	settlement, err := s.host.CreateSettlement(ctx, userID, ledger.SettlementInput{
		GroupID:     group.ID,
		PayerID:     req.Msg.PayerId,
		PayeeID:     req.Msg.PayeeId,
		Amount:      amount,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, toConnectError(ctx, "CreateSettlement", err)
	}

	slog.InfoContext(ctx, "Settlement created",
		"settlement_id", settlement.ID,
		"group_id", settlement.GroupID,
		"payer_id", settlement.PayerID,
		"payee_id", settlement.PayeeID,
		"amount", settlement.Amount.String(),
	)

	return connect.NewResponse(&api.CreateSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// CompleteSettlement applies a pending settlement to the balances.
func (s *SettlementService) CompleteSettlement(ctx context.Context, req *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error) {
	settlement, err := s.transition(ctx, req.Msg.SettlementId, models.SettlementCompleted)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CompleteSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// RejectSettlement discards a pending settlement.
func (s *SettlementService) RejectSettlement(ctx context.Context, req *connect.Request[api.RejectSettlementRequest]) (*connect.Response[api.RejectSettlementResponse], error) {
	settlement, err := s.transition(ctx, req.Msg.SettlementId, models.SettlementRejected)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.RejectSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

func (s *SettlementService) transition(ctx context.Context, settlementID string, next models.SettlementStatus) (*models.Settlement, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if settlementID == "" {
		return nil, invalidArgument("settlement_id required")
	}

	var settlement *models.Settlement
	if next == models.SettlementCompleted {
		settlement, err = s.host.CompleteSettlement(ctx, userID, settlementID)
	} else {
		settlement, err = s.host.RejectSettlement(ctx, userID, settlementID)
	}
	if err != nil {
		return nil, toConnectError(ctx, "Settlement "+next.String(), err)
	}

	slog.InfoContext(ctx, "Settlement "+next.String(), "settlement_id", settlement.ID, "group_id", settlement.GroupID)
	return settlement, nil
}

// ListSettlements returns a group's settlements, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := viewGroup(ctx, s.store, userID, req.Msg.GroupId); err != nil {
		return nil, toConnectError(ctx, "ListSettlements", err)
	}

	settlements, err := s.store.ListSettlements(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(ctx, "ListSettlements", err)
	}
	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}
