package service

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// summaryConcurrency bounds how many group balances are computed at once.
const summaryConcurrency = 4

// BalanceService implements the Connect BalanceService.
type BalanceService struct {
	apiconnect.UnimplementedBalanceServiceHandler
	host  *ledger.Host
	store storage.Store
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(host *ledger.Host, store storage.Store) *BalanceService {
	return &BalanceService{host: host, store: store}
}

// GetBalanceSummary totals the caller's balances across their groups, one
// summary per currency.
func (s *BalanceService) GetBalanceSummary(ctx context.Context, req *connect.Request[api.GetBalanceSummaryRequest]) (*connect.Response[api.GetBalanceSummaryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, "GetBalanceSummary", err)
	}

	var (
		mu      sync.Mutex
		results = make(map[string]*calculator.Result, len(groups))
		names   = make(map[string]string, len(groups))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for _, group := range groups {
		names[group.ID] = group.Name
		g.Go(func() error {
			result, err := s.host.Balances(gctx, group.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[group.ID] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, toConnectError(ctx, "GetBalanceSummary", err)
	}

	summaries, err := calculator.Summarize(userID, results)
	if err != nil {
		return nil, toConnectError(ctx, "GetBalanceSummary", err)
	}
	out := make([]*api.BalanceSummary, len(summaries))
	for i, sum := range summaries {
		groupNets := make([]*api.GroupBalance, len(sum.Groups))
		for j, gn := range sum.Groups {
			groupNets[j] = &api.GroupBalance{
				GroupId:   gn.GroupID,
				GroupName: names[gn.GroupID],
				Net:       gn.Net.Decimal(),
			}
		}
		out[i] = &api.BalanceSummary{
			Currency:       sum.Currency,
			TotalOwed:      sum.TotalOwed.Decimal(),
			TotalOwedToYou: sum.TotalOwedToYou.Decimal(),
			NetBalance:     sum.NetBalance.Decimal(),
			Groups:         groupNets,
		}
	}
	return connect.NewResponse(&api.GetBalanceSummaryResponse{Summaries: out}), nil
}
