package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Balances returns the group's current balances.
//
// Results are cached per group and reused while the group version is
// unchanged; concurrent misses for the same group share one computation.
// The returned Result is shared and must not be modified.
func (h *Host) Balances(ctx context.Context, groupID string) (*calculator.Result, error) {
	group, err := h.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if c, ok := h.cache.Get(groupID); ok && c.version == group.Version {
		h.metrics.CacheHit()
		return c.result, nil
	}
	h.metrics.CacheMiss()

	v, err, _ := h.flight.Do(groupID, func() (any, error) {
		snap, err := h.store.Snapshot(context.WithoutCancel(ctx), groupID)
		if err != nil {
			return nil, err
		}
		result, err := h.compute(ctx, snap)
		if err != nil {
			return nil, err
		}
		h.cache.Add(groupID, cachedBalances{version: snap.Group.Version, result: result})
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*calculator.Result), nil
}

// compute folds a snapshot into balances over every member the group ever had.
func (h *Host) compute(ctx context.Context, snap *storage.GroupSnapshot) (*calculator.Result, error) {
	g := snap.Group
	result, err := calculator.ComputeGroupBalances(g.Currency, g.AllMemberIDs(), snap.Expenses, snap.Settlements)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to compute group balances",
			"group_id", g.ID,
			"version", g.Version,
			"error", err)
		return nil, fmt.Errorf("failed to compute balances of group %s: %w", g.ID, err)
	}
	for _, ex := range result.Excluded {
		h.logger.WarnContext(ctx, "Excluded settlement from balances",
			"group_id", g.ID,
			"settlement_id", ex.SettlementID,
			"reason", ex.Reason)
	}
	h.metrics.ExcludedSettlements(len(result.Excluded))
	for _, ex := range result.ExcludedExpenses {
		h.logger.WarnContext(ctx, "Excluded expense from balances",
			"group_id", g.ID,
			"expense_id", ex.ExpenseID,
			"reason", ex.Reason)
	}
	h.metrics.ExcludedExpenses(len(result.ExcludedExpenses))
	return result, nil
}

// checkFold folds the history a write would leave behind, so that nothing is
// stored whose balances cannot be computed, e.g. because they overflow.
func checkFold(g *models.Group, expenses []*models.Expense, settlements []*models.Settlement) error {
	_, err := calculator.ComputeGroupBalances(g.Currency, g.AllMemberIDs(), expenses, settlements)
	return err
}

// withExpense returns list with e replacing the expense of the same ID, or
// appended when e is new.
func withExpense(list []*models.Expense, e *models.Expense) []*models.Expense {
	out := make([]*models.Expense, 0, len(list)+1)
	for _, x := range list {
		if e.ID == "" || x.ID != e.ID {
			out = append(out, x)
		}
	}
	return append(out, e)
}

func withSettlement(list []*models.Settlement, s *models.Settlement) []*models.Settlement {
	out := make([]*models.Settlement, 0, len(list)+1)
	for _, x := range list {
		if s.ID == "" || x.ID != s.ID {
			out = append(out, x)
		}
	}
	return append(out, s)
}

// SuggestSettlements proposes the transfers that would settle the group.
func (h *Host) SuggestSettlements(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	result, err := h.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.SuggestSettlements(result.NetByUser())
}
