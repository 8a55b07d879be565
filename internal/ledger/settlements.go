package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// SettlementInput describes a payment between two members.
type SettlementInput struct {
	GroupID     string
	PayerID     string
	PayeeID     string
	Amount      money.Money
	Description string
}

// CreateSettlement records a pending settlement. It does not affect balances
// until it is completed.
func (h *Host) CreateSettlement(ctx context.Context, actorID string, in SettlementInput) (*models.Settlement, error) {
	var created *models.Settlement
	err := h.mutate(ctx, in.GroupID, "create_settlement", func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		if err := requireMember(snap, actorID); err != nil {
			return nil, err
		}
		s := &models.Settlement{
			GroupID:     in.GroupID,
			PayerID:     in.PayerID,
			PayeeID:     in.PayeeID,
			Amount:      in.Amount,
			Description: strings.TrimSpace(in.Description),
			CreatedBy:   actorID,
		}
		if err := calculator.ValidateSettlement(snap.Group, s, models.SettlementPending); err != nil {
			return nil, err
		}
		s.Status = models.SettlementPending

		if err := h.store.CreateSettlement(ctx, s, snap.Group.Version); err != nil {
			return nil, err
		}
		created = s
		return []events.Event{h.settlementEvent(events.SettlementCreated, s, actorID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CompleteSettlement applies a pending settlement to the group's balances.
// Every expense recorded up to now is locked by it.
func (h *Host) CompleteSettlement(ctx context.Context, actorID, settlementID string) (*models.Settlement, error) {
	return h.transition(ctx, actorID, settlementID, models.SettlementCompleted, "complete_settlement", events.SettlementCompleted)
}

// RejectSettlement discards a pending settlement.
func (h *Host) RejectSettlement(ctx context.Context, actorID, settlementID string) (*models.Settlement, error) {
	return h.transition(ctx, actorID, settlementID, models.SettlementRejected, "reject_settlement", events.SettlementRejected)
}

// transition moves a settlement to next. Only its payer, its payee or a group
// admin may do so.
func (h *Host) transition(ctx context.Context, actorID, settlementID string, next models.SettlementStatus, kind string, evType events.Type) (*models.Settlement, error) {
	existing, err := h.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	var updated *models.Settlement
	err = h.mutate(ctx, existing.GroupID, kind, func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		if err := requireMember(snap, actorID); err != nil {
			return nil, err
		}
		var cur *models.Settlement
		for _, s := range snap.Settlements {
			if s.ID == settlementID {
				c := *s
				cur = &c
				break
			}
		}
		if cur == nil {
			return nil, fmt.Errorf("%w: settlement %s", storage.ErrNotFound, settlementID)
		}
		if actorID != cur.PayerID && actorID != cur.PayeeID && !snap.Group.IsAdmin(actorID) {
			return nil, fmt.Errorf("%w: only the parties or an admin can change settlement %s", ErrPermissionDenied, cur.ID)
		}
		if next == models.SettlementRejected {
			// Rejection never touches balances, so only the state machine applies.
			if !cur.Status.CanTransitionTo(next) {
				return nil, &calculator.InvalidSettlementError{
					SettlementID: cur.ID,
					Reason:       fmt.Sprintf("cannot move from %s to %s", cur.Status, next),
				}
			}
		} else if err := calculator.ValidateSettlement(snap.Group, cur, next); err != nil {
			return nil, err
		}

		cur.Status = next
		if next == models.SettlementCompleted {
			cur.CompletedAt = h.now().Unix()
			if err := checkFold(snap.Group, snap.Expenses, withSettlement(snap.Settlements, cur)); err != nil {
				return nil, err
			}
		}
		if err := h.store.UpdateSettlementStatus(ctx, cur, snap.Group.Version); err != nil {
			return nil, err
		}
		updated = cur
		return []events.Event{h.settlementEvent(evType, cur, actorID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (h *Host) settlementEvent(t events.Type, s *models.Settlement, actorID string) events.Event {
	ev := h.newEvent(t, s.GroupID, s.ID, actorID)
	ev.Description = s.Description
	ev.Amount = s.Amount.Decimal()
	ev.Currency = s.Amount.Currency
	ev.PayerID = s.PayerID
	ev.PayeeID = s.PayeeID
	return ev
}
