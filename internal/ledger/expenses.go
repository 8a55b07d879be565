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

// ExpenseInput describes an expense to create or the new state of one.
type ExpenseInput struct {
	GroupID     string
	Description string
	Total       money.Money
	Category    models.ExpenseCategory

	// PayerID defaults to the acting user.
	PayerID string

	SplitType    models.SplitType
	Participants []calculator.Participant
}

// CreateExpense validates in, computes its splits and records it.
func (h *Host) CreateExpense(ctx context.Context, actorID string, in ExpenseInput) (*models.Expense, error) {
	var created *models.Expense
	err := h.mutate(ctx, in.GroupID, "create_expense", func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		if err := requireMember(snap, actorID); err != nil {
			return nil, err
		}
		e, err := h.buildExpense(snap.Group, actorID, in)
		if err != nil {
			return nil, err
		}
		if err := checkFold(snap.Group, withExpense(snap.Expenses, e), snap.Settlements); err != nil {
			return nil, err
		}
		if err := h.store.CreateExpense(ctx, e, snap.Group.Version); err != nil {
			return nil, err
		}
		created = e
		return []events.Event{h.expenseEvent(events.ExpenseCreated, e, actorID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateExpense replaces an unlocked expense's fields and splits.
// in.GroupID is ignored; an expense never changes group.
func (h *Host) UpdateExpense(ctx context.Context, actorID, expenseID string, in ExpenseInput) (*models.Expense, error) {
	return h.editExpense(ctx, actorID, expenseID, "update_expense", func(*models.Expense) ExpenseInput { return in })
}

// Resplit recomputes the splits of an unlocked expense, keeping its other fields.
func (h *Host) Resplit(ctx context.Context, actorID, expenseID string, splitType models.SplitType, participants []calculator.Participant) (*models.Expense, error) {
	return h.editExpense(ctx, actorID, expenseID, "resplit_expense", func(cur *models.Expense) ExpenseInput {
		return ExpenseInput{
			Description:  cur.Description,
			Total:        cur.Total,
			Category:     cur.Category,
			PayerID:      cur.PayerID,
			SplitType:    splitType,
			Participants: participants,
		}
	})
}

func (h *Host) editExpense(ctx context.Context, actorID, expenseID, kind string, next func(cur *models.Expense) ExpenseInput) (*models.Expense, error) {
	existing, err := h.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	var updated *models.Expense
	err = h.mutate(ctx, existing.GroupID, kind, func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		cur, err := editableExpense(snap, actorID, expenseID)
		if err != nil {
			return nil, err
		}
		in := next(cur)
		in.GroupID = cur.GroupID
		e, err := h.buildExpense(snap.Group, actorID, in)
		if err != nil {
			return nil, err
		}
		e.ID = cur.ID
		e.CreatedAt = cur.CreatedAt
		if err := checkFold(snap.Group, withExpense(snap.Expenses, e), snap.Settlements); err != nil {
			return nil, err
		}

		if err := h.store.UpdateExpense(ctx, e, snap.Group.Version); err != nil {
			return nil, err
		}
		updated = e
		return []events.Event{h.expenseEvent(events.ExpenseUpdated, e, actorID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteExpense removes an unlocked expense and its splits.
func (h *Host) DeleteExpense(ctx context.Context, actorID, expenseID string) error {
	existing, err := h.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}

	return h.mutate(ctx, existing.GroupID, "delete_expense", func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		cur, err := editableExpense(snap, actorID, expenseID)
		if err != nil {
			return nil, err
		}
		if err := h.store.DeleteExpense(ctx, cur.GroupID, cur.ID, snap.Group.Version); err != nil {
			return nil, err
		}
		return []events.Event{h.expenseEvent(events.ExpenseDeleted, cur, actorID)}, nil
	})
}

// editableExpense finds expenseID in the snapshot and checks that actorID may
// change it: the expense must be unlocked and the actor its payer or an admin.
func editableExpense(snap *storage.GroupSnapshot, actorID, expenseID string) (*models.Expense, error) {
	if err := requireMember(snap, actorID); err != nil {
		return nil, err
	}
	var cur *models.Expense
	for _, e := range snap.Expenses {
		if e.ID == expenseID {
			cur = e
			break
		}
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	if cur.Locked() {
		return nil, &ExpenseLockedError{ExpenseID: cur.ID, SettlementID: cur.LockedBy}
	}
	if cur.PayerID != actorID && !snap.Group.IsAdmin(actorID) {
		return nil, fmt.Errorf("%w: only the payer or an admin can change expense %s", ErrPermissionDenied, cur.ID)
	}
	return cur, nil
}

// buildExpense validates in against the group and computes the splits.
func (h *Host) buildExpense(g *models.Group, actorID string, in ExpenseInput) (*models.Expense, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, &InvalidExpenseError{Reason: "description is required"}
	}
	if in.Total.Currency != g.Currency {
		return nil, fmt.Errorf("%w: expense is in %q, group is in %q", calculator.ErrCurrencyMismatch, in.Total.Currency, g.Currency)
	}
	if in.Total.Sign() <= 0 {
		return nil, &InvalidExpenseError{Reason: "amount must be positive"}
	}
	if in.Total.Amount > money.MaxAmount {
		return nil, &InvalidExpenseError{Reason: fmt.Sprintf("amount exceeds %s", money.New(money.MaxAmount, in.Total.Currency))}
	}
	if !in.SplitType.Valid() {
		return nil, &InvalidExpenseError{Reason: "unknown split type"}
	}
	category := in.Category
	if category == 0 {
		category = models.CategoryOther
	}
	payer := in.PayerID
	if payer == "" {
		payer = actorID
	}
	if !g.IsActiveMember(payer) {
		return nil, &InvalidExpenseError{Reason: fmt.Sprintf("payer %s is not a group member", payer)}
	}
	if err := activeParticipants(g, in.Participants); err != nil {
		return nil, err
	}

	splits, err := calculator.ComputeSplits(in.Total, in.SplitType, in.Participants)
	if err != nil {
		return nil, err
	}
	h.metrics.SplitComputed(in.SplitType.String())

	return &models.Expense{
		GroupID:     g.ID,
		Description: description,
		Total:       in.Total,
		Category:    category,
		PayerID:     payer,
		SplitType:   in.SplitType,
		Splits:      splits,
	}, nil
}

func (h *Host) expenseEvent(t events.Type, e *models.Expense, actorID string) events.Event {
	ev := h.newEvent(t, e.GroupID, e.ID, actorID)
	ev.Description = e.Description
	ev.Amount = e.Total.Decimal()
	ev.Currency = e.Total.Currency
	ev.PayerID = e.PayerID
	return ev
}
