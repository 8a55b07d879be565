package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

// Expense is a payment made by one member and shared by several.
//
// An expense is mutable until a completed settlement in its group locks it.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the owning group.
	GroupID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Total is the full amount paid, in the group's currency.
	Total money.Money

	// Category classifies the expense for reporting.
	Category ExpenseCategory

	// PayerID is the member who paid the total.
	PayerID string

	// SplitType is how Total was divided. Every split carries the same type.
	SplitType SplitType

	// Splits are owned by the expense and deleted with it.
	// Their amounts always sum to Total exactly.
	Splits []ExpenseSplit

	// LockedBy is the ID of the completed settlement that froze this expense,
	// or empty while it can still be edited.
	LockedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last edit.
	UpdatedAt int64
}

// Locked reports whether a settlement has frozen the expense.
func (e *Expense) Locked() bool {
	return e.LockedBy != ""
}

// ParticipantIDs returns the split user IDs in split order.
func (e *Expense) ParticipantIDs() []string {
	ids := make([]string, len(e.Splits))
	for i, s := range e.Splits {
		ids[i] = s.UserID
	}
	return ids
}

// ExpenseSplit is one participant's share of an expense.
type ExpenseSplit struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// ExpenseID is the owning expense.
	ExpenseID string

	// UserID is the participant who owes Amount.
	UserID string

	// Amount is the participant's share.
	Amount money.Money

	// SplitType matches the owning expense's split type.
	SplitType SplitType

	// Percentage is the requested share for percentage splits; invalid otherwise.
	Percentage decimal.NullDecimal

	// CreatedAt is the Unix timestamp when the split was computed.
	CreatedAt int64
}
