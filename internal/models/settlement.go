package models

import "github.com/mmynk/splitledger/internal/money"

// Settlement represents a payment between group members to clear debts.
//
// It starts Pending; completing it applies it to the group's balances,
// rejecting it discards it. Both outcomes are final.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// PayerID is the user who pays (debtor settling up).
	PayerID string

	// PayeeID is the user who receives payment (creditor being paid).
	PayeeID string

	// Amount is the payment amount, always positive.
	Amount money.Money

	// Description is an optional note.
	Description string

	// Status is the lifecycle state.
	Status SettlementStatus

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status change.
	UpdatedAt int64

	// CompletedAt is set when the status becomes Completed.
	CompletedAt int64
}
