package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/money"
)

var (
	// ErrNotMember is returned when the acting user does not belong to the group.
	ErrNotMember = errors.New("not a member of the group")

	// ErrPermissionDenied is returned when a member lacks the role an action needs.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidGroup is returned for malformed group fields.
	ErrInvalidGroup = errors.New("invalid group")

	// ErrAlreadyMember is returned when adding someone who is already active.
	ErrAlreadyMember = errors.New("user is already a member of the group")
)

// ExpenseLockedError reports an attempt to change an expense that a completed
// settlement has frozen.
type ExpenseLockedError struct {
	ExpenseID    string
	SettlementID string
}

func (e *ExpenseLockedError) Error() string {
	return fmt.Sprintf("expense %s is locked by settlement %s", e.ExpenseID, e.SettlementID)
}

// InvalidExpenseError reports expense fields that fail validation.
type InvalidExpenseError struct {
	Reason string
}

func (e *InvalidExpenseError) Error() string {
	return "invalid expense: " + e.Reason
}

// MemberBalanceError is returned when removing a member who still owes or is owed.
type MemberBalanceError struct {
	UserID string
	Net    money.Money
}

func (e *MemberBalanceError) Error() string {
	return fmt.Sprintf("member %s has an outstanding balance of %s", e.UserID, e.Net)
}
