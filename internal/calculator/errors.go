package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

var (
	// ErrCurrencyMismatch is returned when amounts of different currencies meet.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrUnbalanced is returned by SuggestSettlements when balances do not net to zero.
	ErrUnbalanced = errors.New("balances do not sum to zero")

	// ErrConservationViolated means the stored history produced balances that do
	// not net to zero. It indicates corrupted splits.
	ErrConservationViolated = errors.New("group balances do not sum to zero")
)

// SplitMismatchError reports exact split amounts that do not add up to the total.
type SplitMismatchError struct {
	Total money.Money
	Sum   money.Money
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("exact splits sum to %s but the expense total is %s", e.Sum, e.Total)
}

// InvalidPercentageError reports percentages that do not sum to 100 within
// tolerance, or a single malformed percentage.
type InvalidPercentageError struct {
	Sum    decimal.Decimal
	Reason string
}

func (e *InvalidPercentageError) Error() string {
	if e.Reason != "" {
		return "invalid percentage: " + e.Reason
	}
	return fmt.Sprintf("percentages sum to %s, want 100", e.Sum.String())
}

// InvalidParticipantsError reports an empty, blank or duplicated participant list.
type InvalidParticipantsError struct {
	UserID string
	Reason string
}

func (e *InvalidParticipantsError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("invalid participants: %s (%s)", e.Reason, e.UserID)
	}
	return "invalid participants: " + e.Reason
}

// InvalidSettlementError reports a settlement that cannot be applied to a
// group ledger: it references non-members or is already in a terminal state.
type InvalidSettlementError struct {
	SettlementID string
	Reason       string
}

func (e *InvalidSettlementError) Error() string {
	if e.SettlementID == "" {
		return "invalid settlement: " + e.Reason
	}
	return fmt.Sprintf("invalid settlement %s: %s", e.SettlementID, e.Reason)
}

// ExcludedExpenseError reports a stored expense left out of a group ledger
// because it references a user who was never a member.
type ExcludedExpenseError struct {
	ExpenseID string
	Reason    string
}

func (e *ExcludedExpenseError) Error() string {
	return fmt.Sprintf("excluded expense %s: %s", e.ExpenseID, e.Reason)
}
