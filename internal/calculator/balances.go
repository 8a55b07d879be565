package calculator

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	UserID    string
	Net       money.Money // Positive = owed money, Negative = owes money
	TotalPaid money.Money // Expenses paid plus settlements paid
	TotalOwed money.Money // Split shares plus settlements received
}

// Result is the folded ledger of one group.
type Result struct {
	Currency string

	// Balances has one entry per member, ordered by user ID.
	Balances []MemberBalance

	// Excluded lists completed settlements that could not be applied.
	Excluded []*InvalidSettlementError

	// ExcludedExpenses lists expenses that reference users outside the group.
	ExcludedExpenses []*ExcludedExpenseError
}

// NetByUser returns the net balance of every user in the result.
func (r *Result) NetByUser() map[string]money.Money {
	out := make(map[string]money.Money, len(r.Balances))
	for _, b := range r.Balances {
		out[b.UserID] = b.Net
	}
	return out
}

// Net returns userID's net balance, zero if the user has none.
func (r *Result) Net(userID string) money.Money {
	for _, b := range r.Balances {
		if b.UserID == userID {
			return b.Net
		}
	}
	return money.Zero(r.Currency)
}

// ComputeGroupBalances folds a group's history into per-user net balances.
//
// Algorithm:
//   - For each expense: the payer is credited the total, each split participant
//     is debited their share
//   - For each completed settlement: the payer is credited and the payee debited
//     the settled amount, reversing that much debt
//   - net = total_paid - total_owed
//
// Pending and rejected settlements are ignored. A completed settlement whose
// payer or payee is not in members is left out and reported in
// Result.Excluded; an expense whose payer or a split participant is not in
// members is left out whole and reported in Result.ExcludedExpenses. Sums
// that do not fit in int64 return money.ErrOverflow. The nets of a valid
// history always sum to zero; anything else returns ErrConservationViolated.
func ComputeGroupBalances(currency string, members []string, expenses []*models.Expense, settlements []*models.Settlement) (*Result, error) {
	balances := make(map[string]*MemberBalance, len(members))
	for _, m := range members {
		balances[m] = &MemberBalance{
			UserID:    m,
			TotalPaid: money.Zero(currency),
			TotalOwed: money.Zero(currency),
		}
	}
	credit := func(userID string, amount money.Money) (err error) {
		b := balances[userID]
		b.TotalPaid, err = b.TotalPaid.CheckedAdd(amount)
		return err
	}
	debit := func(userID string, amount money.Money) (err error) {
		b := balances[userID]
		b.TotalOwed, err = b.TotalOwed.CheckedAdd(amount)
		return err
	}

	result := &Result{Currency: currency}
	for _, e := range expenses {
		if e.Total.Currency != currency {
			return nil, fmt.Errorf("%w: expense %s is in %q, group is in %q", ErrCurrencyMismatch, e.ID, e.Total.Currency, currency)
		}
		if ex := checkExpense(e, balances); ex != nil {
			result.ExcludedExpenses = append(result.ExcludedExpenses, ex)
			continue
		}
		if err := credit(e.PayerID, e.Total); err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		for _, s := range e.Splits {
			if s.Amount.Currency != currency {
				return nil, fmt.Errorf("%w: split %s of expense %s", ErrCurrencyMismatch, s.ID, e.ID)
			}
			if err := debit(s.UserID, s.Amount); err != nil {
				return nil, fmt.Errorf("expense %s: %w", e.ID, err)
			}
		}
	}

	for _, s := range settlements {
		if s.Status != models.SettlementCompleted {
			continue
		}
		if err := checkSettlement(s, currency, balances); err != nil {
			result.Excluded = append(result.Excluded, err)
			continue
		}
		if err := credit(s.PayerID, s.Amount); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", s.ID, err)
		}
		if err := debit(s.PayeeID, s.Amount); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", s.ID, err)
		}
	}

	total := new(big.Int)
	result.Balances = make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		net, err := b.TotalPaid.CheckedSub(b.TotalOwed)
		if err != nil {
			return nil, fmt.Errorf("net of %s: %w", b.UserID, err)
		}
		b.Net = net
		total.Add(total, big.NewInt(net.Amount))
		result.Balances = append(result.Balances, *b)
	}
	sort.Slice(result.Balances, func(i, j int) bool {
		return result.Balances[i].UserID < result.Balances[j].UserID
	})

	if total.Sign() != 0 {
		return nil, fmt.Errorf("%w: off by %s minor units of %s", ErrConservationViolated, total, currency)
	}
	return result, nil
}

// checkExpense reports an expense that references a user outside the group.
func checkExpense(e *models.Expense, members map[string]*MemberBalance) *ExcludedExpenseError {
	if _, ok := members[e.PayerID]; !ok {
		return &ExcludedExpenseError{ExpenseID: e.ID, Reason: fmt.Sprintf("payer %s is not a group member", e.PayerID)}
	}
	for _, s := range e.Splits {
		if _, ok := members[s.UserID]; !ok {
			return &ExcludedExpenseError{ExpenseID: e.ID, Reason: fmt.Sprintf("participant %s is not a group member", s.UserID)}
		}
	}
	return nil
}

// checkSettlement validates a completed settlement against the group.
func checkSettlement(s *models.Settlement, currency string, members map[string]*MemberBalance) *InvalidSettlementError {
	switch {
	case members[s.PayerID] == nil:
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("payer %s is not a group member", s.PayerID)}
	case members[s.PayeeID] == nil:
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("payee %s is not a group member", s.PayeeID)}
	case s.PayerID == s.PayeeID:
		return &InvalidSettlementError{SettlementID: s.ID, Reason: "payer and payee are the same user"}
	case s.Amount.Currency != currency:
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("amount is in %q, group is in %q", s.Amount.Currency, currency)}
	case s.Amount.Sign() <= 0:
		return &InvalidSettlementError{SettlementID: s.ID, Reason: "amount must be positive"}
	}
	return nil
}

// ValidateSettlement checks a settlement before it is recorded or completed:
// both parties must be active members, distinct, the amount positive and in
// the group's currency, and the status must allow the requested transition.
func ValidateSettlement(g *models.Group, s *models.Settlement, next models.SettlementStatus) error {
	if !g.IsActiveMember(s.PayerID) {
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("payer %s is not a group member", s.PayerID)}
	}
	if !g.IsActiveMember(s.PayeeID) {
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("payee %s is not a group member", s.PayeeID)}
	}
	if s.PayerID == s.PayeeID {
		return &InvalidSettlementError{SettlementID: s.ID, Reason: "payer and payee are the same user"}
	}
	if s.Amount.Currency != g.Currency {
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("amount is in %q, group is in %q", s.Amount.Currency, g.Currency)}
	}
	if s.Amount.Sign() <= 0 {
		return &InvalidSettlementError{SettlementID: s.ID, Reason: "amount must be positive"}
	}
	if s.Amount.Amount > money.MaxAmount {
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("amount exceeds %s", money.New(money.MaxAmount, s.Amount.Currency))}
	}
	if s.Status != 0 && !s.Status.CanTransitionTo(next) {
		return &InvalidSettlementError{SettlementID: s.ID, Reason: fmt.Sprintf("cannot move from %s to %s", s.Status, next)}
	}
	return nil
}
