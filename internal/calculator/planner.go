package calculator

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/mmynk/splitledger/internal/money"
)

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount money.Money
}

type position struct {
	userID string
	amount int64 // magnitude, always positive
}

func sortPositions(p []position) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].amount != p[j].amount {
			return p[i].amount > p[j].amount
		}
		return p[i].userID < p[j].userID
	})
}

// SuggestSettlements reduces net balances to a short list of payments.
//
// Greedy algorithm: repeatedly match the largest debtor with the largest
// creditor and move min(debt, credit) between them, until every balance is
// zero. Equal amounts are ordered by ascending user ID. Balances must share a
// currency and sum to zero, so the total moved equals the total debt.
func SuggestSettlements(balances map[string]money.Money) ([]Transfer, error) {
	var (
		currency  string
		net       = new(big.Int)
		creditors []position
		debtors   []position
	)
	for userID, b := range balances {
		if currency == "" {
			currency = b.Currency
		} else if b.Currency != currency {
			return nil, fmt.Errorf("%w: %q and %q", ErrCurrencyMismatch, currency, b.Currency)
		}
		if b.Amount == math.MinInt64 {
			return nil, fmt.Errorf("balance of %s: %w", userID, money.ErrOverflow)
		}
		net.Add(net, big.NewInt(b.Amount))
		switch {
		case b.Amount > 0:
			creditors = append(creditors, position{userID: userID, amount: b.Amount})
		case b.Amount < 0:
			debtors = append(debtors, position{userID: userID, amount: -b.Amount})
		}
	}
	if net.Sign() != 0 {
		return nil, fmt.Errorf("%w: off by %s minor units of %s", ErrUnbalanced, net, currency)
	}

	var transfers []Transfer
	for len(creditors) > 0 && len(debtors) > 0 {
		sortPositions(creditors)
		sortPositions(debtors)

		c, d := &creditors[0], &debtors[0]
		amount := min(c.amount, d.amount)
		transfers = append(transfers, Transfer{
			From:   d.userID,
			To:     c.userID,
			Amount: money.New(amount, currency),
		})
		c.amount -= amount
		d.amount -= amount

		if c.amount == 0 {
			creditors = creditors[1:]
		}
		if d.amount == 0 {
			debtors = debtors[1:]
		}
	}
	return transfers, nil
}
