package calculator

import (
	"fmt"
	"sort"

	"github.com/mmynk/splitledger/internal/money"
)

// GroupNet is one user's net position in one group.
type GroupNet struct {
	GroupID string
	Net     money.Money
}

// Summary is a user's position across all groups sharing one currency.
type Summary struct {
	Currency       string
	TotalOwed      money.Money // what the user owes, as a positive amount
	TotalOwedToYou money.Money // what others owe the user
	NetBalance     money.Money // TotalOwedToYou - TotalOwed
	Groups         []GroupNet
}

// Summarize totals userID's balances across groups, keyed by group ID.
//
// Debts and credits are summed separately and never netted against each
// other, since a user can owe in one group while being owed in another.
// One Summary is returned per currency, ordered by currency code. Totals that
// do not fit in int64 return money.ErrOverflow.
func Summarize(userID string, results map[string]*Result) ([]Summary, error) {
	byCurrency := make(map[string]*Summary)
	for groupID, r := range results {
		s, ok := byCurrency[r.Currency]
		if !ok {
			s = &Summary{
				Currency:       r.Currency,
				TotalOwed:      money.Zero(r.Currency),
				TotalOwedToYou: money.Zero(r.Currency),
				NetBalance:     money.Zero(r.Currency),
			}
			byCurrency[r.Currency] = s
		}
		net := r.Net(userID)
		var err error
		switch net.Sign() {
		case -1:
			s.TotalOwed, err = s.TotalOwed.CheckedSub(net)
		case 1:
			s.TotalOwedToYou, err = s.TotalOwedToYou.CheckedAdd(net)
		}
		if err != nil {
			return nil, fmt.Errorf("summary in %s: %w", r.Currency, err)
		}
		s.Groups = append(s.Groups, GroupNet{GroupID: groupID, Net: net})
	}

	out := make([]Summary, 0, len(byCurrency))
	for _, s := range byCurrency {
		net, err := s.TotalOwedToYou.CheckedSub(s.TotalOwed)
		if err != nil {
			return nil, fmt.Errorf("summary in %s: %w", s.Currency, err)
		}
		s.NetBalance = net
		sort.Slice(s.Groups, func(i, j int) bool { return s.Groups[i].GroupID < s.Groups[j].GroupID })
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}
