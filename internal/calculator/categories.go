package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// CategoryTotal aggregates the expenses of one category.
type CategoryTotal struct {
	Category   models.ExpenseCategory
	Total      money.Money
	Count      int
	Percentage decimal.Decimal // share of the grand total, two decimals
}

// CategoryTotals groups expenses by category, largest total first.
// Categories without expenses are omitted. Totals that do not fit in int64
// return money.ErrOverflow.
func CategoryTotals(currency string, expenses []*models.Expense) ([]CategoryTotal, error) {
	byCategory := make(map[models.ExpenseCategory]*CategoryTotal)
	grand := money.Zero(currency)
	for _, e := range expenses {
		ct, ok := byCategory[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category, Total: money.Zero(currency)}
			byCategory[e.Category] = ct
		}
		var err error
		if ct.Total, err = ct.Total.CheckedAdd(e.Total); err != nil {
			return nil, fmt.Errorf("category %s: %w", e.Category, err)
		}
		ct.Count++
		if grand, err = grand.CheckedAdd(e.Total); err != nil {
			return nil, fmt.Errorf("category totals: %w", err)
		}
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		if !grand.IsZero() {
			ct.Percentage = decimal.NewFromInt(ct.Total.Amount).
				Mul(hundred).
				DivRound(decimal.NewFromInt(grand.Amount), 2)
		}
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
