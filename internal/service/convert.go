package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		Id:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		ImageUrl:  u.ImageURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]*api.GroupMember, len(g.Members))
	for i, m := range g.Members {
		members[i] = &api.GroupMember{
			UserId:    m.UserID,
			Role:      m.Role.String(),
			JoinedAt:  m.JoinedAt,
			RemovedAt: m.RemovedAt,
		}
	}
	return &api.Group{
		Id:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Category:    g.Category.String(),
		Currency:    g.Currency,
		CreatedBy:   g.CreatedBy,
		Version:     g.Version,
		Members:     members,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]*api.ExpenseSplit, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &api.ExpenseSplit{
			UserId: s.UserID,
			Amount: s.Amount.Decimal(),
		}
		if s.Percentage.Valid {
			splits[i].Percentage = s.Percentage.Decimal.String()
		}
	}
	return &api.Expense{
		Id:          e.ID,
		GroupId:     e.GroupID,
		Description: e.Description,
		Total:       e.Total.Decimal(),
		Currency:    e.Total.Currency,
		Category:    e.Category.String(),
		PayerId:     e.PayerID,
		SplitType:   e.SplitType.String(),
		Splits:      splits,
		LockedBy:    e.LockedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toAPICategoryTotals(totals []calculator.CategoryTotal) []*api.CategoryTotal {
	out := make([]*api.CategoryTotal, len(totals))
	for i, ct := range totals {
		out[i] = &api.CategoryTotal{
			Category:   ct.Category.String(),
			Total:      ct.Total.Decimal(),
			Count:      int32(ct.Count),
			Percentage: ct.Percentage.StringFixed(2),
		}
	}
	return out
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		Id:          s.ID,
		GroupId:     s.GroupID,
		PayerId:     s.PayerID,
		PayeeId:     s.PayeeID,
		Amount:      s.Amount.Decimal(),
		Currency:    s.Amount.Currency,
		Description: s.Description,
		Status:      s.Status.String(),
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		CompletedAt: s.CompletedAt,
	}
}

// parseParticipants converts wire participants. Amounts are parsed in
// currency; blank amounts and percentages are left zero for the split
// engine to judge.
func parseParticipants(currency string, in []*api.Participant) ([]calculator.Participant, error) {
	out := make([]calculator.Participant, len(in))
	for i, p := range in {
		if p == nil {
			return nil, invalidArgument("participant %d is empty", i)
		}
		out[i] = calculator.Participant{UserID: p.UserId, Amount: money.Zero(currency)}
		if p.Amount != "" {
			amount, err := money.Parse(p.Amount, currency)
			if err != nil {
				return nil, invalidArgument("participant %s: %v", p.UserId, err)
			}
			out[i].Amount = amount
		}
		if p.Percentage != "" {
			pct, err := decimal.NewFromString(p.Percentage)
			if err != nil {
				return nil, invalidArgument("participant %s: invalid percentage %q", p.UserId, p.Percentage)
			}
			out[i].Percentage = pct
		}
	}
	return out, nil
}

func parseSplitType(s string) (models.SplitType, error) {
	t, err := models.ParseSplitType(s)
	if err != nil {
		return 0, invalidArgument("%v", err)
	}
	return t, nil
}

// parseExpenseCategory accepts an empty string as "use the default".
func parseExpenseCategory(s string) (models.ExpenseCategory, error) {
	if s == "" {
		return 0, nil
	}
	c, err := models.ParseExpenseCategory(s)
	if err != nil {
		return 0, invalidArgument("%v", err)
	}
	return c, nil
}
