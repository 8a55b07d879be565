package api

// GroupBalance is the caller's net position in one group.
type GroupBalance struct {
	GroupId   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Net       string `json:"net"`
}

// BalanceSummary totals the caller's groups sharing one currency.
type BalanceSummary struct {
	Currency       string          `json:"currency"`
	TotalOwed      string          `json:"total_owed"`
	TotalOwedToYou string          `json:"total_owed_to_you"`
	NetBalance     string          `json:"net_balance"`
	Groups         []*GroupBalance `json:"groups"`
}

type GetBalanceSummaryRequest struct{}

type GetBalanceSummaryResponse struct {
	Summaries []*BalanceSummary `json:"summaries"`
}
