package api

type Group struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category"`
	Currency    string         `json:"currency"`
	CreatedBy   string         `json:"created_by"`
	Version     int64          `json:"version"`
	Members     []*GroupMember `json:"members"`
	CreatedAt   int64          `json:"created_at"`
	UpdatedAt   int64          `json:"updated_at"`
}

type GroupMember struct {
	UserId    string `json:"user_id"`
	Role      string `json:"role"`
	JoinedAt  int64  `json:"joined_at"`
	RemovedAt int64  `json:"removed_at,omitempty"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	MemberIds   []string `json:"member_ids,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupId string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

// UpdateGroupRequest changes a group's details. Empty fields are left as
// they are; a set Description replaces the old one, even when empty.
type UpdateGroupRequest struct {
	GroupId     string  `json:"group_id"`
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupId string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupId string `json:"group_id"`
	UserId  string `json:"user_id"`
	Role    string `json:"role,omitempty"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupId string `json:"group_id"`
	UserId  string `json:"user_id"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

// MemberBalance is one member's position in a group.
// Net is positive when the member is owed money.
type MemberBalance struct {
	UserId    string `json:"user_id"`
	Net       string `json:"net"`
	TotalPaid string `json:"total_paid"`
	TotalOwed string `json:"total_owed"`
}

// ExcludedSettlement is a completed settlement left out of the balances
// because it no longer fits the group.
type ExcludedSettlement struct {
	SettlementId string `json:"settlement_id"`
	Reason       string `json:"reason"`
}

// ExcludedExpense is an expense left out of the balances because its payer
// or one of its participants is not a member of the group.
type ExcludedExpense struct {
	ExpenseId string `json:"expense_id"`
	Reason    string `json:"reason"`
}

type GetGroupBalancesRequest struct {
	GroupId string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	Currency         string                `json:"currency"`
	Balances         []*MemberBalance      `json:"balances"`
	Excluded         []*ExcludedSettlement `json:"excluded,omitempty"`
	ExcludedExpenses []*ExcludedExpense    `json:"excluded_expenses,omitempty"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type SuggestSettlementsRequest struct {
	GroupId string `json:"group_id"`
}

type SuggestSettlementsResponse struct {
	Currency  string      `json:"currency"`
	Transfers []*Transfer `json:"transfers"`
}

type CategoryTotal struct {
	Category   string `json:"category"`
	Total      string `json:"total"`
	Count      int32  `json:"count"`
	Percentage string `json:"percentage"`
}

type GetCategoryTotalsRequest struct {
	GroupId string `json:"group_id"`
}

type GetCategoryTotalsResponse struct {
	Currency string           `json:"currency"`
	Totals   []*CategoryTotal `json:"totals"`
}
