package api

type Expense struct {
	Id          string          `json:"id"`
	GroupId     string          `json:"group_id"`
	Description string          `json:"description"`
	Total       string          `json:"total"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	PayerId     string          `json:"payer_id"`
	SplitType   string          `json:"split_type"`
	Splits      []*ExpenseSplit `json:"splits"`
	LockedBy    string          `json:"locked_by,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

type ExpenseSplit struct {
	UserId     string `json:"user_id"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage,omitempty"`
}

// Participant is one entry of a split request. Amount is read for exact
// splits and Percentage for percentage splits.
type Participant struct {
	UserId     string `json:"user_id"`
	Amount     string `json:"amount,omitempty"`
	Percentage string `json:"percentage,omitempty"`
}

type CreateExpenseRequest struct {
	GroupId      string         `json:"group_id"`
	Description  string         `json:"description"`
	Total        string         `json:"total"`
	Category     string         `json:"category,omitempty"`
	PayerId      string         `json:"payer_id,omitempty"`
	SplitType    string         `json:"split_type"`
	Participants []*Participant `json:"participants"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseId string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupId string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type UpdateExpenseRequest struct {
	ExpenseId    string         `json:"expense_id"`
	Description  string         `json:"description"`
	Total        string         `json:"total"`
	Category     string         `json:"category,omitempty"`
	PayerId      string         `json:"payer_id,omitempty"`
	SplitType    string         `json:"split_type"`
	Participants []*Participant `json:"participants"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseId string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type SplitEquallyRequest struct {
	ExpenseId string   `json:"expense_id"`
	UserIds   []string `json:"user_ids"`
}

type SplitExactlyRequest struct {
	ExpenseId string         `json:"expense_id"`
	Splits    []*Participant `json:"splits"`
}

type SplitByPercentageRequest struct {
	ExpenseId string         `json:"expense_id"`
	Splits    []*Participant `json:"splits"`
}

// SplitExpenseResponse is returned by every split adjustment.
type SplitExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// GetRecentExpensesRequest asks for the newest expenses across the caller's
// groups. Limit defaults to 10 and is capped at 100.
type GetRecentExpensesRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

type GetRecentExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// GetUserExpensesRequest pages through the expenses the caller paid or has
// a split in. Page is 1-based. StartDate and EndDate are inclusive Unix
// timestamps.
type GetUserExpensesRequest struct {
	Page      int32  `json:"page,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
	GroupId   string `json:"group_id,omitempty"`
	Category  string `json:"category,omitempty"`
	StartDate int64  `json:"start_date,omitempty"`
	EndDate   int64  `json:"end_date,omitempty"`
}

type GetUserExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
	Total    int32      `json:"total"`
	Page     int32      `json:"page"`
	PageSize int32      `json:"page_size"`
}

// SearchExpensesRequest matches Query against descriptions in the caller's
// groups. MinAmount and MaxAmount bound the total, inclusive.
type SearchExpensesRequest struct {
	Query     string `json:"query"`
	GroupId   string `json:"group_id,omitempty"`
	Category  string `json:"category,omitempty"`
	MinAmount string `json:"min_amount,omitempty"`
	MaxAmount string `json:"max_amount,omitempty"`
	Limit     int32  `json:"limit,omitempty"`
}

type SearchExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// GetExpenseAnalyticsRequest reports on the caller's groups over the last
// week, month or year. Timeframe defaults to month.
type GetExpenseAnalyticsRequest struct {
	Timeframe string `json:"timeframe,omitempty"`
	GroupId   string `json:"group_id,omitempty"`
}

type TrendPoint struct {
	Start int64  `json:"start"`
	Total string `json:"total"`
	Count int32  `json:"count"`
}

// ExpenseAnalytics is the report for one currency.
type ExpenseAnalytics struct {
	Currency          string           `json:"currency"`
	TotalSpent        string           `json:"total_spent"`
	Count             int32            `json:"count"`
	CategoryBreakdown []*CategoryTotal `json:"category_breakdown"`
	TrendData         []*TrendPoint    `json:"trend_data"`
	TopExpenses       []*Expense       `json:"top_expenses"`
}

type GetExpenseAnalyticsResponse struct {
	Timeframe string              `json:"timeframe"`
	Since     int64               `json:"since"`
	Reports   []*ExpenseAnalytics `json:"reports"`
}
