package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// TopExpenseCount is how many of the largest expenses an Analytics report lists.
const TopExpenseCount = 5

// Timeframe is the reporting window of an analytics query, ending now.
type Timeframe int

const (
	TimeframeWeek Timeframe = iota + 1
	TimeframeMonth
	TimeframeYear
)

var timeframeNames = []string{"", "week", "month", "year"}

// ParseTimeframe reads "week", "month" or "year". An empty string is a month.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return TimeframeMonth, nil
	}
	for i, name := range timeframeNames {
		if i > 0 && name == s {
			return Timeframe(i), nil
		}
	}
	return 0, fmt.Errorf("unknown timeframe %q", s)
}

func (t Timeframe) String() string {
	if t < TimeframeWeek || t > TimeframeYear {
		return fmt.Sprintf("Timeframe(%d)", int(t))
	}
	return timeframeNames[t]
}

// Since returns the start of the window that ends at now.
func (t Timeframe) Since(now time.Time) time.Time {
	switch t {
	case TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case TimeframeYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// bucket returns the start of the trend bucket holding ts: a UTC day for
// week and month windows, a UTC month for a year.
func (t Timeframe) bucket(ts int64) int64 {
	u := time.Unix(ts, 0).UTC()
	if t == TimeframeYear {
		return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
	}
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// TrendPoint totals the expenses of one bucket.
type TrendPoint struct {
	Start int64 // Unix timestamp of the bucket start
	Total money.Money
	Count int
}

// Analytics reports spending in one currency.
type Analytics struct {
	Currency   string
	TotalSpent money.Money
	Count      int
	Categories []CategoryTotal
	Trend      []TrendPoint     // oldest bucket first, empty buckets omitted
	Top        []*models.Expense // largest first
}

// ExpenseAnalytics reports on expenses already filtered to the timeframe.
// Amounts in different currencies are never added together, so one report is
// returned per currency, ordered by currency code.
func ExpenseAnalytics(t Timeframe, expenses []*models.Expense) ([]Analytics, error) {
	byCurrency := make(map[string][]*models.Expense)
	for _, e := range expenses {
		byCurrency[e.Total.Currency] = append(byCurrency[e.Total.Currency], e)
	}

	out := make([]Analytics, 0, len(byCurrency))
	for currency, list := range byCurrency {
		a, err := analyze(t, currency, list)
		if err != nil {
			return nil, fmt.Errorf("analytics in %s: %w", currency, err)
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func analyze(t Timeframe, currency string, expenses []*models.Expense) (Analytics, error) {
	a := Analytics{Currency: currency, TotalSpent: money.Zero(currency), Count: len(expenses)}

	var err error
	if a.Categories, err = CategoryTotals(currency, expenses); err != nil {
		return a, err
	}

	buckets := make(map[int64]*TrendPoint)
	for _, e := range expenses {
		if a.TotalSpent, err = a.TotalSpent.CheckedAdd(e.Total); err != nil {
			return a, err
		}
		start := t.bucket(e.CreatedAt)
		p, ok := buckets[start]
		if !ok {
			p = &TrendPoint{Start: start, Total: money.Zero(currency)}
			buckets[start] = p
		}
		if p.Total, err = p.Total.CheckedAdd(e.Total); err != nil {
			return a, err
		}
		p.Count++
	}
	a.Trend = make([]TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		a.Trend = append(a.Trend, *p)
	}
	sort.Slice(a.Trend, func(i, j int) bool { return a.Trend[i].Start < a.Trend[j].Start })

	top := make([]*models.Expense, len(expenses))
	copy(top, expenses)
	sort.SliceStable(top, func(i, j int) bool {
		if c := top[i].Total.Cmp(top[j].Total); c != 0 {
			return c > 0
		}
		if top[i].CreatedAt != top[j].CreatedAt {
			return top[i].CreatedAt > top[j].CreatedAt
		}
		return top[i].ID < top[j].ID
	})
	if len(top) > TopExpenseCount {
		top = top[:TopExpenseCount]
	}
	a.Top = top
	return a, nil
}
