package models

import (
	"fmt"
	"strings"
)

// parseEnum maps s onto the index of names. Index 0 is reserved for the
// invalid zero value and never matches.
func parseEnum[T ~int](kind string, names []string, s string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := 1; i < len(names); i++ {
		if names[i] == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func enumName(names []string, i int) string {
	if i <= 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

// SplitType selects how an expense total is divided among participants.
type SplitType int

const (
	SplitEqual SplitType = iota + 1
	SplitExact
	SplitPercentage
)

var splitTypeNames = []string{"", "equal", "exact", "percentage"}

func ParseSplitType(s string) (SplitType, error) {
	return parseEnum[SplitType]("split type", splitTypeNames, s)
}

func (t SplitType) String() string { return enumName(splitTypeNames, int(t)) }

func (t SplitType) Valid() bool { return t >= SplitEqual && t <= SplitPercentage }

func (t SplitType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid split type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *SplitType) UnmarshalText(b []byte) error {
	v, err := ParseSplitType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// SettlementStatus is the lifecycle state of a settlement.
// Completed and Rejected are terminal.
type SettlementStatus int

const (
	SettlementPending SettlementStatus = iota + 1
	SettlementCompleted
	SettlementRejected
)

var settlementStatusNames = []string{"", "pending", "completed", "rejected"}

func ParseSettlementStatus(s string) (SettlementStatus, error) {
	return parseEnum[SettlementStatus]("settlement status", settlementStatusNames, s)
}

func (s SettlementStatus) String() string { return enumName(settlementStatusNames, int(s)) }

func (s SettlementStatus) Valid() bool { return s >= SettlementPending && s <= SettlementRejected }

// Terminal reports whether no further transition is allowed.
func (s SettlementStatus) Terminal() bool {
	return s == SettlementCompleted || s == SettlementRejected
}

// CanTransitionTo reports whether s may move to next.
func (s SettlementStatus) CanTransitionTo(next SettlementStatus) bool {
	switch s {
	case SettlementPending:
		return next == SettlementCompleted || next == SettlementRejected
	case SettlementCompleted, SettlementRejected:
		return false
	default:
		return false
	}
}

func (s SettlementStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid settlement status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *SettlementStatus) UnmarshalText(b []byte) error {
	v, err := ParseSettlementStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// GroupCategory describes what a group is used for.
type GroupCategory int

const (
	GroupHome GroupCategory = iota + 1
	GroupTrip
	GroupCouple
	GroupGeneral
)

var groupCategoryNames = []string{"", "home", "trip", "couple", "general"}

func ParseGroupCategory(s string) (GroupCategory, error) {
	return parseEnum[GroupCategory]("group category", groupCategoryNames, s)
}

func (c GroupCategory) String() string { return enumName(groupCategoryNames, int(c)) }

func (c GroupCategory) Valid() bool { return c >= GroupHome && c <= GroupGeneral }

// GroupRole is a member's permission level inside a group.
type GroupRole int

const (
	RoleAdmin GroupRole = iota + 1
	RoleMember
)

var groupRoleNames = []string{"", "admin", "member"}

func ParseGroupRole(s string) (GroupRole, error) {
	return parseEnum[GroupRole]("group role", groupRoleNames, s)
}

func (r GroupRole) String() string { return enumName(groupRoleNames, int(r)) }

func (r GroupRole) Valid() bool { return r == RoleAdmin || r == RoleMember }

// ExpenseCategory classifies an expense for reporting.
type ExpenseCategory int

const (
	CategoryFood ExpenseCategory = iota + 1
	CategoryTransport
	CategoryAccommodation
	CategoryEntertainment
	CategoryShopping
	CategoryUtilities
	CategoryOther
)

var expenseCategoryNames = []string{"", "food", "transport", "accommodation", "entertainment", "shopping", "utilities", "other"}

func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	return parseEnum[ExpenseCategory]("expense category", expenseCategoryNames, s)
}

func (c ExpenseCategory) String() string { return enumName(expenseCategoryNames, int(c)) }

func (c ExpenseCategory) Valid() bool { return c >= CategoryFood && c <= CategoryOther }

// ExpenseCategories lists every category in declaration order.
func ExpenseCategories() []ExpenseCategory {
	out := make([]ExpenseCategory, 0, len(expenseCategoryNames)-1)
	for i := 1; i < len(expenseCategoryNames); i++ {
		out = append(out, ExpenseCategory(i))
	}
	return out
}
