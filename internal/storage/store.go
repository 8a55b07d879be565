// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a user, expense or settlement does not exist.
	ErrNotFound = errors.New("not found")

	// ErrGroupNotFound is returned when a referenced group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrConcurrentModification is returned when the group version passed to a
	// write no longer matches the stored one.
	ErrConcurrentModification = errors.New("group was modified concurrently")
)

// GroupSnapshot is a consistent view of one group's ledger, read in a single
// transaction.
type GroupSnapshot struct {
	Group       *models.Group
	Expenses    []*models.Expense
	Settlements []*models.Settlement
}

// ExpenseQuery filters expenses across groups. Zero fields do not filter.
type ExpenseQuery struct {
	// MemberID limits results to groups the user belongs or belonged to.
	MemberID string

	// InvolvedID limits results to expenses the user paid or shares in.
	InvolvedID string

	GroupID  string
	Category models.ExpenseCategory

	// Text matches a case-insensitive substring of the description.
	Text string

	// Since and Until bound CreatedAt, inclusive, as Unix timestamps.
	Since int64
	Until int64

	// Limit caps the number of expenses returned; zero returns all.
	Limit  int
	Offset int
}

// Store defines the persistence operations of the ledger.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Every write that changes a group's ledger takes the group version the caller
// read and increments it in the same transaction. A stale version fails with
// ErrConcurrentModification and nothing is written.
type Store interface {
	// UpsertUser creates the user or refreshes its profile fields.
	UpsertUser(ctx context.Context, user *models.User) error

	// GetUser returns ErrNotFound if the user has never synced.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a group together with its initial members.
	// The group.ID field will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group and every member it ever had.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID is an active member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup stores the name, description and category of group.
	UpdateGroup(ctx context.Context, group *models.Group, expectedVersion int64) error

	// DeleteGroup removes a group with its members, expenses and settlements.
	DeleteGroup(ctx context.Context, groupID string, expectedVersion int64) error

	// AddMember adds a new member or re-activates a removed one.
	AddMember(ctx context.Context, groupID string, expectedVersion int64, member models.GroupMember) error

	// RemoveMember marks an active member as removed at removedAt.
	RemoveMember(ctx context.Context, groupID string, expectedVersion int64, userID string, removedAt int64) error

	// CreateExpense persists an expense and its splits.
	CreateExpense(ctx context.Context, expense *models.Expense, expectedVersion int64) error

	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses returns a group's expenses, newest first.
	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)

	// SearchExpenses returns the expenses matching q, newest first, and the
	// number of matches ignoring Limit and Offset.
	SearchExpenses(ctx context.Context, q ExpenseQuery) ([]*models.Expense, int, error)

	// UpdateExpense rewrites an expense and replaces all of its splits.
	UpdateExpense(ctx context.Context, expense *models.Expense, expectedVersion int64) error

	// DeleteExpense removes an expense; its splits go with it.
	DeleteExpense(ctx context.Context, groupID, expenseID string, expectedVersion int64) error

	CreateSettlement(ctx context.Context, settlement *models.Settlement, expectedVersion int64) error

	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlements returns a group's settlements, newest first.
	ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// UpdateSettlementStatus stores a status transition. Completing a
	// settlement also locks every unlocked expense of the group created at or
	// before settlement.CompletedAt.
	UpdateSettlementStatus(ctx context.Context, settlement *models.Settlement, expectedVersion int64) error

	// Snapshot reads a group with all its expenses and settlements at once.
	Snapshot(ctx context.Context, groupID string) (*GroupSnapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
