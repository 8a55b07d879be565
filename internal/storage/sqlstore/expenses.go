package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateExpense persists a new expense and its splits.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense, expectedVersion int64) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = expense.CreatedAt

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, expense.GroupID, expectedVersion, now); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO expenses (id, group_id, description, amount_minor, currency, category,
				payer_id, split_type, locked_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			expense.ID, expense.GroupID, expense.Description, expense.Total.Amount, expense.Total.Currency,
			expense.Category.String(), expense.PayerID, expense.SplitType.String(),
			nullString(expense.LockedBy), expense.CreatedAt, expense.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return s.insertSplits(ctx, tx, expense)
	})
}

func (s *Store) insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Splits {
		split := &expense.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.ExpenseID = expense.ID
		if split.CreatedAt == 0 {
			split.CreatedAt = expense.UpdatedAt
		}

		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO expense_splits (id, expense_id, user_id, position, amount_minor, split_type, percentage, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			split.ID, split.ExpenseID, split.UserID, i, split.Amount.Amount,
			split.SplitType.String(), split.Percentage, split.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits in input order.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expenses, err := s.loadExpenses(ctx, s.db, "e.id = ?", expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	return expenses[0], nil
}

// ListExpenses retrieves all expenses of a group.
func (s *Store) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.loadExpenses(ctx, s.db, "e.group_id = ?", groupID)
}

// SearchExpenses returns one page of the expenses matching q.
func (s *Store) SearchExpenses(ctx context.Context, q storage.ExpenseQuery) ([]*models.Expense, int, error) {
	var (
		conds []string
		args  []any
	)
	if q.MemberID != "" {
		conds = append(conds, "e.group_id IN (SELECT group_id FROM group_members WHERE user_id = ?)")
		args = append(args, q.MemberID)
	}
	if q.InvolvedID != "" {
		conds = append(conds, "(e.payer_id = ? OR EXISTS (SELECT 1 FROM expense_splits s WHERE s.expense_id = e.id AND s.user_id = ?))")
		args = append(args, q.InvolvedID, q.InvolvedID)
	}
	if q.GroupID != "" {
		conds = append(conds, "e.group_id = ?")
		args = append(args, q.GroupID)
	}
	if q.Category != 0 {
		conds = append(conds, "e.category = ?")
		args = append(args, q.Category.String())
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		conds = append(conds, `LOWER(e.description) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(text))+"%")
	}
	if q.Since != 0 {
		conds = append(conds, "e.created_at >= ?")
		args = append(args, q.Since)
	}
	if q.Until != 0 {
		conds = append(conds, "e.created_at <= ?")
		args = append(args, q.Until)
	}
	where := "1 = 1"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM expenses e WHERE "+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	page := "SELECT e.id FROM expenses e WHERE " + where + " ORDER BY e.created_at DESC, e.id"
	pageArgs := append([]any(nil), args...)
	if q.Limit > 0 {
		page += " LIMIT ? OFFSET ?"
		pageArgs = append(pageArgs, q.Limit, q.Offset)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(page), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search expenses: %w", err)
	}
	var ids []any
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan expense id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(ids) == 0 {
		return nil, total, nil
	}

	expenses, err := s.loadExpenses(ctx, s.db, "e.id IN ("+placeholders(len(ids))+")", ids...)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// UpdateExpense rewrites the expense row and replaces its splits.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense, expectedVersion int64) error {
	now := time.Now().Unix()
	expense.UpdatedAt = now

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, expense.GroupID, expectedVersion, now); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE expenses SET description = ?, amount_minor = ?, currency = ?, category = ?,
				payer_id = ?, split_type = ?, updated_at = ?
			WHERE id = ? AND group_id = ?`),
			expense.Description, expense.Total.Amount, expense.Total.Currency, expense.Category.String(),
			expense.PayerID, expense.SplitType.String(), expense.UpdatedAt,
			expense.ID, expense.GroupID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: expense %s", storage.ErrNotFound, expense.ID)
		}

		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM expense_splits WHERE expense_id = ?"), expense.ID); err != nil {
			return fmt.Errorf("failed to delete splits: %w", err)
		}
		for i := range expense.Splits {
			expense.Splits[i].ID = ""
			expense.Splits[i].CreatedAt = 0
		}
		return s.insertSplits(ctx, tx, expense)
	})
}

// DeleteExpense removes an expense. Splits are removed by cascade.
func (s *Store) DeleteExpense(ctx context.Context, groupID, expenseID string, expectedVersion int64) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, groupID, expectedVersion, time.Now().Unix()); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM expenses WHERE id = ? AND group_id = ?"), expenseID, groupID)
		if err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
		}
		return nil
	})
}

// loadExpenses reads the expenses matching where (against alias e), newest
// first, then attaches their splits with a second query.
func (s *Store) loadExpenses(ctx context.Context, q querier, where string, args ...any) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT e.id, e.group_id, e.description, e.amount_minor, e.currency, e.category,
			e.payer_id, e.split_type, e.locked_by, e.created_at, e.updated_at
		FROM expenses e
		WHERE `+where+`
		ORDER BY e.created_at DESC, e.id`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		var (
			e                   models.Expense
			category, splitType string
			lockedBy            sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Total.Amount, &e.Total.Currency, &category,
			&e.PayerID, &splitType, &lockedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if e.Category, err = models.ParseExpenseCategory(category); err != nil {
			rows.Close()
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		if e.SplitType, err = models.ParseSplitType(splitType); err != nil {
			rows.Close()
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		e.LockedBy = lockedBy.String
		expenses = append(expenses, &e)
		byID[e.ID] = &e
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return nil, nil
	}

	splitRows, err := q.QueryContext(ctx, s.rebind(`
		SELECT s.id, s.expense_id, s.user_id, s.amount_minor, e.currency, s.split_type, s.percentage, s.created_at
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		WHERE `+where+`
		ORDER BY s.expense_id, s.position`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var (
			split     models.ExpenseSplit
			amount    int64
			currency  string
			splitType string
		)
		if err := splitRows.Scan(&split.ID, &split.ExpenseID, &split.UserID, &amount, &currency,
			&splitType, &split.Percentage, &split.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		split.Amount = money.New(amount, currency)
		if split.SplitType, err = models.ParseSplitType(splitType); err != nil {
			return nil, fmt.Errorf("split %s: %w", split.ID, err)
		}
		if e, ok := byID[split.ExpenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expenses, nil
}
