package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const settlementColumns = `id, group_id, payer_id, payee_id, amount_minor, currency, description,
	status, created_by, created_at, updated_at, completed_at`

// CreateSettlement persists a new settlement to the database.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement, expectedVersion int64) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = now
	}
	settlement.UpdatedAt = settlement.CreatedAt

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, settlement.GroupID, expectedVersion, now); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO settlements (`+settlementColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			settlement.ID, settlement.GroupID, settlement.PayerID, settlement.PayeeID,
			settlement.Amount.Amount, settlement.Amount.Currency, settlement.Description,
			settlement.Status.String(), settlement.CreatedBy, settlement.CreatedAt, settlement.UpdatedAt,
			nullInt64(settlement.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
		return nil
	})
}

// GetSettlement retrieves a settlement by ID.
func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlements, err := s.loadSettlements(ctx, s.db, "id = ?", settlementID)
	if err != nil {
		return nil, err
	}
	if len(settlements) == 0 {
		return nil, fmt.Errorf("%w: settlement %s", storage.ErrNotFound, settlementID)
	}
	return settlements[0], nil
}

// ListSettlements retrieves all settlements for a group.
func (s *Store) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return s.loadSettlements(ctx, s.db, "group_id = ?", groupID)
}

// UpdateSettlementStatus stores the settlement's new status. When the status
// is completed, the group's unlocked expenses up to the completion time are
// locked by this settlement in the same transaction.
func (s *Store) UpdateSettlementStatus(ctx context.Context, settlement *models.Settlement, expectedVersion int64) error {
	now := time.Now().Unix()
	settlement.UpdatedAt = now
	if settlement.Status == models.SettlementCompleted && settlement.CompletedAt == 0 {
		settlement.CompletedAt = now
	}

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, settlement.GroupID, expectedVersion, now); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE settlements SET status = ?, updated_at = ?, completed_at = ?
			WHERE id = ? AND group_id = ?`),
			settlement.Status.String(), settlement.UpdatedAt, nullInt64(settlement.CompletedAt),
			settlement.ID, settlement.GroupID,
		)
		if err != nil {
			return fmt.Errorf("failed to update settlement: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to update settlement: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: settlement %s", storage.ErrNotFound, settlement.ID)
		}

		if settlement.Status != models.SettlementCompleted {
			return nil
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE expenses SET locked_by = ?
			WHERE group_id = ? AND locked_by IS NULL AND created_at <= ?`),
			settlement.ID, settlement.GroupID, settlement.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to lock expenses: %w", err)
		}
		return nil
	})
}

func (s *Store) loadSettlements(ctx context.Context, q querier, where string, args ...any) ([]*models.Settlement, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT `+settlementColumns+`
		FROM settlements
		WHERE `+where+`
		ORDER BY created_at DESC, id`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		var (
			st          models.Settlement
			status      string
			completedAt sql.NullInt64
		)
		if err := rows.Scan(&st.ID, &st.GroupID, &st.PayerID, &st.PayeeID, &st.Amount.Amount, &st.Amount.Currency,
			&st.Description, &status, &st.CreatedBy, &st.CreatedAt, &st.UpdatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if st.Status, err = models.ParseSettlementStatus(status); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", st.ID, err)
		}
		st.CompletedAt = completedAt.Int64
		settlements = append(settlements, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
