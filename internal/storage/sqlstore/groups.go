package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const groupColumns = "id, name, description, category, currency, created_by, version, created_at, updated_at"

// CreateGroup persists a new group with its initial members.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if group.CreatedAt == 0 {
		group.CreatedAt = now
	}
	group.UpdatedAt = group.CreatedAt
	group.Version = 0

	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO groups (`+groupColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			group.ID, group.Name, group.Description, group.Category.String(), group.Currency,
			group.CreatedBy, group.Version, group.CreatedAt, group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for i := range group.Members {
			m := &group.Members[i]
			if m.JoinedAt == 0 {
				m.JoinedAt = group.CreatedAt
			}
			if err := s.insertMember(ctx, tx, group.ID, *m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) insertMember(ctx context.Context, q querier, groupID string, m models.GroupMember) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO group_members (group_id, user_id, role, joined_at, removed_at)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT (group_id, user_id) DO UPDATE SET
			role = excluded.role,
			joined_at = excluded.joined_at,
			removed_at = NULL`),
		groupID, m.UserID, m.Role.String(), m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, including all members ever added.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.loadGroup(ctx, s.db, groupID)
}

func (s *Store) loadGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	row := q.QueryRowContext(ctx, s.rebind("SELECT "+groupColumns+" FROM groups WHERE id = ?"), groupID)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrGroupNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.loadMembers(ctx, q, []string{groupID})
	if err != nil {
		return nil, err
	}
	group.Members = members[groupID]
	return group, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	var category string
	if err := row.Scan(&group.ID, &group.Name, &group.Description, &category, &group.Currency,
		&group.CreatedBy, &group.Version, &group.CreatedAt, &group.UpdatedAt); err != nil {
		return nil, err
	}
	c, err := models.ParseGroupCategory(category)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", group.ID, err)
	}
	group.Category = c
	return group, nil
}

// loadMembers returns the members of each group, ordered by join time.
func (s *Store) loadMembers(ctx context.Context, q querier, groupIDs []string) (map[string][]models.GroupMember, error) {
	out := make(map[string][]models.GroupMember, len(groupIDs))
	if len(groupIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(groupIDs))
	for i, id := range groupIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT group_id, user_id, role, joined_at, removed_at
		FROM group_members
		WHERE group_id IN (`+placeholders(len(groupIDs))+`)
		ORDER BY joined_at, user_id`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			groupID, role string
			removedAt     sql.NullInt64
			m             models.GroupMember
		)
		if err := rows.Scan(&groupID, &m.UserID, &role, &m.JoinedAt, &removedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if m.Role, err = models.ParseGroupRole(role); err != nil {
			return nil, fmt.Errorf("member %s of group %s: %w", m.UserID, groupID, err)
		}
		m.RemovedAt = removedAt.Int64
		out[groupID] = append(out[groupID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return out, nil
}

// ListGroupsForUser returns the groups userID currently belongs to, most
// recently updated first.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT g.id, g.name, g.description, g.category, g.currency, g.created_by, g.version, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ? AND m.removed_at IS NULL
		ORDER BY g.updated_at DESC, g.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var (
		groups []*models.Group
		ids    []string
	)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
		ids = append(ids, group.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	members, err := s.loadMembers(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.Members = members[g.ID]
	}
	return groups, nil
}

// UpdateGroup stores the editable fields of a group. Currency and members are
// not touched.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group, expectedVersion int64) error {
	now := time.Now().Unix()
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, group.ID, expectedVersion, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE groups SET name = ?, description = ?, category = ?
			WHERE id = ?`),
			group.Name, group.Description, group.Category.String(), group.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		group.Version = expectedVersion + 1
		group.UpdatedAt = now
		return nil
	})
}

// DeleteGroup removes a group. Members, expenses, splits and settlements are
// removed by cascade.
func (s *Store) DeleteGroup(ctx context.Context, groupID string, expectedVersion int64) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, groupID, expectedVersion, time.Now().Unix()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM groups WHERE id = ?"), groupID); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return nil
	})
}

// AddMember adds member to the group, re-activating them if they were removed.
func (s *Store) AddMember(ctx context.Context, groupID string, expectedVersion int64, member models.GroupMember) error {
	now := time.Now().Unix()
	if member.JoinedAt == 0 {
		member.JoinedAt = now
	}
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, groupID, expectedVersion, now); err != nil {
			return err
		}
		return s.insertMember(ctx, tx, groupID, member)
	})
}

// RemoveMember marks an active member as removed.
func (s *Store) RemoveMember(ctx context.Context, groupID string, expectedVersion int64, userID string, removedAt int64) error {
	if removedAt == 0 {
		removedAt = time.Now().Unix()
	}
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.bumpVersion(ctx, tx, groupID, expectedVersion, removedAt); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE group_members SET removed_at = ?
			WHERE group_id = ? AND user_id = ? AND removed_at IS NULL`),
			removedAt, groupID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: member %s of group %s", storage.ErrNotFound, userID, groupID)
		}
		return nil
	})
}

// Snapshot reads a group, its expenses and its settlements in one transaction.
func (s *Store) Snapshot(ctx context.Context, groupID string) (*storage.GroupSnapshot, error) {
	snap := &storage.GroupSnapshot{}
	err := s.inTx(ctx, s.dialect.snapshotTx, func(tx *sql.Tx) error {
		var err error
		if snap.Group, err = s.loadGroup(ctx, tx, groupID); err != nil {
			return err
		}
		if snap.Expenses, err = s.loadExpenses(ctx, tx, "e.group_id = ?", groupID); err != nil {
			return err
		}
		snap.Settlements, err = s.loadSettlements(ctx, tx, "group_id = ?", groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
