package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// UpsertUser inserts the user or refreshes its profile fields.
// CreatedAt is kept from the first sync.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	now := time.Now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, name, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		user.ID,
		user.Email,
		user.Name,
		user.ImageURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	// Report the stored creation time back to the caller.
	err = s.db.QueryRowContext(ctx, s.rebind("SELECT created_at FROM users WHERE id = ?"), user.ID).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read back user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, email, name, image_url, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, s.rebind(query), userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.ImageURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Users that don't exist are omitted from the result.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `
		SELECT id, email, name, image_url, created_at, updated_at
		FROM users
		WHERE id IN (` + placeholders(len(ids)) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.ImageURL,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
