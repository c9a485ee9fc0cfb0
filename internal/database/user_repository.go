package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/learnstate/pkg/models"
)

type userRow struct {
	ID          string       `db:"id"`
	Username    string       `db:"username"`
	PinHash     string       `db:"pin_hash"`
	TotalXP     int          `db:"total_xp"`
	Preferences string       `db:"preferences"`
	CreatedAt   time.Time    `db:"created_at"`
	LastLogin   sql.NullTime `db:"last_login"`
}

const userColumnsSQL = "id, username, pin_hash, total_xp, preferences, created_at, last_login"

func (r userRow) toModel() (*models.User, error) {
	user := &models.User{
		ID:        r.ID,
		Username:  r.Username,
		PinHash:   r.PinHash,
		TotalXP:   r.TotalXP,
		CreatedAt: r.CreatedAt,
	}
	if r.LastLogin.Valid {
		t := r.LastLogin.Time
		user.LastLogin = &t
	}
	if r.Preferences != "" {
		if err := json.Unmarshal([]byte(r.Preferences), &user.Preferences); err != nil {
			return nil, fmt.Errorf("%w: user preferences", ErrMalformedRecord)
		}
	}
	if user.Preferences == nil {
		user.Preferences = map[string]any{}
	}
	return user, nil
}

// CreateUser inserts a new user; an empty ID is filled with a random UUID
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	prefs := user.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = s.Exec(ctx, `
		INSERT INTO users (id, username, pin_hash, total_xp, preferences, created_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		user.ID, user.Username, user.PinHash, string(prefsJSON), user.CreatedAt.UTC(),
	)
	if err != nil {
		// Arguments include the PIN hash; report only the user
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

// GetUser returns a user by ID, or nil if absent
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByName returns a user by username, or nil if absent
func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

func (s *Store) getUserWhere(ctx context.Context, condition string, arg interface{}) (*models.User, error) {
	var row userRow
	err := s.Get(ctx, &row, "SELECT "+userColumnsSQL+" FROM users WHERE "+condition, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return row.toModel()
}

// ListUsers returns all users ordered by creation time
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	var rows []userRow
	if err := s.Select(ctx, &rows, "SELECT "+userColumnsSQL+" FROM users ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*models.User, 0, len(rows))
	for _, r := range rows {
		u, err := r.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateUser applies the given column updates to a user
func (s *Store) UpdateUser(ctx context.Context, id string, updates ...UserUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	columns, args, err := resolveUserUpdates(updates)
	if err != nil {
		return err
	}
	args = append(args, id)

	result, err := s.Exec(ctx, "UPDATE users SET "+buildSet(columns)+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return expectRows(result, "user")
}

// RecordLogin stamps the user's last login time
func (s *Store) RecordLogin(ctx context.Context, id string, at time.Time) error {
	result, err := s.Exec(ctx, "UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return expectRows(result, "user")
}

// DeleteUser removes a user along with their progress and review items
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM review_items WHERE user_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete review items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM progress WHERE user_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete progress: %w", err)
		}
		result, err := tx.ExecContext(ctx, s.rebind("DELETE FROM users WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return expectRows(result, "user")
	})
}

// expectRows turns a zero-row write into ErrNotFound
func expectRows(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return nil
}
