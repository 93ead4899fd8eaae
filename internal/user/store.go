// Package user persists user accounts and role membership. The auth engine
// consumes it through a narrow provider interface; the rest of the
// application only ever reads public summaries.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned when a username or email is already taken.
var ErrDuplicate = errors.New("username or email already in use")

// ErrStoreUnavailable wraps storage-engine failures.
var ErrStoreUnavailable = errors.New("user store unavailable")

// Record is a stored user account.
type Record struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// SQLStore implements account persistence on database/sql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a user store backed by db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Create inserts a new account with a generated id and returns it.
func (s *SQLStore) Create(ctx context.Context, username, email, passwordHash string) (*Record, error) {
	id, err := gonanoid.New(16)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:           id,
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Username, rec.Email, rec.PasswordHash, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return rec, nil
}

// GetByEmail returns the account for the given email, or ErrNotFound.
func (s *SQLStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	return s.getBy(ctx, "email", strings.ToLower(email))
}

// GetByID returns the account with the given id, or ErrNotFound.
func (s *SQLStore) GetByID(ctx context.Context, id string) (*Record, error) {
	return s.getBy(ctx, "id", id)
}

func (s *SQLStore) getBy(ctx context.Context, column, value string) (*Record, error) {
	var (
		rec       Record
		updatedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
		 FROM users WHERE `+column+` = ?`, value).
		Scan(&rec.ID, &rec.Username, &rec.Email, &rec.PasswordHash, &rec.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		rec.UpdatedAt = &t
	}
	return &rec, nil
}

// Roles returns the user's current role names, sorted by name.
func (s *SQLStore) Roles(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return roles, nil
}

// AddRole grants a role to the user. Granting a role twice is a no-op.
func (s *SQLStore) AddRole(ctx context.Context, userID, role string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, userID, role)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// UserIDsByRole returns the ids of all users holding the given role.
func (s *SQLStore) UserIDsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM user_roles WHERE role = ?`, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
