package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, user_id, login_time, expiration_time, logout_time, ip_address, user_agent"

// SQLStore implements Store on top of database/sql. Every method is a
// single statement; the gate's hot-path lookup is one indexed point read.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a Store backed by db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" || sess.UserID == "" {
		return errors.New("session: missing id or user id")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.UserID,
		sess.LoginTime,
		sess.ExpirationTime,
		nullableTime(sess.LogoutTime),
		sess.IPAddress,
		sess.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLStore) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (s *SQLStore) LatestOpenByUser(ctx context.Context, userID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = ? AND logout_time IS NULL
		 ORDER BY login_time DESC LIMIT 1`, userID)
	return scanSession(row)
}

func (s *SQLStore) Close(ctx context.Context, id string) error {
	// The logout_time IS NULL guard makes double logout a no-op and keeps
	// the stamp immutable once set.
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET logout_time = ? WHERE id = ? AND logout_time IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY login_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = ? ORDER BY login_time DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// DeleteRetired removes sessions that expired or were closed before the
// cutoff. Used by the reaper, never by the request path.
func (s *SQLStore) DeleteRetired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions
		 WHERE expiration_time < ? OR (logout_time IS NOT NULL AND logout_time < ?)`,
		cutoff, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess       Session
		logoutTime sql.NullTime
	)
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.LoginTime,
		&sess.ExpirationTime,
		&logoutTime,
		&sess.IPAddress,
		&sess.UserAgent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if logoutTime.Valid {
		t := logoutTime.Time
		sess.LogoutTime = &t
	}
	return &sess, nil
}

func collectSessions(rows *sql.Rows) ([]*Session, error) {
	sessions := []*Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return sessions, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
