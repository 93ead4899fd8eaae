package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("session not found")

// ErrStoreUnavailable wraps storage-engine failures. Callers treat it as
// fatal to the current request; the validation gate fails closed on it.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store is the narrow contract through which sessions are persisted.
//
// The validation gate only ever reads; Close is the single post-creation
// writer, so no write-write race exists on a session row beyond a benign
// double logout.
type Store interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *Session) error

	// GetByID returns the session or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Session, error)

	// LatestOpenByUser returns the user's most recent session with a null
	// logout time, or ErrNotFound. Multiple concurrent logins per user are
	// permitted; only the newest open row is returned.
	LatestOpenByUser(ctx context.Context, userID string) (*Session, error)

	// Close stamps LogoutTime if it is not already set. Closing an already
	// closed session is a no-op, not an error.
	Close(ctx context.Context, id string) error

	// Delete hard-removes a session row. Administrative path only.
	Delete(ctx context.Context, id string) error

	// List returns all sessions, newest login first.
	List(ctx context.Context) ([]*Session, error)

	// ListByUser returns all of a user's sessions, newest login first.
	ListByUser(ctx context.Context, userID string) ([]*Session, error)
}
