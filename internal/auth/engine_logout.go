package auth

import (
	"context"
	"errors"
	"fmt"

	"tankcatalog/internal/session"
)

// Logout closes the caller's most recent open session. Logging out without
// an open session is a success, not an error; the HTTP layer clears the
// cookie unconditionally either way.
func (e *Engine) Logout(ctx context.Context) error {
	ident, ok := IdentityFromContext(ctx)
	if !ok || ident.UserID == "" {
		return ErrNoAuthenticatedUser
	}

	latest, err := e.sessions.LatestOpenByUser(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find open session: %w", err)
	}

	if err := e.sessions.Close(ctx, latest.ID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	e.log.WithFields(map[string]interface{}{
		"user_id":    ident.UserID,
		"session_id": latest.ID,
	}).Info("logout succeeded")

	return nil
}
