package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tankcatalog/internal/session"
)

// UserSummary is the public view of an account returned by Login and
// Register. PasswordHash never leaves the engine.
type UserSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Roles     []string  `json:"roles"`
}

// LoginResult carries everything the HTTP layer needs to finish a login:
// the new session id, the signed cookie token with its fixed expiry, and
// the public user summary.
type LoginResult struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
	User      UserSummary
}

// Login verifies credentials, opens a new session row, and issues the
// signed identity token with the role snapshot taken at this moment.
//
// Unknown email and wrong password both map to ErrInvalidCredentials so the
// response cannot be used to enumerate accounts. A persistence failure
// aborts the login; no token is issued for an unsaved session.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if email == "" || plaintext == "" {
		return nil, ErrInvalidInput
	}

	if err := e.checkLoginBudget(ctx, email); err != nil {
		return nil, err
	}

	record, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			e.recordLoginFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := e.hasher.Verify(plaintext, record.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		e.recordLoginFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	sess := &session.Session{
		ID:             uuid.NewString(),
		UserID:         record.ID,
		LoginTime:      now,
		ExpirationTime: now.Add(e.config.SessionDuration),
		IPAddress:      clientIPFromContext(ctx),
		UserAgent:      userAgentFromContext(ctx),
	}
	if err := e.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	roles, err := e.users.Roles(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	signed, err := e.tokens.Issue(record.ID, record.Username, sess.ID, roles, sess.ExpirationTime)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(map[string]interface{}{
		"user_id":    record.ID,
		"session_id": sess.ID,
	}).Info("login succeeded")

	return &LoginResult{
		SessionID: sess.ID,
		Token:     signed,
		ExpiresAt: sess.ExpirationTime,
		User: UserSummary{
			ID:        record.ID,
			Username:  record.Username,
			Email:     record.Email,
			CreatedAt: record.CreatedAt,
			Roles:     roles,
		},
	}, nil
}
