package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Register creates a new account with the default role. The caller still
// has to log in afterwards; registration never issues a session.
func (e *Engine) Register(ctx context.Context, username, email, plaintext string) (*UserSummary, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}
	if len(plaintext) < e.config.MinPasswordLen {
		return nil, fmt.Errorf("%w: password too short", ErrInvalidInput)
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	record, err := e.users.CreateUser(ctx, CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	if err := e.users.GrantRole(ctx, record.ID, e.config.DefaultRole); err != nil {
		return nil, err
	}

	e.log.WithField("user_id", record.ID).Info("account registered")

	return &UserSummary{
		ID:        record.ID,
		Username:  record.Username,
		Email:     record.Email,
		CreatedAt: record.CreatedAt,
		Roles:     []string{e.config.DefaultRole},
	}, nil
}
