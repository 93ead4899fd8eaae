// Package auth orchestrates login, logout, and registration around the
// server-side session table. The engine issues the signed identity cookie
// but never trusts it by itself; per-request trust decisions live in the
// session validation gate.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"tankcatalog/internal/password"
	"tankcatalog/internal/session"
	"tankcatalog/internal/token"
)

// UserRecord is the account view the engine needs from its credential
// store: enough to verify a password and describe the user, nothing more.
type UserRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserInput carries a new account into the credential store.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// UserProvider is the credential-store contract the engine consumes.
// Implementations return ErrProviderNotFound and ErrProviderDuplicate for
// the corresponding conditions.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	GetUserByID(ctx context.Context, id string) (*UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*UserRecord, error)
	Roles(ctx context.Context, userID string) ([]string, error)
	GrantRole(ctx context.Context, userID, role string) error
}

// Config holds the engine's tunables. SessionDuration is the single
// external parameter controlling the expiration horizon of new sessions;
// already-issued sessions are never affected by changing it.
type Config struct {
	SessionDuration time.Duration
	DefaultRole     string
	MinPasswordLen  int
}

func (c *Config) applyDefaults() {
	if c.SessionDuration <= 0 {
		c.SessionDuration = 30 * time.Minute
	}
	if c.DefaultRole == "" {
		c.DefaultRole = "User"
	}
	if c.MinPasswordLen <= 0 {
		c.MinPasswordLen = 6
	}
}

// Engine wires the credential store, session store, password hasher, token
// manager, and optional login limiter together.
//
// Engine instances are configured once and safe for concurrent use.
type Engine struct {
	config   Config
	sessions session.Store
	users    UserProvider
	hasher   *password.Hasher
	tokens   *token.Manager
	limiter  *LoginLimiter
	log      *logrus.Logger
}

// NewEngine validates dependencies and returns a ready Engine. limiter may
// be nil, which disables login throttling.
func NewEngine(
	cfg Config,
	sessions session.Store,
	users UserProvider,
	hasher *password.Hasher,
	tokens *token.Manager,
	limiter *LoginLimiter,
	log *logrus.Logger,
) (*Engine, error) {
	if sessions == nil || users == nil || hasher == nil || tokens == nil {
		return nil, ErrEngineNotReady
	}
	if log == nil {
		log = logrus.New()
	}
	cfg.applyDefaults()

	return &Engine{
		config:   cfg,
		sessions: sessions,
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		limiter:  limiter,
		log:      log,
	}, nil
}

// SessionDuration returns the configured expiration horizon for new logins.
func (e *Engine) SessionDuration() time.Duration {
	return e.config.SessionDuration
}

// checkLoginBudget enforces the attempt budget when a limiter is present.
// Limiter infrastructure failures are logged and skipped so a Redis outage
// cannot lock everyone out.
func (e *Engine) checkLoginBudget(ctx context.Context, email string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.Check(ctx, email, clientIPFromContext(ctx))
	if err == nil || errors.Is(err, ErrLoginRateLimited) {
		return err
	}
	e.log.WithError(err).Warn("login limiter unavailable, skipping throttle check")
	return nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, email string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.RecordFailure(ctx, email, clientIPFromContext(ctx)); err != nil &&
		!errors.Is(err, ErrLoginRateLimited) {
		e.log.WithError(err).Warn("login limiter unavailable, failure not recorded")
	}
}
