// Package token signs and verifies the identity cookie payload.
//
// The cookie carries a compact JWT whose claims are fixed at login time:
// user id, username, session id, and the role snapshot. Validity of the
// signature alone is never sufficient — every request is additionally
// cross-checked against the server-side session record by the gate
// middleware.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned for tokens that fail signature, shape, or
// time-window validation.
var ErrTokenInvalid = errors.New("invalid identity token")

// Config controls token issuance and verification.
type Config struct {
	// SigningKey is the HMAC-SHA256 secret. Required.
	SigningKey []byte
	// Issuer is stamped into and required from every token.
	Issuer string
	// Leeway tolerates small clock skew during validation.
	Leeway time.Duration
}

// IdentityClaims is the claim set baked into the identity cookie at login.
// Roles are a snapshot: changes to a user's roles take effect only after
// the session ends and a new cookie is issued.
type IdentityClaims struct {
	Username  string   `json:"name"`
	SessionID string   `json:"sid"`
	Roles     []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and parses identity tokens.
//
// A Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SigningKey) < 32 {
		return nil, errors.New("token signing key must be at least 32 bytes")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token leeway out of range")
	}
	return &Manager{config: cfg}, nil
}

// Issue signs an identity token for the given user and session. expiresAt
// is the session's fixed expiration horizon; the token never outlives it
// and is never renewed.
func (m *Manager) Issue(userID, username, sessionID string, roles []string, expiresAt time.Time) (string, error) {
	if userID == "" || sessionID == "" {
		return "", errors.New("user id and session id are required")
	}

	now := time.Now()
	claims := IdentityClaims{
		Username:  username,
		SessionID: sessionID,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.SigningKey)
}

// Parse verifies the token signature, issuer, and time window, and returns
// the decoded claims. Any failure maps to ErrTokenInvalid.
func (m *Manager) Parse(tokenStr string) (*IdentityClaims, error) {
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &IdentityClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.SigningKey, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*IdentityClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
