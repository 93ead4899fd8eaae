package auth

import "errors"

var (
	// ErrInvalidInput is returned when a request is malformed; the caller
	// can retry with corrected input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoAuthenticatedUser is returned by Logout when the request carries
	// no identity.
	ErrNoAuthenticatedUser = errors.New("no authenticated user")
	// ErrLoginRateLimited is returned when the attempt budget for an email
	// or client IP is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrAccountExists is returned when registration collides with an
	// existing username or email.
	ErrAccountExists = errors.New("account already exists")
	// ErrEngineNotReady is returned when the engine is missing a required
	// dependency.
	ErrEngineNotReady = errors.New("auth engine not ready")
)

var (
	// ErrProviderNotFound is returned by a UserProvider when no account
	// matches the lookup.
	ErrProviderNotFound = errors.New("provider: user not found")
	// ErrProviderDuplicate is returned by a UserProvider when a username or
	// email is already taken.
	ErrProviderDuplicate = errors.New("provider: duplicate identifier")
)
