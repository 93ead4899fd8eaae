package auth

import "context"

type identityContextKey struct{}
type clientIPContextKey struct{}
type userAgentContextKey struct{}

// Identity is the request-scoped authenticated identity decoded from the
// cookie. It is explicit state passed through the context, never a
// process-wide ambient value.
type Identity struct {
	UserID    string
	Username  string
	SessionID string
	Roles     []string
}

// HasRole reports whether the identity's role snapshot contains role.
func (id *Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithIdentity attaches the decoded identity to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}

// WithClientIP attaches the caller's IP address to ctx. The engine records
// it as session provenance and keys per-IP login throttling on it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for session
// provenance.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}
