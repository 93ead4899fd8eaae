package middleware

import (
	"github.com/gin-gonic/gin"

	"tankcatalog/internal/auth"
	"tankcatalog/internal/token"
)

// Provenance attaches the caller's IP address and User-Agent to the request
// context so the auth engine can record session provenance and key its
// login throttle.
func Provenance() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = auth.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Identity decodes the identity cookie into an auth.Identity on the request
// context. A missing or unparsable cookie leaves the request anonymous;
// rejecting stale sessions is the gate's job, not this decoder's.
func Identity(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(IdentityCookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			c.Next()
			return
		}

		ident := &auth.Identity{
			UserID:    claims.Subject,
			Username:  claims.Username,
			SessionID: claims.SessionID,
			Roles:     claims.Roles,
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), ident))
		c.Next()
	}
}
