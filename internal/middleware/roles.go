package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tankcatalog/internal/auth"
)

// Role names mirrored from the seeded role set.
const (
	RoleAdministrator = "Administrator"
	RoleModerator     = "Moderator"
	RoleUser          = "User"
)

// RequireAuthenticated rejects anonymous requests. The session gate has
// already vouched for any identity that reaches this point.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.IdentityFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "please log in again"})
			return
		}
		c.Next()
	}
}

// RequireRole authorizes the request when the identity's role snapshot
// holds at least one of the given roles. Policies evaluate only the claims
// baked in at login; a role granted mid-session is invisible until the next
// login.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "please log in again"})
			return
		}
		for _, role := range roles {
			if ident.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "access denied"})
	}
}

// RequireSelfOrRole authorizes the request when the path parameter named
// param equals the caller's user id, or the caller holds one of the roles.
func RequireSelfOrRole(param string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "please log in again"})
			return
		}
		if c.Param(param) == ident.UserID {
			c.Next()
			return
		}
		for _, role := range roles {
			if ident.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "access denied"})
	}
}
