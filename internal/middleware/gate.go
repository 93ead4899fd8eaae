package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tankcatalog/internal/auth"
	"tankcatalog/internal/session"
)

// SessionGate cross-checks every authenticated request against the
// server-side session record referenced by the cookie's sid claim.
//
// Anonymous traffic passes untouched. Any defect in an authenticated
// request's session — malformed sid, unknown session, closed session,
// expired session — forcibly signs the caller out: the cookie is cleared
// and the request is rejected with 401 before it reaches a handler. A
// storage failure during the lookup fails closed with 500; an unverifiable
// session is never treated as valid.
func SessionGate(store session.Store, opts CookieOptions, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		if _, err := uuid.Parse(ident.SessionID); err != nil {
			rejectSession(c, opts)
			return
		}

		sess, err := store.GetByID(c.Request.Context(), ident.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				rejectSession(c, opts)
				return
			}
			log.WithError(err).Error("session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "session validation failed",
			})
			return
		}

		if !sess.Active(time.Now().UTC()) {
			rejectSession(c, opts)
			return
		}

		c.Next()
	}
}

// rejectSession clears the identity cookie and short-circuits with 401. The
// body matches the invalid-credentials wording so probing a session id
// reveals nothing beyond "log in again".
func rejectSession(c *gin.Context, opts CookieOptions) {
	ClearIdentityCookie(c.Writer, opts)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": "please log in again",
	})
}
