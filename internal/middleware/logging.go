package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tankcatalog/internal/session"
	"tankcatalog/internal/token"
)

// RequestLogger emits one structured line per request.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("request handled")
	}
}

// Pipeline returns the global interceptors in their mandatory order:
// recovery, logging, provenance capture, identity decoding, then the
// session validation gate. The gate must run after Identity and before any
// route-level authorization; reordering this list silently turns the
// server-side revocation check into a fail-open path.
func Pipeline(log *logrus.Logger, tokens *token.Manager, store session.Store, opts CookieOptions) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		gin.Recovery(),
		RequestLogger(log),
		Provenance(),
		Identity(tokens),
		SessionGate(store, opts, log),
	}
}
