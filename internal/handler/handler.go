// Package handler exposes the HTTP API: authentication, session
// administration, and the tank catalog.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tankcatalog/internal/auth"
	"tankcatalog/internal/catalog"
	"tankcatalog/internal/middleware"
	"tankcatalog/internal/session"
	"tankcatalog/internal/token"
	"tankcatalog/internal/user"
)

// Server bundles the dependencies the route handlers share.
type Server struct {
	engine   *auth.Engine
	sessions session.Store
	users    *user.SQLStore
	catalog  *catalog.SQLStore
	tokens   *token.Manager
	cookies  middleware.CookieOptions
	log      *logrus.Logger
}

// New assembles a Server from its collaborators.
func New(
	engine *auth.Engine,
	sessions session.Store,
	users *user.SQLStore,
	cat *catalog.SQLStore,
	tokens *token.Manager,
	cookies middleware.CookieOptions,
	log *logrus.Logger,
) *Server {
	return &Server{
		engine:   engine,
		sessions: sessions,
		users:    users,
		catalog:  cat,
		tokens:   tokens,
		cookies:  cookies,
		log:      log,
	}
}

// Router builds the gin engine with the full interceptor pipeline and all
// routes mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Pipeline(s.log, s.tokens, s.sessions, s.cookies)...)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.POST("/logout", s.logout)
	}

	api.GET("/users/me", middleware.RequireAuthenticated(), s.currentUser)

	adminSessions := api.Group("/sessions", middleware.RequireRole(middleware.RoleAdministrator))
	{
		adminSessions.GET("", s.listSessions)
		adminSessions.GET("/:id", s.getSession)
		adminSessions.DELETE("/:id", s.deleteSession)
	}

	s.mountCatalog(api)

	return router
}

// queryInt reads an integer query parameter, falling back on absence or
// garbage.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// writeError translates service errors into a uniform JSON error body.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, catalog.ErrBadReference):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrNoAuthenticatedUser):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrAccountExists), errors.Is(err, catalog.ErrNameTaken):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrLoginRateLimited):
		status, message = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, session.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	default:
		s.log.WithError(err).Error("request failed")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
