package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tankcatalog/internal/auth"
	"tankcatalog/internal/middleware"
	"tankcatalog/internal/user"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, err := s.engine.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// login verifies credentials, opens a session, and hands the signed
// identity back as an HTTP-only cookie. The token never appears in the
// response body.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.engine.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	middleware.SetIdentityCookie(c.Writer, result.Token, result.ExpiresAt, s.cookies)
	c.JSON(http.StatusOK, gin.H{
		"user":      result.User,
		"expiresAt": result.ExpiresAt,
	})
}

// logout closes the caller's open session and drops the cookie. It
// succeeds for anonymous callers too so repeated logouts are harmless.
func (s *Server) logout(c *gin.Context) {
	err := s.engine.Logout(c.Request.Context())
	if err != nil && !errors.Is(err, auth.ErrNoAuthenticatedUser) {
		s.writeError(c, err)
		return
	}

	middleware.ClearIdentityCookie(c.Writer, s.cookies)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) currentUser(c *gin.Context) {
	ident, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please log in again"})
		return
	}

	record, err := s.users.GetByID(c.Request.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Account deleted while the session was still open.
			middleware.ClearIdentityCookie(c.Writer, s.cookies)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "please log in again"})
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       record.ID,
		"username": record.Username,
		"email":    record.Email,
		"roles":    ident.Roles,
	})
}
