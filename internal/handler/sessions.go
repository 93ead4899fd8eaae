package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tankcatalog/internal/session"
)

// listSessions returns session rows, optionally filtered by the userId or
// role query parameters.
func (s *Server) listSessions(c *gin.Context) {
	ctx := c.Request.Context()

	if userID := c.Query("userId"); userID != "" {
		sessions, err := s.sessions.ListByUser(ctx, userID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessions)
		return
	}

	if role := c.Query("role"); role != "" {
		s.listSessionsByRole(c, role)
		return
	}

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// listSessionsByRole collects the sessions of every user holding the role.
func (s *Server) listSessionsByRole(c *gin.Context, role string) {
	ctx := c.Request.Context()

	userIDs, err := s.users.UserIDsByRole(ctx, role)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := []*session.Session{}
	for _, userID := range userIDs {
		sessions, err := s.sessions.ListByUser(ctx, userID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		out = append(out, sessions...)
	}
	c.JSON(http.StatusOK, out)
}

// getSession returns a single session row. A syntactically invalid id is a
// client error, not a lookup miss.
func (s *Server) getSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed session id"})
		return
	}

	sess, err := s.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// deleteSession hard-removes a session row. The cookie it backed becomes
// useless on the next request.
func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed session id"})
		return
	}

	if err := s.sessions.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}
