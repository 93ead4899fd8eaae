package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tankcatalog/internal/auth"
	"tankcatalog/internal/catalog"
	"tankcatalog/internal/middleware"
)

type lookupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=128"`
	Description string `json:"description" binding:"max=512"`
}

type tankRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=128"`
	Tier     int    `json:"tier" binding:"required,min=1,max=11"`
	NationID string `json:"nationId" binding:"required"`
	ClassID  string `json:"classId" binding:"required"`
	StatusID string `json:"statusId" binding:"required"`
}

// mountCatalog wires the catalog routes. Reads are public, edits need a
// moderator, removals an administrator.
func (s *Server) mountCatalog(api *gin.RouterGroup) {
	edit := middleware.RequireRole(middleware.RoleModerator, middleware.RoleAdministrator)
	remove := middleware.RequireRole(middleware.RoleAdministrator)

	nations := api.Group("/nations")
	{
		nations.GET("", s.listNations)
		nations.GET("/:id", s.getNation)
		nations.POST("", edit, s.createNation)
		nations.PUT("/:id", edit, s.renameNation)
		nations.DELETE("/:id", remove, s.deleteNation)
	}

	classes := api.Group("/classes")
	{
		classes.GET("", s.listClasses)
		classes.GET("/:id", s.getClass)
		classes.POST("", edit, s.createClass)
		classes.PUT("/:id", edit, s.renameClass)
		classes.DELETE("/:id", remove, s.deleteClass)
	}

	statuses := api.Group("/statuses")
	{
		statuses.GET("", s.listStatuses)
		statuses.GET("/:id", s.getStatus)
		statuses.POST("", edit, s.createStatus)
		statuses.PUT("/:id", edit, s.updateStatus)
		statuses.DELETE("/:id", remove, s.deleteStatus)
	}

	tanks := api.Group("/tanks")
	{
		tanks.GET("", s.listTanks)
		tanks.GET("/:id", s.getTank)
		tanks.POST("", edit, s.createTank)
		tanks.PUT("/:id", edit, s.updateTank)
		tanks.DELETE("/:id", remove, s.deleteTank)
	}
}

func (s *Server) listNations(c *gin.Context) {
	nations, err := s.catalog.ListNations(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nations)
}

func (s *Server) getNation(c *gin.Context) {
	nation, err := s.catalog.GetNation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nation)
}

func (s *Server) createNation(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	nation, err := s.catalog.CreateNation(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, nation)
}

func (s *Server) renameNation(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.catalog.RenameNation(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "nation updated"})
}

func (s *Server) deleteNation(c *gin.Context) {
	if err := s.catalog.DeleteNation(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "nation deleted"})
}

func (s *Server) listClasses(c *gin.Context) {
	classes, err := s.catalog.ListClasses(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (s *Server) getClass(c *gin.Context) {
	class, err := s.catalog.GetClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (s *Server) createClass(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	class, err := s.catalog.CreateClass(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (s *Server) renameClass(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.catalog.RenameClass(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "class updated"})
}

func (s *Server) deleteClass(c *gin.Context) {
	if err := s.catalog.DeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "class deleted"})
}

func (s *Server) listStatuses(c *gin.Context) {
	statuses, err := s.catalog.ListStatuses(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (s *Server) getStatus(c *gin.Context) {
	status, err := s.catalog.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) createStatus(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	status, err := s.catalog.CreateStatus(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

func (s *Server) updateStatus(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.catalog.UpdateStatus(c.Request.Context(), c.Param("id"), req.Name, req.Description); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (s *Server) deleteStatus(c *gin.Context) {
	if err := s.catalog.DeleteStatus(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status deleted"})
}

func (s *Server) listTanks(c *gin.Context) {
	pageNumber := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)

	page, err := s.catalog.ListTanks(c.Request.Context(), pageNumber, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getTank(c *gin.Context) {
	tank, err := s.catalog.GetTank(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tank)
}

func (s *Server) createTank(c *gin.Context) {
	var req tankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ident, _ := auth.IdentityFromContext(c.Request.Context())
	tank, err := s.catalog.CreateTank(c.Request.Context(), catalog.CreateTankInput{
		Name:      req.Name,
		Tier:      req.Tier,
		NationID:  req.NationID,
		ClassID:   req.ClassID,
		StatusID:  req.StatusID,
		CreatedBy: ident.UserID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tank)
}

func (s *Server) updateTank(c *gin.Context) {
	var req tankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ident, _ := auth.IdentityFromContext(c.Request.Context())
	tank, err := s.catalog.UpdateTank(c.Request.Context(), c.Param("id"), catalog.UpdateTankInput{
		Name:      req.Name,
		Tier:      req.Tier,
		NationID:  req.NationID,
		ClassID:   req.ClassID,
		StatusID:  req.StatusID,
		UpdatedBy: ident.UserID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tank)
}

func (s *Server) deleteTank(c *gin.Context) {
	if err := s.catalog.DeleteTank(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tank deleted"})
}
