package handlers

import (
	"strconv"

	"github.com/codehivehq/codehive/backend/internal/middleware"
	"github.com/codehivehq/codehive/backend/internal/services"
	"github.com/codehivehq/codehive/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+param)
		return 0, false
	}
	return uint(id), true
}

// Create creates a project owned by the caller.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projects.Create(c.Request.Context(), &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// List returns the caller's projects, most recently updated first.
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"projects": projects, "count": len(projects)})
}

// GetByID returns one project with its members.
func (h *ProjectHandler) GetByID(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	requesterID := middleware.GetUserID(c)
	project, err := h.projects.Get(c.Request.Context(), projectID, &requesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Update renames or re-describes a project.
func (h *ProjectHandler) Update(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projects.Update(c.Request.Context(), projectID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}
