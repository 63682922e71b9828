package handlers

import (
	"github.com/codehivehq/codehive/backend/internal/middleware"
	"github.com/codehivehq/codehive/backend/internal/services"
	"github.com/codehivehq/codehive/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// ProjectMemberHandler exposes the role-checked membership mutations.
type ProjectMemberHandler struct {
	projects *services.ProjectService
}

func NewProjectMemberHandler(projects *services.ProjectService) *ProjectMemberHandler {
	return &ProjectMemberHandler{projects: projects}
}

type addMembersRequest struct {
	Users []services.MemberCandidate `json:"users" binding:"required"`
}

// Add adds one or more users to the project. Already-present users are
// filtered; unknown users fail the whole call.
func (h *ProjectMemberHandler) Add(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projects.AddMembers(c.Request.Context(), projectID, middleware.GetUserID(c), req.Users)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Remove removes a member from the project.
func (h *ProjectMemberHandler) Remove(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseID(c, "userID")
	if !ok {
		return
	}

	project, err := h.projects.RemoveMember(c.Request.Context(), projectID, middleware.GetUserID(c), targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateRole changes a member's role.
func (h *ProjectMemberHandler) UpdateRole(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseID(c, "userID")
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projects.ChangeRole(c.Request.Context(), projectID, middleware.GetUserID(c), targetID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}
