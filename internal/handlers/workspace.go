package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge-api/internal/dto"
	apierrors "github.com/reqforge/reqforge-api/internal/errors"
	"github.com/reqforge/reqforge-api/internal/middleware"
	"github.com/reqforge/reqforge-api/internal/services"
	"github.com/reqforge/reqforge-api/internal/utils"
	"go.uber.org/zap"
)

type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
	log              *zap.Logger
}

func NewWorkspaceHandler(workspaceService *services.WorkspaceService, log *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		log:              log,
	}
}

// CreateWorkspace creates a workspace owned by the caller
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateWorkspaceRequest struct {
		Name        string  `json:"name" binding:"required,max=255"`
		Description *string `json:"description" binding:"omitempty,max=1000"`
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	ws, err := h.workspaceService.CreateWorkspace(c.Request.Context(), services.CreateWorkspaceInput{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessWithMessage("Workspace created successfully", dto.WorkspaceResponse{
		Workspace: dto.ToWorkspaceDTO(*ws),
	}))
}

// ListWorkspaces returns a page of the caller's own workspaces
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	page := utils.GetPaginationParams(c)
	workspaces, total, err := h.workspaceService.ListWorkspaces(c.Request.Context(), userID, page)
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	pagination := page.Response(total)
	c.JSON(http.StatusOK, dto.Success(dto.WorkspaceListResponse{
		Workspaces: dto.ToWorkspaceDTOs(workspaces),
		Pagination: &pagination,
	}))
}

// ListSharedWorkspaces returns the workspaces the caller collaborates on
func (h *WorkspaceHandler) ListSharedWorkspaces(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaces, err := h.workspaceService.ListSharedWorkspaces(c.Request.Context(), userID)
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.WorkspaceListResponse{
		Workspaces: dto.ToWorkspaceDTOs(workspaces),
	}))
}

// GetWorkspace returns workspace details and the caller's role
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	// Workspace is already loaded by RequireWorkspaceAccess middleware
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}
	role, _ := middleware.GetAccessRole(c)

	c.JSON(http.StatusOK, dto.Success(dto.WorkspaceDetailResponse{
		Workspace: dto.ToWorkspaceDTO(*ws),
		Role:      role,
	}))
}

// UpdateWorkspace updates workspace details (owner only)
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	type UpdateWorkspaceRequest struct {
		Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
		Description *string `json:"description" binding:"omitempty,max=1000"`
	}

	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	updated, err := h.workspaceService.UpdateWorkspace(c.Request.Context(), ws.ID, services.UpdateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessWithMessage("Workspace updated successfully", dto.WorkspaceResponse{
		Workspace: dto.ToWorkspaceDTO(*updated),
	}))
}

// DeleteWorkspace deletes a workspace (owner only)
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	if err := h.workspaceService.DeleteWorkspace(c.Request.Context(), ws.ID); err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessWithMessage("Workspace deleted successfully", nil))
}

func (h *WorkspaceHandler) respondWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidWorkspaceName):
		apierrors.Field(c, "name", "Workspace name is required and must be less than 255 characters")
	case errors.Is(err, services.ErrDescriptionTooLong):
		apierrors.Field(c, "description", "Description must be less than 1000 characters")
	case errors.Is(err, services.ErrWorkspaceNotFound):
		apierrors.NotFound(c, "Workspace not found")
	default:
		h.log.Error("workspace request failed", zap.String("path", c.FullPath()), zap.Error(err))
		apierrors.InternalError(c, "")
	}
}
