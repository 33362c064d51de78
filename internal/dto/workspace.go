package dto

import (
	"time"

	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/utils"
)

// WorkspaceDTO represents a workspace in API responses
type WorkspaceDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	UserID      uint64    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkspaceResponse wraps a single workspace
type WorkspaceResponse struct {
	Workspace WorkspaceDTO `json:"workspace"`
}

// WorkspaceDetailResponse is a workspace with the caller's role
type WorkspaceDetailResponse struct {
	Workspace WorkspaceDTO `json:"workspace"`
	Role      models.Role  `json:"role"`
}

// WorkspaceListResponse represents a paginated list of workspaces
type WorkspaceListResponse struct {
	Workspaces []WorkspaceDTO            `json:"workspaces"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// ToWorkspaceDTO converts a workspace model to DTO
func ToWorkspaceDTO(ws models.Workspace) WorkspaceDTO {
	return WorkspaceDTO{
		ID:          ws.ID,
		Name:        ws.Name,
		Description: ws.Description,
		UserID:      ws.UserID,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

// ToWorkspaceDTOs converts a slice of workspaces
func ToWorkspaceDTOs(workspaces []models.Workspace) []WorkspaceDTO {
	dtos := make([]WorkspaceDTO, len(workspaces))
	for i, ws := range workspaces {
		dtos[i] = ToWorkspaceDTO(ws)
	}
	return dtos
}
