package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/reqforge/reqforge-api/internal/constants"
	"github.com/reqforge/reqforge-api/internal/database"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/repository"
	"github.com/reqforge/reqforge-api/internal/utils"
)

var (
	ErrInvalidWorkspaceName = errors.New("workspace name is required and must be less than 255 characters")
	ErrDescriptionTooLong   = errors.New("description must be less than 1000 characters")
)

// WorkspaceService provides business logic for workspace operations.
type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(workspaceRepo repository.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
	}
}

// CreateWorkspaceInput represents parameters to create a new workspace.
type CreateWorkspaceInput struct {
	OwnerID     uint64
	Name        string
	Description *string
}

// CreateWorkspace creates a workspace owned by the caller.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, input CreateWorkspaceInput) (*models.Workspace, error) {
	name, err := normalizeWorkspaceName(input.Name)
	if err != nil {
		return nil, err
	}
	description, err := normalizeDescription(input.Description)
	if err != nil {
		return nil, err
	}

	ws := &models.Workspace{
		Name:        name,
		Description: description,
		UserID:      input.OwnerID,
	}

	if err := s.workspaceRepo.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return ws, nil
}

// ListWorkspaces returns a page of the workspaces a user owns.
func (s *WorkspaceService) ListWorkspaces(ctx context.Context, ownerID uint64, page utils.PaginationParams) ([]models.Workspace, int64, error) {
	workspaces, total, err := s.workspaceRepo.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, total, nil
}

// ListSharedWorkspaces returns the workspaces a user collaborates on.
func (s *WorkspaceService) ListSharedWorkspaces(ctx context.Context, userID uint64) ([]models.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared workspaces: %w", err)
	}
	return workspaces, nil
}

// GetWorkspace retrieves a workspace by ID.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, id uint64) (*models.Workspace, error) {
	ws, err := s.workspaceRepo.FindByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	return ws, nil
}

// UpdateWorkspaceInput lists the fields that may change. Nil fields are kept.
type UpdateWorkspaceInput struct {
	Name        *string
	Description *string
}

// UpdateWorkspace updates a workspace's name and description.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, id uint64, input UpdateWorkspaceInput) (*models.Workspace, error) {
	ws, err := s.GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := normalizeWorkspaceName(*input.Name)
		if err != nil {
			return nil, err
		}
		ws.Name = name
	}
	if input.Description != nil {
		description, err := normalizeDescription(input.Description)
		if err != nil {
			return nil, err
		}
		ws.Description = description
	}

	if err := s.workspaceRepo.Update(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	return ws, nil
}

// DeleteWorkspace removes a workspace together with its collaborations.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, id uint64) error {
	if err := s.workspaceRepo.Delete(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return ErrWorkspaceNotFound
		}
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

func normalizeWorkspaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > constants.MaxWorkspaceNameLength {
		return "", ErrInvalidWorkspaceName
	}
	return name, nil
}

// normalizeDescription trims the description; blank becomes NULL.
func normalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	d := strings.TrimSpace(*description)
	if utf8.RuneCountInString(d) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if d == "" {
		return nil, nil
	}
	return &d, nil
}
