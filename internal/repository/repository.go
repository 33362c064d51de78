package repository

import (
	"context"
	"time"

	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by exact (normalized) email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves the given columns of a user
	Update(ctx context.Context, user *models.User, columns ...string) error
}

// WorkspaceRepository defines the interface for workspace data access
type WorkspaceRepository interface {
	// Create creates a new workspace
	Create(ctx context.Context, ws *models.Workspace) error

	// FindByID finds a workspace by ID
	FindByID(ctx context.Context, id uint64) (*models.Workspace, error)

	// ListByOwner lists a page of workspaces owned by a user, newest first
	ListByOwner(ctx context.Context, ownerID uint64, page utils.PaginationParams) ([]models.Workspace, int64, error)

	// ListSharedWith lists workspaces where the user is an accepted collaborator
	ListSharedWith(ctx context.Context, userID uint64) ([]models.Workspace, error)

	// Update updates a workspace
	Update(ctx context.Context, ws *models.Workspace) error

	// Delete deletes a workspace and all of its collaborations
	Delete(ctx context.Context, id uint64) error
}

// CollaborationRepository defines the interface for invitation data access
type CollaborationRepository interface {
	// CreateWithDelivery inserts a pending collaboration and runs deliver in the
	// same transaction. A deliver error rolls the insert back.
	CreateWithDelivery(ctx context.Context, collab *models.Collaboration, deliver func(*models.Collaboration) error) error

	// FindByToken finds an invitation with its workspace and inviter names
	FindByToken(ctx context.Context, token string) (*models.InvitationView, error)

	// Transition moves a collaboration identified by token from one status to
	// another with a single conditional UPDATE. It reports whether a row changed.
	Transition(ctx context.Context, t Transition) (bool, error)

	// HasAccepted reports whether the user holds an accepted collaboration on the workspace
	HasAccepted(ctx context.Context, workspaceID, userID uint64) (bool, error)

	// ListAccepted lists accepted collaborations with invitees preloaded
	ListAccepted(ctx context.Context, workspaceID uint64) ([]models.Collaboration, error)

	// ListPending lists pending collaborations with inviters preloaded
	ListPending(ctx context.Context, workspaceID uint64) ([]models.Collaboration, error)
}

// Transition describes a guarded status change.
type Transition struct {
	Token     string
	From      models.CollaborationStatus
	To        models.CollaborationStatus
	InviteeID uint64
	At        time.Time
}
