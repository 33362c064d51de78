package repository

import (
	"context"

	"github.com/reqforge/reqforge-api/internal/database"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/utils"
	"gorm.io/gorm"
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// Create creates a new workspace
func (r *GormWorkspaceRepository) Create(ctx context.Context, ws *models.Workspace) error {
	return r.db.WithContext(ctx).Create(ws).Error
}

// FindByID finds a workspace by ID
func (r *GormWorkspaceRepository) FindByID(ctx context.Context, id uint64) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.WithContext(ctx).First(&ws, id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListByOwner lists a page of workspaces owned by a user
func (r *GormWorkspaceRepository) ListByOwner(ctx context.Context, ownerID uint64, page utils.PaginationParams) ([]models.Workspace, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Where("workspaces.user_id = ?", ownerID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	workspaces := []models.Workspace{}
	if err := query.
		Scopes(database.NewestFirst("workspaces"), database.Paginate(page)).
		Find(&workspaces).Error; err != nil {
		return nil, 0, err
	}

	return workspaces, total, nil
}

// ListSharedWith lists workspaces where the user accepted an invitation
func (r *GormWorkspaceRepository) ListSharedWith(ctx context.Context, userID uint64) ([]models.Workspace, error) {
	accepted := r.db.Model(&models.Collaboration{}).
		Select("collaborations.workspace_id").
		Where("collaborations.invitee_id = ? AND collaborations.status = ?", userID, models.StatusAccepted)

	workspaces := []models.Workspace{}
	err := r.db.WithContext(ctx).
		Where("workspaces.id IN (?)", accepted).
		Scopes(database.NewestFirst("workspaces")).
		Find(&workspaces).Error
	if err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Update updates a workspace
func (r *GormWorkspaceRepository) Update(ctx context.Context, ws *models.Workspace) error {
	return r.db.WithContext(ctx).Save(ws).Error
}

// Delete deletes a workspace and all related data in a transaction
func (r *GormWorkspaceRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The foreign key cascades too; deleting here keeps drivers without
		// enforced constraints consistent.
		if err := tx.Where("workspace_id = ?", id).Delete(&models.Collaboration{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Workspace{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
