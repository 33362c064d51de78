package repository

import (
	"context"

	"github.com/reqforge/reqforge-api/internal/models"
	"gorm.io/gorm"
)

// GormCollaborationRepository is a GORM implementation of CollaborationRepository
type GormCollaborationRepository struct {
	db *gorm.DB
}

// NewCollaborationRepository creates a new CollaborationRepository
func NewCollaborationRepository(db *gorm.DB) CollaborationRepository {
	return &GormCollaborationRepository{db: db}
}

// CreateWithDelivery inserts the collaboration and calls deliver before
// committing. Returning an error from deliver leaves no row behind.
//
// The transaction holds a pooled connection for the length of deliver, so
// callers bound it with a timeout. A commit failing after a successful send
// leaves the recipient with a dead link; that is preferred over a committed
// invitation nobody was told about.
func (r *GormCollaborationRepository) CreateWithDelivery(ctx context.Context, collab *models.Collaboration, deliver func(*models.Collaboration) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(collab).Error; err != nil {
			return err
		}
		if deliver == nil {
			return nil
		}
		return deliver(collab)
	})
}

// FindByToken finds an invitation by token along with its workspace and inviter names
func (r *GormCollaborationRepository) FindByToken(ctx context.Context, token string) (*models.InvitationView, error) {
	db := r.db.WithContext(ctx)

	var collab models.Collaboration
	if err := db.Preload("Inviter").Where("invitation_token = ?", token).First(&collab).Error; err != nil {
		return nil, err
	}

	var ws models.Workspace
	if err := db.Select("id", "name").First(&ws, collab.WorkspaceID).Error; err != nil {
		return nil, err
	}

	return &models.InvitationView{
		Collaboration: collab,
		WorkspaceName: ws.Name,
		InviterName:   collab.Inviter.Name,
	}, nil
}

// Transition applies a status change guarded by the current status and expiry.
func (r *GormCollaborationRepository) Transition(ctx context.Context, t Transition) (bool, error) {
	if err := t.From.Transition(t.To); err != nil {
		return false, err
	}

	updates := map[string]interface{}{
		"status":       t.To,
		"responded_at": t.At,
	}
	if t.InviteeID != 0 {
		updates["invitee_id"] = t.InviteeID
	}

	result := r.db.WithContext(ctx).
		Model(&models.Collaboration{}).
		Where("invitation_token = ? AND status = ?", t.Token, t.From).
		Where("(expires_at IS NULL OR expires_at > ?)", t.At).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// HasAccepted reports whether an accepted collaboration links the user to the workspace
func (r *GormCollaborationRepository) HasAccepted(ctx context.Context, workspaceID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Collaboration{}).
		Where("workspace_id = ? AND invitee_id = ? AND status = ?", workspaceID, userID, models.StatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAccepted lists accepted collaborations of a workspace, most recent first
func (r *GormCollaborationRepository) ListAccepted(ctx context.Context, workspaceID uint64) ([]models.Collaboration, error) {
	collabs := []models.Collaboration{}
	err := r.db.WithContext(ctx).
		Preload("Invitee").
		Where("workspace_id = ? AND status = ?", workspaceID, models.StatusAccepted).
		Order("responded_at DESC").
		Order("id DESC").
		Find(&collabs).Error
	if err != nil {
		return nil, err
	}
	return collabs, nil
}

// ListPending lists pending invitations of a workspace, most recent first
func (r *GormCollaborationRepository) ListPending(ctx context.Context, workspaceID uint64) ([]models.Collaboration, error) {
	collabs := []models.Collaboration{}
	err := r.db.WithContext(ctx).
		Preload("Inviter").
		Where("workspace_id = ? AND status = ?", workspaceID, models.StatusPending).
		Order("invited_at DESC").
		Order("id DESC").
		Find(&collabs).Error
	if err != nil {
		return nil, err
	}
	return collabs, nil
}
