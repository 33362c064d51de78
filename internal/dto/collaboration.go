package dto

import (
	"time"

	"github.com/reqforge/reqforge-api/internal/models"
)

// InvitationDTO represents a newly issued invitation. The token travels only
// by email.
type InvitationDTO struct {
	ID           uint64                     `json:"id"`
	WorkspaceID  uint64                     `json:"workspaceId"`
	InviteeEmail string                     `json:"inviteeEmail"`
	Status       models.CollaborationStatus `json:"status"`
	InvitedAt    time.Time                  `json:"invitedAt"`
	ExpiresAt    *time.Time                 `json:"expiresAt"`
}

// InvitationCreatedResponse wraps an issued invitation
type InvitationCreatedResponse struct {
	Collaboration InvitationDTO `json:"collaboration"`
}

// InvitationDetailsDTO is the public view of a pending invitation
type InvitationDetailsDTO struct {
	WorkspaceName string     `json:"workspaceName"`
	InviterName   string     `json:"inviterName"`
	InviteeEmail  string     `json:"inviteeEmail"`
	InvitedAt     time.Time  `json:"invitedAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

// AcceptResponse is returned when an invitation is accepted
type AcceptResponse struct {
	WorkspaceID uint64 `json:"workspaceId"`
}

// VerifyEmailResponse reports whether an account exists for an email
type VerifyEmailResponse struct {
	Exists bool           `json:"exists"`
	User   *PublicUserDTO `json:"user"`
}

// CollaboratorDTO is an accepted collaboration with the invitee's account
type CollaboratorDTO struct {
	ID           uint64     `json:"id"`
	InviteeID    *uint64    `json:"inviteeId"`
	InviteeName  string     `json:"inviteeName"`
	InviteeEmail string     `json:"inviteeEmail"`
	InvitedAt    time.Time  `json:"invitedAt"`
	RespondedAt  *time.Time `json:"respondedAt"`
}

// PendingInvitationDTO is a pending invitation with the inviter's name
type PendingInvitationDTO struct {
	ID           uint64     `json:"id"`
	InviteeEmail string     `json:"inviteeEmail"`
	InviterName  string     `json:"inviterName"`
	InvitedAt    time.Time  `json:"invitedAt"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

// WorkspaceCollaborationResponse lists the people around a workspace
type WorkspaceCollaborationResponse struct {
	Collaborators      []CollaboratorDTO      `json:"collaborators"`
	PendingInvitations []PendingInvitationDTO `json:"pendingInvitations"`
	UserRole           models.Role            `json:"userRole"`
}

// ToInvitationDTO converts a collaboration to DTO
func ToInvitationDTO(c models.Collaboration) InvitationDTO {
	return InvitationDTO{
		ID:           c.ID,
		WorkspaceID:  c.WorkspaceID,
		InviteeEmail: c.InviteeEmail,
		Status:       c.Status,
		InvitedAt:    c.InvitedAt,
		ExpiresAt:    c.ExpiresAt,
	}
}

// ToInvitationDetailsDTO converts an invitation view to its public details
func ToInvitationDetailsDTO(v models.InvitationView) InvitationDetailsDTO {
	return InvitationDetailsDTO{
		WorkspaceName: v.WorkspaceName,
		InviterName:   v.InviterName,
		InviteeEmail:  v.InviteeEmail,
		InvitedAt:     v.InvitedAt,
		ExpiresAt:     v.ExpiresAt,
	}
}

// ToCollaboratorDTO converts an accepted collaboration to DTO
func ToCollaboratorDTO(c models.Collaboration) CollaboratorDTO {
	dto := CollaboratorDTO{
		ID:           c.ID,
		InviteeID:    c.InviteeID,
		InviteeEmail: c.InviteeEmail,
		InvitedAt:    c.InvitedAt,
		RespondedAt:  c.RespondedAt,
	}
	if c.Invitee != nil {
		dto.InviteeName = c.Invitee.Name
		dto.InviteeEmail = c.Invitee.Email
	}
	return dto
}

// ToPendingInvitationDTO converts a pending collaboration to DTO
func ToPendingInvitationDTO(c models.Collaboration) PendingInvitationDTO {
	return PendingInvitationDTO{
		ID:           c.ID,
		InviteeEmail: c.InviteeEmail,
		InviterName:  c.Inviter.Name,
		InvitedAt:    c.InvitedAt,
		ExpiresAt:    c.ExpiresAt,
	}
}

// ToWorkspaceCollaborationResponse builds the collaboration listing
func ToWorkspaceCollaborationResponse(accepted, pending []models.Collaboration, role models.Role) WorkspaceCollaborationResponse {
	resp := WorkspaceCollaborationResponse{
		Collaborators:      make([]CollaboratorDTO, len(accepted)),
		PendingInvitations: make([]PendingInvitationDTO, len(pending)),
		UserRole:           role,
	}
	for i, c := range accepted {
		resp.Collaborators[i] = ToCollaboratorDTO(c)
	}
	for i, c := range pending {
		resp.PendingInvitations[i] = ToPendingInvitationDTO(c)
	}
	return resp
}
