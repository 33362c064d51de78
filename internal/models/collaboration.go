package models

import (
	"errors"
	"fmt"
	"time"
)

type CollaborationStatus string

const (
	StatusPending  CollaborationStatus = "pending"
	StatusAccepted CollaborationStatus = "accepted"
	StatusDeclined CollaborationStatus = "declined"
)

// ErrIllegalTransition is returned when a status change is not allowed by the
// invitation lifecycle.
var ErrIllegalTransition = errors.New("illegal collaboration status transition")

// Transition validates a move from s to next. Only pending invitations move,
// and only to accepted or declined.
func (s CollaborationStatus) Transition(next CollaborationStatus) error {
	if s == StatusPending && (next == StatusAccepted || next == StatusDeclined) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
}

type Role string

const (
	RoleOwner        Role = "owner"
	RoleCollaborator Role = "collaborator"
)

type Collaboration struct {
	ID              uint64              `gorm:"primarykey" json:"id"`
	WorkspaceID     uint64              `gorm:"not null;index" json:"workspace_id"`
	InviterID       uint64              `gorm:"not null" json:"inviter_id"`
	InviteeEmail    string              `gorm:"type:varchar(255);not null;index" json:"invitee_email"`
	InviteeID       *uint64             `json:"invitee_id"`
	Status          CollaborationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	InvitationToken string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	InvitedAt       time.Time           `gorm:"not null" json:"invited_at"`
	RespondedAt     *time.Time          `json:"responded_at"`
	ExpiresAt       *time.Time          `json:"expires_at"`

	// Relations
	Inviter User  `gorm:"foreignKey:InviterID;constraint:OnDelete:CASCADE" json:"-"`
	Invitee *User `gorm:"foreignKey:InviteeID;constraint:OnDelete:CASCADE" json:"-"`
}

// Expired reports whether the invitation carries an expiry that has passed.
func (c *Collaboration) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// InvitationView is a collaboration joined with its workspace and inviter names.
type InvitationView struct {
	Collaboration
	WorkspaceName string
	InviterName   string
}
