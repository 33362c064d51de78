package models

import (
	"time"
)

type User struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	Avatar        *string   `gorm:"type:varchar(500)" json:"avatar"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Workspaces []Workspace `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
