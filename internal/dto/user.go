package dto

import (
	"time"

	"github.com/reqforge/reqforge-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Avatar        *string   `json:"avatar"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicUserDTO is the minimal view of another user
type PublicUserDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// UserResponse wraps a single user
type UserResponse struct {
	User UserDTO `json:"user"`
}

// ToUserDTO converts a user model to DTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Avatar:        user.Avatar,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// ToPublicUserDTO converts a user model to its public fields
func ToPublicUserDTO(user models.User) PublicUserDTO {
	return PublicUserDTO{
		Name:  user.Name,
		Email: user.Email,
	}
}
