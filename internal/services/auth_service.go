package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/reqforge/reqforge-api/internal/auth"
	"github.com/reqforge/reqforge-api/internal/constants"
	"github.com/reqforge/reqforge-api/internal/database"
	"github.com/reqforge/reqforge-api/internal/logging"
	"github.com/reqforge/reqforge-api/internal/mailer"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/repository"
	"github.com/reqforge/reqforge-api/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken           = errors.New("user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordTooLong      = errors.New("password too long")
	ErrInvalidName          = errors.New("name is required")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToIssueToken   = errors.New("failed to issue token")
)

// WelcomeMailer sends the post-signup email.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, data mailer.WelcomeEmail) error
}

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo    repository.UserRepository
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	mail        WelcomeMailer
	frontendURL string
	log         *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	revocations auth.RevocationStore,
	mail WelcomeMailer,
	frontendURL string,
	log *zap.Logger,
) *AuthService {
	if revocations == nil {
		revocations = auth.NoopRevocationStore{}
	}
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		revocations: revocations,
		mail:        mail,
		frontendURL: frontendURL,
		log:         logging.OrNop(log),
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup creates a new user and returns it with an access token.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || utf8.RuneCountInString(name) > constants.MaxNameLength {
		return nil, "", ErrInvalidName
	}
	email := utils.NormalizeEmail(input.Email)
	if !utils.IsValidEmail(email) {
		return nil, "", ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}
	if len(input.Password) > constants.MaxPasswordBytes {
		return nil, "", ErrPasswordTooLong
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !database.IsNotFound(err) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", ErrFailedToHashPassword
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same address
		if database.IsDuplicateKeyError(err) {
			return nil, "", ErrEmailTaken
		}
		s.log.Error("failed to create user", zap.Error(err))
		return nil, "", ErrFailedToCreateUser
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.sendWelcome(ctx, user)

	return user, token, nil
}

// sendWelcome is best effort: signup succeeds even when the email cannot go out.
func (s *AuthService) sendWelcome(ctx context.Context, user *models.User) {
	if s.mail == nil {
		return
	}

	err := s.mail.SendWelcome(ctx, mailer.WelcomeEmail{
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		DashboardURL:   mailer.URL(s.frontendURL, "/dashboard"),
	})
	if err != nil {
		s.log.Warn("failed to send welcome email", zap.Uint64("user_id", user.ID), zap.Error(err))
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user with a token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, utils.NormalizeEmail(input.Email))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *AuthService) issue(userID uint64) (string, error) {
	token, _, err := s.tokens.Issue(userID)
	if err != nil {
		s.log.Error("failed to issue token", zap.Uint64("user_id", userID), zap.Error(err))
		return "", ErrFailedToIssueToken
	}
	return token, nil
}

// Logout revokes the token described by claims until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	until := time.Now()
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	if err := s.revocations.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput lists the profile fields a user may change. Nil fields
// are left untouched.
type UpdateProfileInput struct {
	Name   *string
	Email  *string
	Avatar *string
}

// UpdateProfile applies the given changes to the user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, id uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := []string{"updated_at"}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || utf8.RuneCountInString(name) > constants.MaxNameLength {
			return nil, ErrInvalidName
		}
		user.Name = name
		columns = append(columns, "name")
	}

	if input.Email != nil {
		email := utils.NormalizeEmail(*input.Email)
		if !utils.IsValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		if email != user.Email {
			existing, err := s.userRepo.FindByEmail(ctx, email)
			if err == nil && existing.ID != user.ID {
				return nil, ErrEmailTaken
			} else if err != nil && !database.IsNotFound(err) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
			user.EmailVerified = false
			columns = append(columns, "email", "email_verified")
		}
	}

	if input.Avatar != nil {
		avatar := strings.TrimSpace(*input.Avatar)
		if avatar == "" {
			user.Avatar = nil
		} else {
			user.Avatar = &avatar
		}
		columns = append(columns, "avatar")
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user, columns...); err != nil {
		if database.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
