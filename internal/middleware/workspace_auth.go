package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge-api/internal/constants"
	apierrors "github.com/reqforge/reqforge-api/internal/errors"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/services"
	"go.uber.org/zap"
)

// AccessChecker resolves a user's role on a workspace.
type AccessChecker interface {
	CheckWorkspaceAccess(ctx context.Context, userID, workspaceID uint64) (*services.AccessResult, error)
}

// RequireWorkspaceAccess checks if the user owns or collaborates on the
// workspace named by the :id parameter
func RequireWorkspaceAccess(checker AccessChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || workspaceID == 0 {
			apierrors.BadRequest(c, "Invalid workspace ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		access, err := checker.CheckWorkspaceAccess(c.Request.Context(), userID, workspaceID)
		if err != nil {
			if errors.Is(err, services.ErrWorkspaceNotFound) {
				apierrors.NotFound(c, "Workspace not found")
				return
			}
			log.Error("failed to check workspace access",
				zap.Uint64("workspace_id", workspaceID),
				zap.Uint64("user_id", userID),
				zap.Error(err),
			)
			apierrors.InternalError(c, "")
			return
		}

		if !access.HasAccess {
			apierrors.Forbidden(c, "Access denied")
			return
		}

		// Store workspace and role in context
		c.Set(constants.ContextKeyWorkspace, access.Workspace)
		c.Set(constants.ContextKeyAccessRole, access.Role)
		c.Next()
	}
}

// RequireWorkspaceOwner checks if the user owns the workspace. It must run
// after RequireWorkspaceAccess.
func RequireWorkspaceOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetAccessRole(c)
		if !exists {
			apierrors.Forbidden(c, "Workspace access required")
			return
		}

		if role != models.RoleOwner {
			apierrors.Forbidden(c, "Only the workspace owner can perform this action")
			return
		}

		c.Next()
	}
}

// GetWorkspace retrieves the workspace loaded by RequireWorkspaceAccess
func GetWorkspace(c *gin.Context) (*models.Workspace, bool) {
	value, exists := c.Get(constants.ContextKeyWorkspace)
	if !exists {
		return nil, false
	}
	ws, ok := value.(*models.Workspace)
	return ws, ok
}

// GetAccessRole retrieves the caller's role set by RequireWorkspaceAccess
func GetAccessRole(c *gin.Context) (models.Role, bool) {
	value, exists := c.Get(constants.ContextKeyAccessRole)
	if !exists {
		return "", false
	}
	role, ok := value.(models.Role)
	return role, ok
}
