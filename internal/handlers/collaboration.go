package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge-api/internal/dto"
	apierrors "github.com/reqforge/reqforge-api/internal/errors"
	"github.com/reqforge/reqforge-api/internal/middleware"
	"github.com/reqforge/reqforge-api/internal/services"
	"go.uber.org/zap"
)

// CollaborationHandler serves the invitation workflow.
type CollaborationHandler struct {
	invitations *services.InvitationService
	log         *zap.Logger
}

// NewCollaborationHandler creates a new CollaborationHandler.
func NewCollaborationHandler(invitations *services.InvitationService, log *zap.Logger) *CollaborationHandler {
	return &CollaborationHandler{
		invitations: invitations,
		log:         log,
	}
}

// VerifyEmail tells whether an account exists for the email in the path.
func (h *CollaborationHandler) VerifyEmail(c *gin.Context) {
	user, exists, err := h.invitations.VerifyEmailExists(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondCollaborationError(c, err)
		return
	}

	response := dto.VerifyEmailResponse{Exists: exists}
	if exists {
		public := dto.ToPublicUserDTO(*user)
		response.User = &public
	}

	c.JSON(http.StatusOK, dto.Success(response))
}

// Invite sends an invitation email for a workspace the caller owns.
func (h *CollaborationHandler) Invite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type InviteRequest struct {
		Email       string `json:"email" binding:"required,email"`
		WorkspaceID uint64 `json:"workspaceId" binding:"required,gt=0"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	collab, err := h.invitations.IssueInvitation(c.Request.Context(), req.WorkspaceID, userID, req.Email)
	if err != nil {
		h.respondCollaborationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessWithMessage("Invitation sent successfully", dto.InvitationCreatedResponse{
		Collaboration: dto.ToInvitationDTO(*collab),
	}))
}

// GetInvitation shows who invited whom to which workspace. It needs no
// authentication so the invitee can see it before signing in.
func (h *CollaborationHandler) GetInvitation(c *gin.Context) {
	view, err := h.invitations.LookupInvitation(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondCollaborationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.ToInvitationDetailsDTO(*view)))
}

// AcceptInvitation makes the caller a collaborator of the invited workspace.
func (h *CollaborationHandler) AcceptInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaceID, err := h.invitations.AcceptInvitation(c.Request.Context(), c.Param("token"), userID)
	if err != nil {
		h.respondCollaborationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessWithMessage("Invitation accepted successfully", dto.AcceptResponse{
		WorkspaceID: workspaceID,
	}))
}

// DeclineInvitation closes an invitation without granting access.
func (h *CollaborationHandler) DeclineInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.invitations.DeclineInvitation(c.Request.Context(), c.Param("token"), userID); err != nil {
		h.respondCollaborationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessWithMessage("Invitation declined", nil))
}

// ListWorkspaceCollaboration lists collaborators and pending invitations.
// RequireWorkspaceAccess has already resolved the workspace and role.
func (h *CollaborationHandler) ListWorkspaceCollaboration(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}
	role, _ := middleware.GetAccessRole(c)

	accepted, pending, err := h.invitations.ListWorkspaceCollaboration(c.Request.Context(), ws.ID)
	if err != nil {
		h.respondCollaborationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.ToWorkspaceCollaborationResponse(accepted, pending, role)))
}

func (h *CollaborationHandler) respondCollaborationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		apierrors.BadRequest(c, "Invalid email format")
	case errors.Is(err, services.ErrWorkspaceNotFound):
		apierrors.NotFound(c, "Workspace not found")
	case errors.Is(err, services.ErrNotWorkspaceOwner):
		apierrors.Forbidden(c, "Only workspace owner can send invitations")
	case errors.Is(err, services.ErrInvitationNotFound), errors.Is(err, services.ErrInvitationExpired):
		apierrors.NotFound(c, "Invalid or expired invitation")
	case errors.Is(err, services.ErrInvitationAlreadyResponded):
		apierrors.BadRequest(c, "Invitation has already been responded to")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrEmailDelivery):
		apierrors.InternalError(c, "Failed to send invitation email")
	default:
		h.log.Error("collaboration request failed", zap.String("path", c.FullPath()), zap.Error(err))
		apierrors.InternalError(c, "")
	}
}
