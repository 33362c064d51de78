package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reqforge/reqforge-api/internal/constants"
	"github.com/reqforge/reqforge-api/internal/database"
	"github.com/reqforge/reqforge-api/internal/logging"
	"github.com/reqforge/reqforge-api/internal/mailer"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/monitoring"
	"github.com/reqforge/reqforge-api/internal/repository"
	"github.com/reqforge/reqforge-api/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrInvalidEmail               = errors.New("invalid email format")
	ErrWorkspaceNotFound          = errors.New("workspace not found")
	ErrNotWorkspaceOwner          = errors.New("only workspace owner can send invitations")
	ErrEmailDelivery              = errors.New("failed to send invitation email")
	ErrInvitationNotFound         = errors.New("invalid or expired invitation")
	ErrInvitationAlreadyResponded = errors.New("invitation has already been responded to")
	ErrInvitationExpired          = errors.New("invitation has expired")
	ErrTokenGeneration            = errors.New("failed to generate invitation token")
)

// InvitationMailer sends workspace invitation emails.
type InvitationMailer interface {
	SendInvitation(ctx context.Context, data mailer.InvitationEmail) error
}

// InvitationMetrics counts invitation workflow outcomes.
type InvitationMetrics interface {
	InvitationOutcome(outcome string)
}

type nopInvitationMetrics struct{}

func (nopInvitationMetrics) InvitationOutcome(string) {}

// InvitationConfig holds the settings of the invitation workflow.
type InvitationConfig struct {
	// FrontendURL is the base of the link embedded in invitation emails.
	FrontendURL string
	// TTL bounds how long an invitation stays acceptable. Zero means forever.
	TTL time.Duration
	// DeliveryTimeout caps the email send, which runs inside the insert
	// transaction. Zero means no limit.
	DeliveryTimeout time.Duration
}

// AccessResult is the caller's relation to a workspace.
type AccessResult struct {
	HasAccess bool
	Role      models.Role
	Workspace *models.Workspace
}

// InvitationService runs the collaboration invitation workflow: issuing
// tokens, answering them and deriving workspace access.
type InvitationService struct {
	userRepo      repository.UserRepository
	workspaceRepo repository.WorkspaceRepository
	collabRepo    repository.CollaborationRepository
	mail          InvitationMailer
	metrics       InvitationMetrics
	config        InvitationConfig
	log           *zap.Logger
	now           func() time.Time
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(
	userRepo repository.UserRepository,
	workspaceRepo repository.WorkspaceRepository,
	collabRepo repository.CollaborationRepository,
	mail InvitationMailer,
	metrics InvitationMetrics,
	config InvitationConfig,
	log *zap.Logger,
) *InvitationService {
	if metrics == nil {
		metrics = nopInvitationMetrics{}
	}
	return &InvitationService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
		collabRepo:    collabRepo,
		mail:          mail,
		metrics:       metrics,
		config:        config,
		log:           logging.OrNop(log),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// IssueInvitation creates a pending invitation and emails its link. The row
// only persists if the email was handed to the mail server.
func (s *InvitationService) IssueInvitation(ctx context.Context, workspaceID, inviterID uint64, inviteeEmail string) (*models.Collaboration, error) {
	email := utils.NormalizeEmail(inviteeEmail)
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	if !ws.IsOwnedBy(inviterID) {
		return nil, ErrNotWorkspaceOwner
	}

	inviter, err := s.userRepo.FindByID(ctx, inviterID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find inviter: %w", err)
	}

	token, err := utils.GenerateToken(constants.InvitationTokenBytes)
	if err != nil {
		s.log.Error("failed to generate invitation token", zap.Error(err))
		return nil, ErrTokenGeneration
	}

	now := s.now()
	collab := &models.Collaboration{
		WorkspaceID:     ws.ID,
		InviterID:       inviter.ID,
		InviteeEmail:    email,
		Status:          models.StatusPending,
		InvitationToken: token,
		InvitedAt:       now,
	}
	if s.config.TTL > 0 {
		expiresAt := now.Add(s.config.TTL)
		collab.ExpiresAt = &expiresAt
	}

	deliver := func(c *models.Collaboration) error {
		sendCtx := ctx
		if s.config.DeliveryTimeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(ctx, s.config.DeliveryTimeout)
			defer cancel()
		}

		err := s.mail.SendInvitation(sendCtx, mailer.InvitationEmail{
			RecipientEmail: c.InviteeEmail,
			RecipientName:  utils.EmailLocalPart(c.InviteeEmail),
			InviterName:    inviter.Name,
			WorkspaceName:  ws.Name,
			InvitationURL:  mailer.URL(s.config.FrontendURL, constants.InvitePath+c.InvitationToken),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
		}
		return nil
	}

	if err := s.collabRepo.CreateWithDelivery(ctx, collab, deliver); err != nil {
		if errors.Is(err, ErrEmailDelivery) {
			s.metrics.InvitationOutcome(monitoring.OutcomeDeliveryFailed)
			s.log.Error("invitation email failed, invitation discarded",
				zap.Uint64("workspace_id", ws.ID),
				zap.String("invitee_email", email),
				zap.Error(err),
			)
			return nil, ErrEmailDelivery
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.metrics.InvitationOutcome(monitoring.OutcomeIssued)
	s.log.Info("invitation issued",
		zap.Uint64("collaboration_id", collab.ID),
		zap.Uint64("workspace_id", ws.ID),
		zap.Uint64("inviter_id", inviter.ID),
	)

	return collab, nil
}

// LookupInvitation returns the public details of a pending invitation.
func (s *InvitationService) LookupInvitation(ctx context.Context, token string) (*models.InvitationView, error) {
	view, err := s.collabRepo.FindByToken(ctx, token)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	if err := s.checkRespondable(&view.Collaboration); err != nil {
		return nil, err
	}

	return view, nil
}

func (s *InvitationService) checkRespondable(c *models.Collaboration) error {
	if c.Status != models.StatusPending {
		return ErrInvitationAlreadyResponded
	}
	if c.Expired(s.now()) {
		return ErrInvitationExpired
	}
	return nil
}

// AcceptInvitation makes userID a collaborator of the invitation's workspace
// and returns the workspace ID. Of several concurrent accepts for one token
// exactly one succeeds.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token string, userID uint64) (uint64, error) {
	view, err := s.respond(ctx, token, userID, models.StatusAccepted)
	if err != nil {
		return 0, err
	}

	s.flagEmailMismatch(ctx, view, userID)
	s.metrics.InvitationOutcome(monitoring.OutcomeAccepted)
	s.log.Info("invitation accepted",
		zap.Uint64("collaboration_id", view.ID),
		zap.Uint64("workspace_id", view.WorkspaceID),
		zap.Uint64("user_id", userID),
	)

	return view.WorkspaceID, nil
}

// DeclineInvitation closes a pending invitation without granting access.
func (s *InvitationService) DeclineInvitation(ctx context.Context, token string, userID uint64) error {
	view, err := s.respond(ctx, token, userID, models.StatusDeclined)
	if err != nil {
		return err
	}

	s.metrics.InvitationOutcome(monitoring.OutcomeDeclined)
	s.log.Info("invitation declined",
		zap.Uint64("collaboration_id", view.ID),
		zap.Uint64("workspace_id", view.WorkspaceID),
		zap.Uint64("user_id", userID),
	)

	return nil
}

// respond moves a pending invitation to the given terminal status. The write
// is conditioned on the status still being pending, so a lost race surfaces
// as ErrInvitationAlreadyResponded rather than a second success.
func (s *InvitationService) respond(ctx context.Context, token string, userID uint64, to models.CollaborationStatus) (*models.InvitationView, error) {
	view, err := s.LookupInvitation(ctx, token)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	t := repository.Transition{
		Token: token,
		From:  models.StatusPending,
		To:    to,
		At:    s.now(),
	}
	if to == models.StatusAccepted {
		t.InviteeID = userID
	}

	changed, err := s.collabRepo.Transition(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	if !changed {
		err := s.explainLostTransition(ctx, token)
		s.countRejection(err)
		return nil, err
	}

	return view, nil
}

// explainLostTransition re-reads an invitation whose guarded update matched
// no row and reports why.
func (s *InvitationService) explainLostTransition(ctx context.Context, token string) error {
	view, err := s.collabRepo.FindByToken(ctx, token)
	if err != nil {
		if database.IsNotFound(err) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("failed to find invitation: %w", err)
	}

	if err := s.checkRespondable(&view.Collaboration); err != nil {
		return err
	}
	return ErrInvitationAlreadyResponded
}

func (s *InvitationService) countRejection(err error) {
	switch {
	case errors.Is(err, ErrInvitationAlreadyResponded):
		s.metrics.InvitationOutcome(monitoring.OutcomeConflict)
	case errors.Is(err, ErrInvitationExpired):
		s.metrics.InvitationOutcome(monitoring.OutcomeExpired)
	}
}

// flagEmailMismatch records acceptances by an account other than the invited
// address. Anyone holding the link may join; this only makes it visible.
func (s *InvitationService) flagEmailMismatch(ctx context.Context, view *models.InvitationView, userID uint64) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.log.Warn("could not load accepting user", zap.Uint64("user_id", userID), zap.Error(err))
		return
	}
	if user.Email == view.InviteeEmail {
		return
	}

	s.metrics.InvitationOutcome(monitoring.OutcomeEmailMismatch)
	s.log.Warn("invitation accepted by a different email address",
		zap.Uint64("collaboration_id", view.ID),
		zap.String("invitee_email", view.InviteeEmail),
		zap.String("accepted_by", user.Email),
	)
}

// CheckWorkspaceAccess resolves the caller's role on a workspace: owner
// first, then accepted collaborator. A missing workspace is an error; a
// workspace the user cannot see yields HasAccess false.
func (s *InvitationService) CheckWorkspaceAccess(ctx context.Context, userID, workspaceID uint64) (*AccessResult, error) {
	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if ws.IsOwnedBy(userID) {
		return &AccessResult{HasAccess: true, Role: models.RoleOwner, Workspace: ws}, nil
	}

	accepted, err := s.collabRepo.HasAccepted(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check collaboration: %w", err)
	}
	if accepted {
		return &AccessResult{HasAccess: true, Role: models.RoleCollaborator, Workspace: ws}, nil
	}

	return &AccessResult{HasAccess: false, Workspace: ws}, nil
}

// VerifyEmailExists reports whether an account uses email.
func (s *InvitationService) VerifyEmailExists(ctx context.Context, email string) (*models.User, bool, error) {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, false, ErrInvalidEmail
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	return user, true, nil
}

// ListWorkspaceCollaboration returns accepted collaborators and pending
// invitations of a workspace.
func (s *InvitationService) ListWorkspaceCollaboration(ctx context.Context, workspaceID uint64) ([]models.Collaboration, []models.Collaboration, error) {
	accepted, err := s.collabRepo.ListAccepted(ctx, workspaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list collaborators: %w", err)
	}

	pending, err := s.collabRepo.ListPending(ctx, workspaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}

	return accepted, pending, nil
}
