package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/reqforge/reqforge-api/internal/auth"
	"github.com/reqforge/reqforge-api/internal/database/dbtest"
	"github.com/reqforge/reqforge-api/internal/mailer"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu          sync.Mutex
	invitations []mailer.InvitationEmail
	welcomes    []mailer.WelcomeEmail
	deadlines   []time.Duration
	err         error
}

func (m *fakeMailer) SendInvitation(ctx context.Context, data mailer.InvitationEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		m.deadlines = append(m.deadlines, time.Until(deadline))
	}
	if m.err != nil {
		return m.err
	}
	m.invitations = append(m.invitations, data)
	return nil
}

func (m *fakeMailer) SendWelcome(_ context.Context, data mailer.WelcomeEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.welcomes = append(m.welcomes, data)
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *fakeMetrics) InvitationOutcome(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[outcome]++
}

func (m *fakeMetrics) count(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[outcome]
}

type testEnv struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	collabRepo  repository.CollaborationRepository
	mail        *fakeMailer
	metrics     *fakeMetrics
	tokens      *auth.TokenManager
	auth        *AuthService
	workspaces  *WorkspaceService
	invitations *InvitationService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	collabRepo := repository.NewCollaborationRepository(db)

	env := &testEnv{
		db:         db,
		userRepo:   userRepo,
		collabRepo: collabRepo,
		mail:       &fakeMailer{},
		metrics:    &fakeMetrics{},
		tokens:     auth.NewTokenManager("test-secret", time.Hour),
	}

	env.auth = NewAuthService(userRepo, env.tokens, nil, env.mail, "http://localhost:5173", zap.NewNop())
	env.workspaces = NewWorkspaceService(workspaceRepo)
	env.invitations = NewInvitationService(
		userRepo,
		workspaceRepo,
		collabRepo,
		env.mail,
		env.metrics,
		InvitationConfig{FrontendURL: "http://localhost:5173", TTL: 7 * 24 * time.Hour, DeliveryTimeout: 5 * time.Second},
		zap.NewNop(),
	)

	return env
}

func (e *testEnv) createUser(t *testing.T, name, email string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Email: email, PasswordHash: "hash"}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func (e *testEnv) createWorkspace(t *testing.T, ownerID uint64, name string) *models.Workspace {
	t.Helper()

	ws, err := e.workspaces.CreateWorkspace(context.Background(), CreateWorkspaceInput{
		OwnerID: ownerID,
		Name:    name,
	})
	require.NoError(t, err)
	return ws
}

func (e *testEnv) issue(t *testing.T, ws *models.Workspace, email string) *models.Collaboration {
	t.Helper()

	collab, err := e.invitations.IssueInvitation(context.Background(), ws.ID, ws.UserID, email)
	require.NoError(t, err)
	return collab
}

func (e *testEnv) reload(t *testing.T, token string) *models.Collaboration {
	t.Helper()

	var collab models.Collaboration
	require.NoError(t, e.db.Where("invitation_token = ?", token).First(&collab).Error)
	return &collab
}

func (e *testEnv) countCollaborations(t *testing.T) int64 {
	t.Helper()

	var count int64
	require.NoError(t, e.db.Model(&models.Collaboration{}).Count(&count).Error)
	return count
}

var errSMTP = errors.New("dial tcp: connection refused")
