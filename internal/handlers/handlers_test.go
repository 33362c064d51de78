package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/reqforge/reqforge-api/internal/auth"
	"github.com/reqforge/reqforge-api/internal/database/dbtest"
	"github.com/reqforge/reqforge-api/internal/mailer"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/monitoring"
	"github.com/reqforge/reqforge-api/internal/repository"
	"github.com/reqforge/reqforge-api/internal/services"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) to(address string) []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []mailer.Message
	for _, m := range s.sent {
		if m.To == address {
			out = append(out, m)
		}
	}
	return out
}

type routerTestEnv struct {
	db      *gorm.DB
	router  *gin.Engine
	sender  *recordingSender
	redis   *miniredis.Miniredis
	metrics *monitoring.Metrics
}

func setupRouterTestEnv(t *testing.T) *routerTestEnv {
	t.Helper()

	db := dbtest.Open(t)

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	revocations := auth.NewRedisRevocationStoreWithClient(client)

	sender := &recordingSender{}
	mail := mailer.New(sender)
	metrics := monitoring.New()
	tokens := auth.NewTokenManager("handler-test-secret", time.Hour)

	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	collabRepo := repository.NewCollaborationRepository(db)

	router := NewRouter(RouterDeps{
		Environment: "test",
		Log:         zap.NewNop(),
		Metrics:     metrics,
		Tokens:      tokens,
		Revocations: revocations,
		Auth:        services.NewAuthService(userRepo, tokens, revocations, mail, "http://app.test", zap.NewNop()),
		Workspaces:  services.NewWorkspaceService(workspaceRepo),
		Invitations: services.NewInvitationService(
			userRepo,
			workspaceRepo,
			collabRepo,
			mail,
			metrics,
			services.InvitationConfig{FrontendURL: "http://app.test", TTL: 24 * time.Hour, DeliveryTimeout: 5 * time.Second},
			zap.NewNop(),
		),
		Readiness: map[string]Pinger{
			"redis": revocations.Ping,
		},
	})

	return &routerTestEnv{
		db:      db,
		router:  router,
		sender:  sender,
		redis:   s,
		metrics: metrics,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *routerTestEnv) do(t *testing.T, method, url, token string, payload interface{}) (int, envelope) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()

	e.router.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func decodeData(t *testing.T, resp envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

// signup registers a user through the API and returns its ID and token.
func (e *routerTestEnv) signup(t *testing.T, name, email string) (uint64, string) {
	t.Helper()

	code, resp := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var data struct {
		User struct {
			ID uint64 `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	decodeData(t, resp, &data)
	return data.User.ID, data.Token
}

func (e *routerTestEnv) createWorkspace(t *testing.T, token, name string) uint64 {
	t.Helper()

	code, resp := e.do(t, http.MethodPost, "/api/workspaces", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var data struct {
		Workspace struct {
			ID uint64 `json:"id"`
		} `json:"workspace"`
	}
	decodeData(t, resp, &data)
	return data.Workspace.ID
}

// invite issues an invitation through the API and returns the stored token.
func (e *routerTestEnv) invite(t *testing.T, token string, workspaceID uint64, email string) string {
	t.Helper()

	code, resp := e.do(t, http.MethodPost, "/api/collaboration/invite", token, map[string]interface{}{
		"email":       email,
		"workspaceId": workspaceID,
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var data struct {
		Collaboration struct {
			ID uint64 `json:"id"`
		} `json:"collaboration"`
	}
	decodeData(t, resp, &data)

	var collab models.Collaboration
	require.NoError(t, e.db.First(&collab, data.Collaboration.ID).Error)
	return collab.InvitationToken
}
