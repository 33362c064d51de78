package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge-api/internal/auth"
	"github.com/reqforge/reqforge-api/internal/constants"
	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/reqforge/reqforge-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type revokedSet map[string]bool

func (r revokedSet) Revoke(_ context.Context, jti string, _ time.Time) error {
	r[jti] = true
	return nil
}

func (r revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	return r[jti], nil
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Time) error { return nil }

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func serve(r *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("middleware-secret", time.Hour)
	revoked := revokedSet{}

	r := gin.New()
	r.GET("/me", RequireAuth(tokens, revoked, zap.NewNop()), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		claims, ok := GetClaims(c)
		require.True(t, ok)
		assert.Equal(t, userID, claims.UserID)
		c.Status(http.StatusNoContent)
	})

	token, claims, err := tokens.Issue(42)
	require.NoError(t, err)

	w := serve(r, http.MethodGet, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token provided")

	w = serve(r, http.MethodGet, "/me", "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token provided")

	w = serve(r, http.MethodGet, "/me", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")

	other := auth.NewTokenManager("another-secret", time.Hour)
	forged, _, err := other.Issue(42)
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	revoked[claims.ID] = true
	w = serve(r, http.MethodGet, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestRequireAuth_RevocationStoreDown(t *testing.T) {
	tokens := auth.NewTokenManager("middleware-secret", time.Hour)

	r := gin.New()
	r.GET("/me", RequireAuth(tokens, failingRevocations{}, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token, _, err := tokens.Issue(7)
	require.NoError(t, err)

	w := serve(r, http.MethodGet, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type stubAccess struct {
	result *services.AccessResult
	err    error
}

func (s stubAccess) CheckWorkspaceAccess(context.Context, uint64, uint64) (*services.AccessResult, error) {
	return s.result, s.err
}

func workspaceRouter(checker AccessChecker, owner bool) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{
		func(c *gin.Context) {
			c.Set(constants.ContextKeyUserID, uint64(1))
			c.Next()
		},
		RequireWorkspaceAccess(checker, zap.NewNop()),
	}
	if owner {
		handlers = append(handlers, RequireWorkspaceOwner())
	}
	handlers = append(handlers, func(c *gin.Context) {
		ws, ok := GetWorkspace(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		role, _ := GetAccessRole(c)
		c.JSON(http.StatusOK, gin.H{"id": ws.ID, "role": role})
	})
	r.GET("/workspaces/:id", handlers...)
	return r
}

func TestRequireWorkspaceAccess(t *testing.T) {
	ws := &models.Workspace{ID: 5, Name: "Billing API", UserID: 1}

	tests := []struct {
		name    string
		checker stubAccess
		path    string
		owner   bool
		want    int
	}{
		{
			name:    "owner",
			checker: stubAccess{result: &services.AccessResult{HasAccess: true, Role: models.RoleOwner, Workspace: ws}},
			path:    "/workspaces/5",
			owner:   true,
			want:    http.StatusOK,
		},
		{
			name:    "collaborator can read",
			checker: stubAccess{result: &services.AccessResult{HasAccess: true, Role: models.RoleCollaborator, Workspace: ws}},
			path:    "/workspaces/5",
			want:    http.StatusOK,
		},
		{
			name:    "collaborator cannot manage",
			checker: stubAccess{result: &services.AccessResult{HasAccess: true, Role: models.RoleCollaborator, Workspace: ws}},
			path:    "/workspaces/5",
			owner:   true,
			want:    http.StatusForbidden,
		},
		{
			name:    "no access",
			checker: stubAccess{result: &services.AccessResult{Workspace: ws}},
			path:    "/workspaces/5",
			want:    http.StatusForbidden,
		},
		{
			name:    "missing workspace",
			checker: stubAccess{err: services.ErrWorkspaceNotFound},
			path:    "/workspaces/5",
			want:    http.StatusNotFound,
		},
		{
			name:    "database failure",
			checker: stubAccess{err: errors.New("connection reset")},
			path:    "/workspaces/5",
			want:    http.StatusInternalServerError,
		},
		{
			name: "bad id",
			path: "/workspaces/abc",
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(workspaceRouter(tt.checker, tt.owner), http.MethodGet, tt.path, "")
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
