package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/reqforge/reqforge-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCollaborationHandler_InviteFlow(t *testing.T) {
	env := setupRouterTestEnv(t)
	_, ownerToken := env.signup(t, "Olivia Owner", "owner@example.com")
	inviteeID, inviteeToken := env.signup(t, "Ivan Invitee", "invitee@example.com")
	wsID := env.createWorkspace(t, ownerToken, "Billing API")

	code, resp := env.do(t, http.MethodPost, "/api/collaboration/invite", ownerToken, map[string]interface{}{
		"email":       "Invitee@Example.com",
		"workspaceId": wsID,
	})
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "Invitation sent successfully", resp.Message)
	require.NotContains(t, string(resp.Data), "invitationToken")

	var created struct {
		Collaboration struct {
			ID           uint64 `json:"id"`
			InviteeEmail string `json:"inviteeEmail"`
			Status       string `json:"status"`
		} `json:"collaboration"`
	}
	decodeData(t, resp, &created)
	require.Equal(t, "invitee@example.com", created.Collaboration.InviteeEmail)
	require.Equal(t, "pending", created.Collaboration.Status)

	var collab models.Collaboration
	require.NoError(t, env.db.First(&collab, created.Collaboration.ID).Error)
	token := collab.InvitationToken

	// Welcome email plus the invitation
	mails := env.sender.to("invitee@example.com")
	require.Len(t, mails, 2)
	require.Contains(t, mails[1].HTML, "http://app.test/invite/"+token)
	require.Contains(t, mails[1].Subject, "Billing API")

	// Public details need no token
	code, resp = env.do(t, http.MethodGet, "/api/collaboration/invitation/"+token, "", nil)
	require.Equal(t, http.StatusOK, code)
	var details struct {
		WorkspaceName string `json:"workspaceName"`
		InviterName   string `json:"inviterName"`
		InviteeEmail  string `json:"inviteeEmail"`
	}
	decodeData(t, resp, &details)
	require.Equal(t, "Billing API", details.WorkspaceName)
	require.Equal(t, "Olivia Owner", details.InviterName)
	require.Equal(t, "invitee@example.com", details.InviteeEmail)

	code, resp = env.do(t, http.MethodPost, "/api/collaboration/accept/"+token, inviteeToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Invitation accepted successfully", resp.Message)
	var accepted struct {
		WorkspaceID uint64 `json:"workspaceId"`
	}
	decodeData(t, resp, &accepted)
	require.Equal(t, wsID, accepted.WorkspaceID)

	// Answered invitations can be neither viewed nor answered again
	code, resp = env.do(t, http.MethodGet, "/api/collaboration/invitation/"+token, "", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Invitation has already been responded to", resp.Message)
	code, _ = env.do(t, http.MethodPost, "/api/collaboration/decline/"+token, inviteeToken, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/collaboration/workspace/%d", wsID), inviteeToken, nil)
	require.Equal(t, http.StatusOK, code)
	var listing struct {
		Collaborators []struct {
			InviteeID   *uint64 `json:"inviteeId"`
			InviteeName string  `json:"inviteeName"`
		} `json:"collaborators"`
		PendingInvitations []struct{} `json:"pendingInvitations"`
		UserRole           string     `json:"userRole"`
	}
	decodeData(t, resp, &listing)
	require.Len(t, listing.Collaborators, 1)
	require.NotNil(t, listing.Collaborators[0].InviteeID)
	require.Equal(t, inviteeID, *listing.Collaborators[0].InviteeID)
	require.Equal(t, "Ivan Invitee", listing.Collaborators[0].InviteeName)
	require.Empty(t, listing.PendingInvitations)
	require.Equal(t, "collaborator", listing.UserRole)
}

func TestCollaborationHandler_InviteRequiresOwner(t *testing.T) {
	env := setupRouterTestEnv(t)
	_, ownerToken := env.signup(t, "Owner", "owner@example.com")
	_, strangerToken := env.signup(t, "Stranger", "stranger@example.com")
	wsID := env.createWorkspace(t, ownerToken, "Billing API")

	code, resp := env.do(t, http.MethodPost, "/api/collaboration/invite", strangerToken, map[string]interface{}{
		"email":       "friend@example.com",
		"workspaceId": wsID,
	})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "Only workspace owner can send invitations", resp.Message)

	code, resp = env.do(t, http.MethodPost, "/api/collaboration/invite", ownerToken, map[string]interface{}{
		"email":       "friend@example.com",
		"workspaceId": 9999,
	})
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Workspace not found", resp.Message)

	code, resp = env.do(t, http.MethodPost, "/api/collaboration/invite", ownerToken, map[string]interface{}{
		"email": "friend@example.com",
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "workspaceId", resp.Errors[0].Field)
}

func TestCollaborationHandler_InviteDeliveryFailure(t *testing.T) {
	env := setupRouterTestEnv(t)
	_, ownerToken := env.signup(t, "Owner", "owner@example.com")
	wsID := env.createWorkspace(t, ownerToken, "Billing API")

	env.sender.err = errors.New("smtp: 554 rejected")

	code, resp := env.do(t, http.MethodPost, "/api/collaboration/invite", ownerToken, map[string]interface{}{
		"email":       "friend@example.com",
		"workspaceId": wsID,
	})
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "Failed to send invitation email", resp.Message)

	var count int64
	require.NoError(t, env.db.Model(&models.Collaboration{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCollaborationHandler_UnknownToken(t *testing.T) {
	env := setupRouterTestEnv(t)
	_, token := env.signup(t, "User", "user@example.com")

	code, resp := env.do(t, http.MethodGet, "/api/collaboration/invitation/nope", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Invalid or expired invitation", resp.Message)

	code, _ = env.do(t, http.MethodPost, "/api/collaboration/accept/nope", token, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodPost, "/api/collaboration/accept/nope", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "No token provided", resp.Message)
}

func TestCollaborationHandler_Decline(t *testing.T) {
	env := setupRouterTestEnv(t)
	_, ownerToken := env.signup(t, "Owner", "owner@example.com")
	_, inviteeToken := env.signup(t, "Invitee", "invitee@example.com")
	wsID := env.createWorkspace(t, ownerToken, "Billing API")
	token := env.invite(t, ownerToken, wsID, "invitee@example.com")

	code, _ := env.do(t, http.MethodPost, "/api/collaboration/decline/"+token, inviteeToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/workspaces/%d", wsID), inviteeToken, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodPost, "/api/collaboration/accept/"+token, inviteeToken, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestCollaborationHandler_ConcurrentAccept(t *testing.T) {
	env := setupRouterTestEnv(t)
	_, ownerToken := env.signup(t, "Owner", "owner@example.com")
	wsID := env.createWorkspace(t, ownerToken, "Billing API")
	token := env.invite(t, ownerToken, wsID, "team@example.com")

	const n = 5
	tokens := make([]string, n)
	for i := range tokens {
		_, tokens[i] = env.signup(t, fmt.Sprintf("User %d", i), fmt.Sprintf("user%d@example.com", i))
	}

	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], _ = env.do(t, http.MethodPost, "/api/collaboration/accept/"+token, tokens[i], nil)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			require.Equal(t, http.StatusBadRequest, code)
		}
	}
	require.Equal(t, 1, ok)

	var accepted int64
	require.NoError(t, env.db.Model(&models.Collaboration{}).
		Where("workspace_id = ? AND status = ?", wsID, models.StatusAccepted).
		Count(&accepted).Error)
	require.Equal(t, int64(1), accepted)
}

func TestCollaborationHandler_VerifyEmail(t *testing.T) {
	env := setupRouterTestEnv(t)
	_, token := env.signup(t, "Ada", "ada@example.com")

	code, resp := env.do(t, http.MethodGet, "/api/collaboration/verify-email/ADA@example.com", token, nil)
	require.Equal(t, http.StatusOK, code)
	var found struct {
		Exists bool `json:"exists"`
		User   *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeData(t, resp, &found)
	require.True(t, found.Exists)
	require.Equal(t, "Ada", found.User.Name)

	code, resp = env.do(t, http.MethodGet, "/api/collaboration/verify-email/nobody@example.com", token, nil)
	require.Equal(t, http.StatusOK, code)
	found.User = nil
	decodeData(t, resp, &found)
	require.False(t, found.Exists)
	require.Nil(t, found.User)

	code, resp = env.do(t, http.MethodGet, "/api/collaboration/verify-email/not-an-email", token, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Invalid email format", resp.Message)
}

func TestRouter_HealthMetricsAndNoRoute(t *testing.T) {
	env := setupRouterTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)
	require.Equal(t, "ReqForge API Server is running", resp.Message)

	code, _ = env.do(t, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, code)

	env.redis.Close()
	code, _ = env.do(t, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, code)

	code, resp = env.do(t, http.MethodGet, "/api/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Route not found", resp.Message)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `reqforge_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
