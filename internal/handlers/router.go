package handlers

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/reqforge/reqforge-api/internal/auth"
	apierrors "github.com/reqforge/reqforge-api/internal/errors"
	"github.com/reqforge/reqforge-api/internal/logging"
	"github.com/reqforge/reqforge-api/internal/middleware"
	"github.com/reqforge/reqforge-api/internal/monitoring"
	"github.com/reqforge/reqforge-api/internal/services"
	"go.uber.org/zap"
)

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	Environment string
	Log         *zap.Logger
	Metrics     *monitoring.Metrics
	Tokens      middleware.TokenParser
	Revocations auth.RevocationStore
	Auth        *services.AuthService
	Workspaces  *services.WorkspaceService
	Invitations *services.InvitationService
	// Readiness lists the dependencies pinged by /ready.
	Readiness map[string]Pinger
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(deps RouterDeps) *gin.Engine {
	log := logging.OrNop(deps.Log)
	revocations := deps.Revocations
	if revocations == nil {
		revocations = auth.NoopRevocationStore{}
	}

	useJSONFieldNames()

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	authHandler := NewAuthHandler(deps.Auth, log)
	workspaceHandler := NewWorkspaceHandler(deps.Workspaces, log)
	collabHandler := NewCollaborationHandler(deps.Invitations, log)
	healthHandler := NewHealthHandler(deps.Environment, deps.Readiness, log)

	requireAuth := middleware.RequireAuth(deps.Tokens, revocations, log)
	requireAccess := middleware.RequireWorkspaceAccess(deps.Invitations, log)
	requireOwner := middleware.RequireWorkspaceOwner()

	// Health check endpoints
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)

	api := r.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", requireAuth, authHandler.Logout)
			authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
			authRoutes.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		}

		// Workspace routes (protected)
		workspaces := api.Group("/workspaces")
		workspaces.Use(requireAuth)
		{
			workspaces.POST("", workspaceHandler.CreateWorkspace)
			workspaces.GET("", workspaceHandler.ListWorkspaces)
			workspaces.GET("/shared", workspaceHandler.ListSharedWorkspaces)
			workspaces.GET("/:id", requireAccess, workspaceHandler.GetWorkspace)
			workspaces.PUT("/:id", requireAccess, requireOwner, workspaceHandler.UpdateWorkspace)
			workspaces.DELETE("/:id", requireAccess, requireOwner, workspaceHandler.DeleteWorkspace)
		}

		// Collaboration routes; invitation details are public
		collab := api.Group("/collaboration")
		{
			collab.GET("/invitation/:token", collabHandler.GetInvitation)
			collab.GET("/verify-email/:email", requireAuth, collabHandler.VerifyEmail)
			collab.POST("/invite", requireAuth, collabHandler.Invite)
			collab.POST("/accept/:token", requireAuth, collabHandler.AcceptInvitation)
			collab.POST("/decline/:token", requireAuth, collabHandler.DeclineInvitation)
			collab.GET("/workspace/:id", requireAuth, requireAccess, collabHandler.ListWorkspaceCollaboration)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	return r
}

// useJSONFieldNames makes validation errors name fields the way clients send them.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
