package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge-api/internal/auth"
	"github.com/reqforge/reqforge-api/internal/config"
	"github.com/reqforge/reqforge-api/internal/database"
	"github.com/reqforge/reqforge-api/internal/handlers"
	"github.com/reqforge/reqforge-api/internal/mailer"
	"github.com/reqforge/reqforge-api/internal/monitoring"
	"github.com/reqforge/reqforge-api/internal/repository"
	"github.com/reqforge/reqforge-api/internal/services"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer database.Close(db)

	// Run migrations
	if !skipMigrate {
		if err := database.Migrate(db, log); err != nil {
			log.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	readiness := map[string]handlers.Pinger{
		"database": sqlDB.PingContext,
	}

	// Token revocation needs Redis; without it logout only drops the client's copy
	var revocations auth.RevocationStore = auth.NoopRevocationStore{}
	if cfg.RedisURL != "" {
		store, err := auth.NewRedisRevocationStore(cmd.Context(), cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", zap.Error(err))
			return err
		}
		defer store.Close()
		revocations = store
		readiness["redis"] = store.Ping
	} else {
		log.Warn("REDIS_URL not set, logout will not revoke tokens")
	}

	sender, err := newSender(cmd.Context(), cfg, log)
	if err != nil {
		log.Error("failed to set up email delivery", zap.Error(err))
		return err
	}
	mail := mailer.New(sender)
	metrics := monitoring.New()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)

	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	collabRepo := repository.NewCollaborationRepository(db)

	router := handlers.NewRouter(handlers.RouterDeps{
		Environment: cfg.Env,
		Log:         log,
		Metrics:     metrics,
		Tokens:      tokens,
		Revocations: revocations,
		Auth:        services.NewAuthService(userRepo, tokens, revocations, mail, cfg.FrontendURL, log),
		Workspaces:  services.NewWorkspaceService(workspaceRepo),
		Invitations: services.NewInvitationService(
			userRepo,
			workspaceRepo,
			collabRepo,
			mail,
			metrics,
			services.InvitationConfig{FrontendURL: cfg.FrontendURL, TTL: cfg.InvitationTTL, DeliveryTimeout: cfg.EmailSendTimeout},
			log,
		),
		Readiness: readiness,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newCORS(cfg).Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}

// newSender picks the configured transport and logs emails when none is set up.
func newSender(ctx context.Context, cfg *config.Config, log *zap.Logger) (mailer.Sender, error) {
	if !cfg.EmailConfigured() {
		log.Warn("email not configured, invitation emails will only be logged")
		return mailer.NewLogSender(log), nil
	}

	if cfg.EmailTransport == config.EmailTransportSES {
		return mailer.NewSESSender(ctx, mailer.SESConfig{
			Region:    cfg.SESRegion,
			AccessKey: cfg.SESAccessKey,
			SecretKey: cfg.SESSecretKey,
			From:      cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		})
	}

	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
	}), nil
}

func newCORS(cfg *config.Config) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
}
