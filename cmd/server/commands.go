package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/projectdesk/internal/config"
	"github.com/yukikurage/projectdesk/internal/constants"
	"github.com/yukikurage/projectdesk/internal/database"
	"github.com/yukikurage/projectdesk/internal/facade"
	"github.com/yukikurage/projectdesk/internal/handlers"
	"github.com/yukikurage/projectdesk/internal/policy"
	"github.com/yukikurage/projectdesk/internal/repository"
	"github.com/yukikurage/projectdesk/internal/services"
)

const shutdownTimeout = 10 * time.Second

// prepare connects to the database and brings the schema and seed data up
// to date
func prepare(cfg *config.Config) error {
	if err := database.Connect(cfg); err != nil {
		return err
	}
	if err := database.Migrate(); err != nil {
		return err
	}
	if err := database.SeedRoles(database.GetDB()); err != nil {
		return err
	}
	_, err := database.SeedAdmin(database.GetDB(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	return err
}

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and the built-in roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Connect(cfg); err != nil {
				return err
			}
			if err := database.Migrate(); err != nil {
				return err
			}
			return database.SeedRoles(database.GetDB())
		},
	}
}

func newSeedCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate, then create the configured admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return prepare(cfg)
		},
	}
}

func newServeCommand(cfg *config.Config) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.ServerPort = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides SERVER_PORT)")

	return cmd
}

func sessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // username (empty for default user)
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func loadPolicy(cfg *config.Config) (*policy.Policy, error) {
	if cfg.PolicyFile == "" {
		return policy.Default(), nil
	}
	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded role policy from %s", cfg.PolicyFile)
	return pol, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)

	if err := prepare(cfg); err != nil {
		return err
	}
	pol, err := loadPolicy(cfg)
	if err != nil {
		return err
	}
	store, err := sessionStore(cfg)
	if err != nil {
		return err
	}

	repos := repository.NewStore(database.GetDB())
	audit := services.NewAuditService(repos)
	identity := services.NewIdentityService(repos, audit)
	if cfg.OpenAIAPIKey == "" {
		log.Println("OPENAI_API_KEY is not set, task suggestions are disabled")
	}
	f := facade.New(services.NewSessionService(repos, cfg.SessionTTL), pol, facade.Services{
		Identity:    identity,
		Clients:     services.NewClientService(repos, audit),
		Projects:    services.NewProjectService(repos, audit),
		Tasks:       services.NewTaskService(repos, audit),
		Comments:    services.NewCommentService(repos, audit),
		Attachments: services.NewAttachmentService(repos, audit),
		Audit:       audit,
		Suggestions: services.NewSuggestionService(cfg.OpenAIAPIKey, repos),
	})

	r := gin.Default()
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	handlers.RegisterRoutes(r, f, identity)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
