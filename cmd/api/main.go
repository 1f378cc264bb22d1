// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/config"
	"github.com/dangerclosesec/partnerhub/internal/database"
	"github.com/dangerclosesec/partnerhub/internal/email"
	"github.com/dangerclosesec/partnerhub/internal/handler"
	"github.com/dangerclosesec/partnerhub/internal/metrics"
	"github.com/dangerclosesec/partnerhub/internal/middleware"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/dangerclosesec/partnerhub/internal/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	assignmentRepo := repository.NewPartnerDepartmentRepository(db)
	contentRepo := repository.NewPartnerContentRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	linkRepo := repository.NewProjectPartnerRepository(db)
	mouRepo := repository.NewMOURepository(db)
	auditRepo := repository.NewAuthzAuditLogRepository(db)

	// Authorization
	auditLogService := service.NewAuthzAuditLogService(auditRepo)
	policy := authz.NewPolicy(auditLogService, m)

	// Relationship mirror, only when a Permify endpoint is configured
	var relations *service.RelationSync
	var reconciler *service.ReconciliationService
	if cfg.Permify.Endpoint != "" {
		permify, err := auth.NewPermifyService(cfg.Permify.Endpoint, auth.WithTenant(cfg.Permify.Tenant))
		if err != nil {
			return fmt.Errorf("connecting to permify: %w", err)
		}
		relations = service.NewRelationSync(permify, auditLogService, m)
		reconciler = service.NewReconciliationService(assignmentRepo, userRepo, relations, 0, logger)
		reconciler.Start()
		defer reconciler.Stop()
	} else {
		logger.Info("permify endpoint not configured, relationship mirror disabled")
	}

	// Initialize email service
	emailService, err := email.NewEmailService(cfg, email.ProviderFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("initializing email service: %w", err)
	}

	// File storage for partner documents and MOUs
	files := storage.NewLocalFileStore(cfg.Storage.MediaRoot, cfg.Storage.MediaURL)

	// Initialize auth services
	passwordHasher := auth.NewPasswordHasher()
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod, cfg.JWT.RefreshPeriod)

	// Initialize services
	authService := service.NewAuthService(userRepo, passwordHasher, tokenManager, m)
	userService := service.NewUserService(userRepo, accessRepo, passwordHasher, policy, relations)
	partnerService := service.NewPartnerService(
		partnerRepo,
		assignmentRepo,
		contentRepo,
		files,
		policy,
		service.WithRelationSync(relations),
		service.WithStatusNotifier(service.NewEmailStatusNotifier(emailService, cfg.BaseURL)),
		service.WithMetrics(m),
	)
	projectService := service.NewProjectService(projectRepo, linkRepo, mouRepo, partnerRepo, files, policy)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	projectHandler := handler.NewProjectHandler(projectService)
	auditLogHandler := handler.NewAuthzAuditLogHandler(auditLogService, policy)

	// Create router
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(recoveryMiddleware(logger))
	r.Use(m.Middleware)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, m.Handler())
	}

	// Uploaded files
	mediaURL := "/" + strings.Trim(cfg.Storage.MediaURL, "/") + "/"
	r.Handle(mediaURL+"*", http.StripPrefix(mediaURL, http.FileServer(http.Dir(cfg.Storage.MediaRoot))))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthzAuditMiddleware)

		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))

			r.Route("/auth", authHandler.PublicRoutes)
			r.Post("/token", authHandler.LoginHandler)
			r.Post("/token/refresh", authHandler.RefreshHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json", "multipart/form-data"))
			r.Use(middleware.AuthMiddleware(authService))

			r.Get("/auth/me", authHandler.MeHandler)

			r.Route("/partners", partnerHandler.Routes)
			r.Route("/documents", partnerHandler.DocumentRoutes)
			r.Route("/projects", projectHandler.Routes)
			r.Route("/project-partners", projectHandler.ProjectPartnerRoutes)
			r.Route("/mous", projectHandler.MOURoutes)

			r.Route("/users", userHandler.Routes)
			r.Post("/admin/create_admin", userHandler.CreateAdmin)
			r.Route("/roles", userHandler.RoleRoutes)
			r.Route("/permissions", userHandler.PermissionRoutes)
			r.Route("/departments", userHandler.DepartmentRoutes)
			r.Route("/user_departments", userHandler.UserDepartmentRoutes)

			r.Route("/authz/audit-logs", auditLogHandler.Routes)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server error channel
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "database", cfg.Database.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	// Shutdown channel
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown or error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutdown started", "signal", sig)

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			// If shutdown times out, forcefully close
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"status", ww.Status(),
					"size", ww.BytesWritten(),
					"requestID", chimw.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					err := errors.New("panic recovered")
					logger.Error("panic recovered",
						"error", err,
						"panic", rvr,
						"stack", string(debug.Stack()),
						"requestID", chimw.GetReqID(r.Context()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("{\"error\":\"error encountered\"}"))
					return
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
