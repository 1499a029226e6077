package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crcportal/api/internal/config"
	"github.com/crcportal/api/internal/database"
	"github.com/crcportal/api/internal/handler"
	"github.com/crcportal/api/internal/jobs"
	"github.com/crcportal/api/internal/membership"
	"github.com/crcportal/api/internal/metrics"
	"github.com/crcportal/api/internal/middleware"
	"github.com/crcportal/api/internal/repository"
	"github.com/crcportal/api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Scheme:    cfg.Database.Scheme,
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize repositories
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)

	// Initialize observers
	recorder := metrics.New()
	eventHub := service.NewEventHub(cfg.Roster.HeartbeatInterval)
	defer eventHub.Close()

	// Initialize services
	rosterService := service.NewRosterService(service.RosterServiceConfig{
		StudentRepo: studentRepo,
		ClassRepo:   classRepo,
		Observer: membership.Observers{
			eventHub,
			recorder,
			membership.LogObserver{Logger: logger},
		},
		SyncObserver:      recorder,
		LookupConcurrency: cfg.Roster.LookupConcurrency,
		PersistTimeout:    cfg.Roster.MutationTimeout,
	})
	classService := service.NewClassService(service.ClassServiceConfig{
		ClassRepo: classRepo,
		Roster:    rosterService,
	})

	// Initial roster load. The server still starts on failure; roster
	// endpoints answer 503 until the resync job succeeds.
	syncCtx, cancelSync := context.WithTimeout(ctx, time.Minute)
	if resp, err := rosterService.Sync(syncCtx); err != nil {
		slog.Error("initial roster sync failed", slog.String("error", err.Error()))
	} else {
		slog.Info("roster loaded",
			slog.Int("students", resp.Students),
			slog.String("version", resp.Version),
		)
	}
	cancelSync()

	// Start background jobs
	resync := jobs.NewRosterResync(rosterService, cfg.Roster.ResyncInterval)
	resync.Start()
	defer resync.Stop()

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	// Initialize idempotency store
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		Cleanup: cfg.Idempotency.Cleanup,
	})
	defer idempotencyStore.Stop()

	// Create router
	mux := http.NewServeMux()

	handler.NewHealthHandler(db, rosterService).RegisterRoutes(mux)
	handler.NewClassHandler(classService).RegisterRoutes(mux)
	handler.NewStudentHandler(rosterService).RegisterRoutes(mux)
	handler.NewMembershipHandler(rosterService).RegisterRoutes(mux)
	handler.NewEventsHandler(eventHub, classService).RegisterRoutes(mux)
	mux.Handle("GET /metrics", recorder.Handler())

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		recorder.Middleware,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Compress,
		middleware.Idempotency(idempotencyStore),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Close event streams first so Shutdown does not wait on them.
	eventHub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
