package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"pixelfort/api/internal/adapters/cloudflare"
	"pixelfort/api/internal/adapters/dnscheck"
	"pixelfort/api/internal/adapters/storage"
	"pixelfort/api/internal/api/handlers"
	"pixelfort/api/internal/api/middleware"
	"pixelfort/api/internal/api/router"
	"pixelfort/api/internal/config"
	"pixelfort/api/internal/core/services"
	"pixelfort/api/internal/db/postgres"
	"pixelfort/api/internal/workers"
)

func main() {
	// --- 1. Core Telemetry & Configuration ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("🚀 Booting Pixelfort API...")

	// .env is a local-development convenience; production injects real env vars.
	_ = godotenv.Load()
	cfg := config.Load()

	// --- 2. Outbound Infrastructure ---
	dbPool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("FATAL: DB failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// Second handle over the same database for the sqlx-based repositories.
	sqlxDB, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("FATAL: DB (sqlx) failed", "error", err)
		os.Exit(1)
	}
	defer sqlxDB.Close()

	blobStore, err := storage.NewS3Store(context.Background(), cfg.S3Bucket)
	if err != nil {
		logger.Error("FATAL: blob store failed", "error", err)
		os.Exit(1)
	}

	provider := cloudflare.NewClient(cfg.ProviderAPIToken, cfg.ProviderZoneID, cfg.WorkerService, logger)
	edgeChecker := dnscheck.New(cfg.DNSResolver, cfg.EdgeTarget)

	// --- 3. Hardened Dependency Injection ---

	// Repositories
	domainRepo := postgres.NewDomainRepository(dbPool)
	userRepo := postgres.NewUserRepo(dbPool)
	imageRepo := postgres.NewImageRepository(sqlxDB)
	waitlistRepo := postgres.NewWaitlistRepository(sqlxDB)
	auditRepo := postgres.NewAuditRepository(dbPool)

	// Services
	tokenService := services.NewTokenService(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, tokenService)
	domainService := services.NewDomainService(domainRepo, userRepo, provider, edgeChecker, cfg.WorkerService, logger)
	domainAccess := services.NewDomainAccess(domainRepo, userRepo, domainService, logger)
	imageService := services.NewImageService(imageRepo, blobStore, domainAccess, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	domainHandler := handlers.NewDomainHandler(domainService, domainAccess)
	adminDomainHandler := handlers.NewAdminDomainHandler(domainService, domainRepo, logger)
	imageHandler := handlers.NewImageHandler(imageService, blobStore, imageRepo)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistRepo)
	alertHandler := handlers.NewAlertHandler(auditRepo)
	validationHandler := handlers.NewValidationHandler(domainService)
	healthHandler := handlers.NewHealthHandler(dbPool)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo, logger)

	// --- 4. Background Workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// Hostname status sweeper: surfaces domains stuck mid-validation.
	domainMonitor := workers.NewDomainMonitor(domainRepo, domainService, auditRepo, logger, 5*time.Minute)
	go domainMonitor.Start(workerCtx)

	// --- 5. HTTP Gateway ---
	mux := router.NewRouter(router.RouterConfig{
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthHandler:        authHandler,
		DomainHandler:      domainHandler,
		AdminDomainHandler: adminDomainHandler,
		ImageHandler:       imageHandler,
		WaitlistHandler:    waitlistHandler,
		AlertHandler:       alertHandler,
		ValidationHandler:  validationHandler,
		HealthHandler:      healthHandler,
		AuthMiddleware:     authMiddleware,
		Logger:             logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// --- 6. Graceful Exit ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("🌐 Pixelfort API active", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("CRITICAL: Server crashed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("🛑 Shutting down...")
	cancelWorkers()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ERROR: Forced shutdown", "error", err)
	}
	logger.Info("✅ Pixelfort API shutdown complete.")
}
