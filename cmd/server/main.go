// Package main is the entry point for the CureLink records portal.
// It serves the patient and hospital pages, keeps login sessions, and
// forwards every records operation to the records backend.
//
// Architecture:
//   - Records, users and approvals live in the backend; the portal keeps none
//   - Report files are pinned to a content-addressed gateway (Pinata or S3)
//   - Private keys are shown once at registration and never stored
//   - Sessions live in Redis, or in memory when REDIS_URL is unset
//   - Uploads whose registration failed are kept in an orphan ledger
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curelink/records-portal/internal/backend"
	"github.com/curelink/records-portal/internal/config"
	"github.com/curelink/records-portal/internal/database"
	"github.com/curelink/records-portal/internal/handlers"
	"github.com/curelink/records-portal/internal/logger"
	"github.com/curelink/records-portal/internal/services"
	"github.com/curelink/records-portal/internal/session"
	"github.com/curelink/records-portal/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	sugar := log.Sugar()

	sugar.Infow("Starting CureLink records portal",
		"port", cfg.Port,
		"env", cfg.Environment,
		"backend_url", cfg.BackendURL,
		"storage", cfg.StorageDriver,
	)

	ctx := context.Background()

	// Orphan ledger: Postgres when configured, log lines otherwise
	var (
		db     *pgxpool.Pool
		ledger services.OrphanLedger = services.NewLogOrphanLedger(sugar)
	)
	if cfg.DatabaseURL != "" {
		db, err = database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			sugar.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		pg := services.NewPostgresOrphanLedger(db, sugar)
		if err := pg.EnsureSchema(ctx); err != nil {
			sugar.Fatalf("Failed to prepare orphan ledger: %v", err)
		}
		ledger = pg
	}

	// Session store
	var store session.Store
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			sugar.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rs.Close()
		store = rs
	} else {
		sugar.Warn("REDIS_URL not set, sessions are kept in memory")
		store = session.NewMemoryStore()
	}
	sessions, err := session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, sugar)
	if err != nil {
		sugar.Fatalf("Failed to create session manager: %v", err)
	}

	gateway, err := newGateway(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("Failed to create storage gateway: %v", err)
	}

	// Initialize services
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, sugar)

	deps := handlers.Deps{
		Accounts:       services.NewAccountService(client, sugar),
		Documents:      services.NewDocumentService(client, sugar),
		Uploads:        services.NewUploadService(gateway, client, ledger, cfg.UploadConcurrency, sugar),
		Medicines:      services.NewMedicineService(client, sugar),
		Predictions:    services.NewPredictionService(client, sugar),
		Sessions:       sessions,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPM:   cfg.RateLimitRPM,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         log,
	}
	if db != nil {
		deps.DB = db
	}

	router, err := handlers.NewRouter(deps)
	if err != nil {
		sugar.Fatalf("Failed to build router: %v", err)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second, // uploads pin every file before answering
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}

func newGateway(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (storage.Gateway, error) {
	if cfg.StorageDriver == config.StorageS3 {
		client, err := storage.NewS3Client(ctx, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Gateway(client, cfg.S3Bucket, logger), nil
	}
	return storage.NewPinataGateway(cfg.PinataURL, cfg.PinataJWT, logger), nil
}
