package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compliancehub/internal/auth"
	"compliancehub/internal/config"
	"compliancehub/internal/database"
	"compliancehub/internal/database/migration"
	handlers "compliancehub/internal/http/handler"
	"compliancehub/internal/http/middleware"
	"compliancehub/internal/otel"
	"compliancehub/internal/repository/postgres"
	"compliancehub/internal/service"
	"compliancehub/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC

	// Initialize tracing; a disabled SDK yields a no-op shutdown.
	shutdownTracing, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Bootstrap the schema when it does not exist yet
	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories
	userRepo := postgres.NewUserPostgres(db)
	evidenceRepo := postgres.NewEvidencePostgres(db)
	requestRepo := postgres.NewRequestPostgres(db)
	grantRepo := postgres.NewGrantPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)

	// Initialize services. The audit recorder is shared: every state-changing
	// operation appends to the same trail.
	auditSvc := service.NewAuditService(auditRepo, prometheus.DefaultRegisterer)
	grantSvc := service.NewGrantService(grantRepo)
	evidenceSvc := service.NewEvidenceService(evidenceRepo, grantRepo, objStore, auditSvc)
	requestSvc := service.NewRequestService(requestRepo, evidenceRepo, userRepo, grantSvc, auditSvc)

	tokenSvc := auth.NewTokenService(
		cfg.JWT.SigningKey,
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.AccessTTLMin)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLMin)*time.Minute,
	)
	authSvc := auth.NewService(userRepo, tokenSvc, auditSvc)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register prometheus middleware: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, authSvc, evidenceSvc, requestSvc, auditSvc)

	// Shut down on SIGINT/SIGTERM, letting in-flight requests drain.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
