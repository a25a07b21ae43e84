package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/config"
	"github.com/cropmind/cropmind-engine/pkg/database"
	"github.com/cropmind/cropmind-engine/pkg/handlers"
	"github.com/cropmind/cropmind-engine/pkg/inference"
	"github.com/cropmind/cropmind-engine/pkg/middleware"
	"github.com/cropmind/cropmind-engine/pkg/repositories"
	"github.com/cropmind/cropmind-engine/pkg/services"
	"github.com/cropmind/cropmind-engine/pkg/uploads"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Base URL: %s", cfg.BaseURL)
	log.Printf("  Database: %s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	log.Printf("  Inference provider: %s (model %s)", cfg.Inference.Provider, cfg.Inference.Model)
	log.Printf("  Uploads: %s (max %d bytes)", cfg.Uploads.Dir, cfg.Uploads.MaxBytes)

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Migrations run through database/sql; golang-migrate does not speak pgx pools.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to open migration connection: %v", err)
	}
	if err := database.RunMigrations(migrationDB, "migrations", logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := migrationDB.Close(); err != nil {
		log.Fatalf("Failed to close migration connection: %v", err)
	}

	analyzer, err := inference.NewAnalyzer(&cfg.Inference, logger)
	if err != nil {
		log.Fatalf("Failed to create inference client: %v", err)
	}

	store, err := uploads.NewStore(&cfg.Uploads, logger)
	if err != nil {
		log.Fatalf("Failed to create upload store: %v", err)
	}
	stager := uploads.NewStager(&cfg.Uploads, logger)

	detectionRepo := repositories.NewDetectionRepository(db)
	detectionService := services.NewDetectionService(analyzer, detectionRepo, logger)

	mux := http.NewServeMux()

	// Register handlers
	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	detectionHandler := handlers.NewDetectionHandler(detectionService, stager, store, logger)
	detectionHandler.RegisterRoutes(mux)

	// Serve stored detection images
	mux.Handle(cfg.Uploads.BaseURL+"/", http.StripPrefix(cfg.Uploads.BaseURL+"/", http.FileServer(http.Dir(store.Dir()))))

	handler := middleware.RequestLogger(logger)(mux)

	logger.Info("Starting cropmind-engine",
		zap.String("port", cfg.Port),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(cfg.BindAddr+":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
