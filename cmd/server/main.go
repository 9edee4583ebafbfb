package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/api"
	"github.com/rx-timeline-engine/internal/cache"
	"github.com/rx-timeline-engine/internal/catalog"
	"github.com/rx-timeline-engine/internal/config"
	"github.com/rx-timeline-engine/internal/database"
	"github.com/rx-timeline-engine/internal/domain"
	"github.com/rx-timeline-engine/internal/review"
	"github.com/rx-timeline-engine/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)

	// A broken catalog is fatal: the engine never runs on partial rules.
	cat, err := catalog.FromConfig(cfg.Catalog, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load rule catalog")
	}

	engine := service.NewEngine(cat, cfg.Engine, logger)

	evalCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize evaluation cache")
	}
	defer evalCache.Close()

	reviews, err := openReviewStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open review store")
	}
	if reviews != nil {
		defer reviews.Close()
	}

	logger.WithFields(logrus.Fields{
		"host":            cfg.Server.Host,
		"port":            cfg.Server.Port,
		"catalog_version": cat.Version(),
	}).Info("Starting rx-timeline-engine server")

	// Create server
	server := api.NewServer(configManager, engine, evalCache, reviews, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}

	logger.Info("Server stopped")
}

// openReviewStore builds the configured review backend. Postgres runs
// pending migrations before the store is handed out. Backend "none"
// disables the review surface entirely.
func openReviewStore(cfg *domain.Config, logger *logrus.Logger) (review.Store, error) {
	switch cfg.Review.Backend {
	case "sqlite":
		return review.NewSQLiteStore(cfg.Review.SQLitePath)
	case "postgres":
		// Preflight the connection before migrating; a pool error here
		// reads much better than a migration failure.
		db, err := database.NewConnection(context.Background(), cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		db.Close()

		migrator, err := database.NewMigrator(cfg.Database, "migrations", logger)
		if err != nil {
			return nil, err
		}
		if err := migrator.Up(); err != nil {
			migrator.Close()
			return nil, err
		}
		migrator.Close()
		return review.NewPostgresStoreFromURL(database.URL(cfg.Database))
	default:
		return nil, nil
	}
}
