package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/cache"
	"github.com/rx-timeline-engine/internal/config"
	"github.com/rx-timeline-engine/internal/middleware"
	"github.com/rx-timeline-engine/internal/review"
	"github.com/rx-timeline-engine/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager *config.Manager
	engine        *service.Engine
	cache         *cache.EvaluationCache
	reviews       review.Store
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance. The cache and review store
// may be nil; the corresponding behavior (result reuse, dismissed-finding
// suppression, review endpoints) is simply disabled.
func NewServer(configManager *config.Manager, engine *service.Engine, evalCache *cache.EvaluationCache, reviews review.Store, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	if cfg.Server.RateLimitPerSec > 0 {
		router.Use(middleware.RateLimit(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst))
	}

	server := &Server{
		configManager: configManager,
		engine:        engine,
		cache:         evalCache,
		reviews:       reviews,
		logger:        logger,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/evaluate", s.handleEvaluate)
		v1.POST("/timeline", s.handleTimeline)
		v1.GET("/catalog", s.handleCatalogInfo)

		v1.POST("/reviews", s.handleSaveReview)
		v1.GET("/reviews/:patient_id", s.handleListReviews)
		v1.DELETE("/reviews/:id", s.handleDeleteReview)
		v1.GET("/reviews-export", s.handleExportReviews)
		v1.POST("/reviews-import", s.handleImportReviews)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
