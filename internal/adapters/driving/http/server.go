package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saron-retail/saron-core/internal/core/ports/driven"
	"github.com/saron-retail/saron-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	syncService  driving.SalesSyncService
	saleService  driving.SaleQueryService
	erpReader    driving.ERPReader
	scheduler    driving.Scheduler
	tokens       driven.TokenVerifier
	taskQueue    driven.TaskQueue
	db           Pinger
	redisClient  Pinger
	allowOrigins []string
	metrics      bool
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	MetricsEnabled bool
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
		MetricsEnabled: true,
	}
}

// Dependencies are the services behind the routes.
// Scheduler, TaskQueue and Redis may be nil; the routes that need them answer 503.
type Dependencies struct {
	Sync      driving.SalesSyncService
	Sales     driving.SaleQueryService
	ERP       driving.ERPReader
	Scheduler driving.Scheduler
	Tokens    driven.TokenVerifier
	TaskQueue driven.TaskQueue
	DB        Pinger
	Redis     Pinger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:       http.NewServeMux(),
		version:      cfg.Version,
		logger:       logger,
		syncService:  deps.Sync,
		saleService:  deps.Sales,
		erpReader:    deps.ERP,
		scheduler:    deps.Scheduler,
		tokens:       deps.Tokens,
		taskQueue:    deps.TaskQueue,
		db:           deps.DB,
		redisClient:  deps.Redis,
		allowOrigins: cfg.AllowedOrigins,
		metrics:      cfg.MetricsEnabled,
	}

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// Synchronous full-history syncs hold the request open.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the global middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if s.metrics {
		h = NewMetricsMiddleware().Handler(h)
	}
	h = NewCORSMiddleware(s.allowOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.tokens)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.metrics {
		s.router.Handle("GET /metrics", promhttp.Handler())
	}

	// Sync triggers (admin-only)
	s.router.Handle("POST /api/v1/sync/today", admin(s.handleSyncToday))
	s.router.Handle("POST /api/v1/sync/month", admin(s.handleSyncMonth))
	s.router.Handle("POST /api/v1/sync/full", admin(s.handleSyncFull))
	s.router.Handle("POST /api/v1/sync/all", admin(s.handleSyncAll))
	s.router.Handle("POST /api/v1/sync/store", admin(s.handleSyncStore))
	s.router.Handle("GET /api/v1/sync/status", admin(s.handleSyncStatus))
	s.router.Handle("GET /api/v1/tasks/{id}", admin(s.handleGetTask))

	// Schedules (admin-only)
	s.router.Handle("GET /api/v1/schedules", admin(s.handleListSchedules))
	s.router.Handle("POST /api/v1/schedules/{id}/trigger", admin(s.handleTriggerSchedule))

	// Local sales (authenticated)
	s.router.Handle("GET /api/v1/sales", authed(s.handleListSales))

	// Live ERP reads (authenticated)
	s.router.Handle("GET /api/v1/erp/stores", authed(s.handleERPStores))
	s.router.Handle("GET /api/v1/erp/{resource}", authed(s.handleERPResource))
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
