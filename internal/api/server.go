package api

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/watchsync/internal/api/handlers"
	"github.com/amaumene/watchsync/internal/api/middleware"
	"github.com/amaumene/watchsync/internal/config"
	"github.com/amaumene/watchsync/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	app    *fiber.App
	addr   string
	db     handlers.RunStore
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db handlers.RunStore, m *metrics.Metrics, logger *logrus.Logger) *Server {
	s := &Server{
		addr:   ":" + cfg.ServerPort,
		db:     db,
		logger: logger,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
	})
	s.app.Use(middleware.Logging(logger))
	s.setupRoutes(m)

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(m *metrics.Metrics) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	s.app.Get("/health", healthHandler.Handle)

	statusHandler := handlers.NewStatusHandler(s.db, s.logger)
	s.app.Get("/status", statusHandler.Handle)
	s.app.Get("/status/:id", statusHandler.HandleRun)

	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}

// App exposes the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithTimeout(10 * time.Second)
}
