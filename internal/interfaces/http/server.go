// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to workflow facade calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthFunc reports whether a dependency is usable
type HealthFunc func(ctx context.Context) error

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Option configures optional parts of the server
type Option func(*Server)

// WithMetrics exposes gatherer on path
func WithMetrics(path string, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.gatherer = gatherer
	}
}

// WithHealthCheck adds a named dependency to the health endpoint
func WithHealthCheck(name string, check HealthFunc) Option {
	return func(s *Server) {
		s.health[name] = check
	}
}

// Server is the HTTP server adapter
type Server struct {
	config      ServerConfig
	httpServer  *http.Server
	router      *gin.Engine
	facade      workflow.Facade
	exporter    port.TimelineExporter
	logger      Logger
	metricsPath string
	gatherer    prometheus.Gatherer
	health      map[string]HealthFunc
}

// NewServer creates a new HTTP server over the workflow facade
func NewServer(
	config ServerConfig,
	facade workflow.Facade,
	exporter port.TimelineExporter,
	logger Logger,
	opts ...Option,
) *Server {
	// Set gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		facade:   facade,
		exporter: exporter,
		logger:   logger,
		health:   make(map[string]HealthFunc),
	}
	for _, opt := range opts {
		opt(server)
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.facade, s.exporter, s.logger)

	s.router.GET("/health", s.healthCheck)
	if s.gatherer != nil && s.metricsPath != "" {
		s.router.GET(s.metricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.router.Group("/api", identityMiddleware())
	{
		api.POST("/requests", handlers.Submit)
		api.GET("/requests", handlers.List)
		api.GET("/stats", handlers.Stats)
		api.POST("/budget/check", handlers.CheckBudget)

		req := api.Group("/requests/:kind/:id")
		req.GET("", handlers.Get)
		req.PUT("", handlers.Edit)
		req.POST("/transitions", handlers.Transition)
		req.POST("/route", handlers.Route)
		req.POST("/comments", handlers.Comment)
		req.GET("/timeline", handlers.Timeline)
		req.GET("/timeline/export", handlers.ExportTimeline)
	}
}

// healthCheck handles GET /health
func (s *Server) healthCheck(c *gin.Context) {
	components := make(map[string]string, len(s.health))
	healthy := true
	for name, check := range s.health {
		if err := check(c.Request.Context()); err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(status, Response{
		Success: healthy,
		Data: HealthResponse{
			Status:     state,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Components: components,
		},
	})
}

// Start starts the HTTP server and blocks until ctx is cancelled or serving fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
