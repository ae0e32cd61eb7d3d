package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/dispatcher"
	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/application/service"
	"github.com/for4for/dealer-workflow/internal/application/workflow"
	"github.com/for4for/dealer-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/for4for/dealer-workflow/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	conn         *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Observability
	metrics *MetricsBundle

	// Infrastructure - External
	notifier port.Notifier
	exporter port.TimelineExporter

	// Application
	dispatcher    dispatcher.Dispatcher
	notifications service.NotificationService
	facade        workflow.Facade

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. Metrics
// 3. External clients (Lark notifier, exporter)
// 4. Event dispatcher and notification handlers
// 5. Workflow facade
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize metrics
	c.metrics = ProvideMetrics(&c.config.Metrics)

	// Step 3: Initialize external clients
	if err := c.initExternalClients(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized")

	// Step 4: Initialize dispatcher and handlers
	if err := c.initDispatcher(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized")

	// Step 5: Initialize workflow facade
	if err := c.initFacade(); err != nil {
		_ = c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize workflow facade: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Drain in-flight notifications before the database goes away
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 2: Close database
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database
	if err := c.PingDatabase(ctx); err != nil {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: err.Error()}
		status.Overall = false
	} else {
		status.Components["database"] = ComponentHealth{Healthy: true}
	}

	// Check dispatcher
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Notifications are optional
	if c.notifier != nil {
		status.Components["notifications"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["notifications"] = ComponentHealth{Healthy: true, Message: "disabled"}
	}

	return status
}

// PingDatabase reports whether the database answers
func (c *Container) PingDatabase(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("not initialized")
	}
	if err := c.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase(ctx context.Context) error {
	dbBundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.conn = dbBundle.Conn
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}

	c.repositories = repos
	return nil
}

// initExternalClients initializes the Lark notifier and the exporter using providers.
func (c *Container) initExternalClients() error {
	notifier, err := ProvideNotifier(&c.config.Lark, c.logger)
	if err != nil {
		return err
	}
	c.notifier = notifier
	c.exporter = ProvideExporter(&c.config.Portal, c.logger)
	return nil
}

// initDispatcher creates the dispatcher and registers the notification handlers.
func (c *Container) initDispatcher() error {
	deps := &DispatcherDeps{
		Config: &c.config.Dispatcher,
		Logger: c.logger,
	}
	if c.metrics != nil {
		deps.Observer = c.metrics.Metrics
	}

	disp, err := ProvideDispatcher(deps)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	c.notifications = ProvideNotificationService(c.notifier, &c.config.Portal, c.dispatcher, c.logger)
	return nil
}

// initFacade creates the workflow facade.
func (c *Container) initFacade() error {
	deps := &FacadeDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		Location:   c.config.Portal.Location,
		Logger:     c.logger,
	}
	if c.metrics != nil {
		deps.Recorder = c.metrics.Metrics
	}

	facade, err := ProvideFacade(deps)
	if err != nil {
		return err
	}
	c.facade = facade
	return nil
}

func (c *Container) closeDatabase() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	c.conn = nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Facade returns the workflow facade.
func (c *Container) Facade() workflow.Facade {
	return c.facade
}

// Exporter returns the timeline exporter.
func (c *Container) Exporter() port.TimelineExporter {
	return c.exporter
}

// Gatherer returns the metrics registry, or nil when metrics are disabled.
func (c *Container) Gatherer() prometheus.Gatherer {
	if c.metrics == nil {
		return nil
	}
	return c.metrics.Registry
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
