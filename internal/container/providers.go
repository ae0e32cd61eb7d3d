package container

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/dispatcher"
	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/application/service"
	"github.com/for4for/dealer-workflow/internal/application/workflow"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	"github.com/for4for/dealer-workflow/internal/infrastructure/export"
	infraLark "github.com/for4for/dealer-workflow/internal/infrastructure/external/lark"
	"github.com/for4for/dealer-workflow/internal/infrastructure/metrics"
	"github.com/for4for/dealer-workflow/internal/infrastructure/persistence/repository"
	"github.com/for4for/dealer-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/for4for/dealer-workflow/pkg/database"
	"github.com/for4for/dealer-workflow/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Requests    port.RequestRepository
	BudgetPlans port.BudgetPlanRepository
}

// MetricsBundle holds the Prometheus registry and the collectors registered on it.
type MetricsBundle struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// ProvideDatabase opens the database and applies the embedded migrations.
// Returns DatabaseBundle containing the connection and the transaction manager.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(conn, logger).Run(ctx, sqlite.Migrations); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories over the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Requests:    repository.NewRequestRepository(db, logger),
		BudgetPlans: repository.NewBudgetPlanRepository(db, logger),
	}, nil
}

// ProvideMetrics creates a registry with the workflow collectors plus the Go and
// process collectors. Returns nil when metrics are disabled.
func ProvideMetrics(cfg *MetricsConfig) *MetricsBundle {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsBundle{
		Registry: reg,
		Metrics:  metrics.New(reg),
	}
}

// ProvideNotifier creates the Lark notifier. Returns nil when notifications are disabled.
func ProvideNotifier(cfg *LarkConfig, logger *zap.Logger) (port.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if !cfg.Enabled {
		logger.Info("Lark notifications disabled")
		return nil, nil
	}

	larkCfg := infraLark.Config{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		StaffChatID:   cfg.StaffChatID,
		AgencyChatID:  cfg.AgencyChatID,
		DealerOpenIDs: cfg.DealerOpenIDs,
		Timeout:       cfg.APITimeout,
	}
	sdkClient := infraLark.NewSDKClient(larkCfg, logger)
	messages := infraLark.NewMessageAPI(sdkClient, logger)

	return infraLark.NewNotifier(messages, larkCfg, logger), nil
}

// DispatcherDeps holds dependencies required for creating the dispatcher.
type DispatcherDeps struct {
	Config   *DispatcherConfig
	Observer dispatcher.Observer
	Logger   *zap.Logger
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(deps *DispatcherDeps) (dispatcher.Dispatcher, error) {
	if deps == nil || deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []dispatcher.Option{
		dispatcher.WithLogger(utils.NewKVLogger(deps.Logger.Named("dispatcher"))),
	}
	if deps.Observer != nil {
		opts = append(opts, dispatcher.WithObserver(deps.Observer))
	}
	if deps.Config != nil && deps.Config.HandlerTimeout > 0 {
		opts = append(opts, dispatcher.WithHandlerTimeout(deps.Config.HandlerTimeout))
	}

	return dispatcher.NewDispatcher(opts...), nil
}

// ProvideNotificationService registers the notification handlers on the dispatcher.
// Returns nil when there is no notifier.
func ProvideNotificationService(
	notifier port.Notifier,
	portal *PortalConfig,
	disp dispatcher.Dispatcher,
	logger *zap.Logger,
) service.NotificationService {
	if notifier == nil {
		return nil
	}

	svc := service.NewNotificationService(notifier, portal.BaseURL, utils.NewKVLogger(logger.Named("notification")))
	svc.Register(disp)
	return svc
}

// FacadeDeps holds dependencies required for creating the workflow facade.
type FacadeDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Recorder   workflow.Recorder
	Location   *time.Location
	Logger     *zap.Logger
}

// ProvideFacade creates the workflow facade.
func ProvideFacade(deps *FacadeDeps) (workflow.Facade, error) {
	if deps == nil {
		return nil, fmt.Errorf("facade dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.Option{
		workflow.WithLogger(utils.NewKVLogger(deps.Logger.Named("workflow"))),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}
	if deps.Recorder != nil {
		opts = append(opts, workflow.WithRecorder(deps.Recorder))
	}
	if deps.Location != nil {
		opts = append(opts, workflow.WithTimelineBuilder(timeline.NewBuilder(timeline.WithLocation(deps.Location))))
	}

	return workflow.NewFacade(deps.Repos.Requests, deps.Repos.BudgetPlans, deps.TxManager, opts...), nil
}

// ProvideExporter creates the timeline XLSX exporter.
func ProvideExporter(portal *PortalConfig, logger *zap.Logger) port.TimelineExporter {
	return export.NewTimelineWorkbook(portal.Location, logger)
}
