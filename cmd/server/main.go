package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // portal.timezone on hosts without a zone database

	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/config"
	"github.com/for4for/dealer-workflow/internal/container"
	httpserver "github.com/for4for/dealer-workflow/internal/interfaces/http"
	"github.com/for4for/dealer-workflow/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting dealer portal workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("lark_notifications", cfg.Lark.Enabled))

	if err := run(cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("Service exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	containerCfg, err := cfg.ToContainerConfig()
	if err != nil {
		return fmt.Errorf("failed to build container config: %w", err)
	}

	c, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	opts := []httpserver.Option{
		httpserver.WithHealthCheck("database", c.PingDatabase),
	}
	if g := c.Gatherer(); g != nil {
		opts = append(opts, httpserver.WithMetrics(containerCfg.Metrics.Path, g))
	}

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:            containerCfg.Server.Host,
			Port:            containerCfg.Server.Port,
			ReadTimeout:     containerCfg.Server.ReadTimeout,
			WriteTimeout:    containerCfg.Server.WriteTimeout,
			ShutdownTimeout: containerCfg.Server.ShutdownTimeout,
		},
		c.Facade(),
		c.Exporter(),
		utils.NewKVLogger(logger.Named("http")),
		opts...,
	)

	// Blocks until a signal arrives or the listener fails
	return server.Start(ctx)
}
