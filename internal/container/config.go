// Package container provides dependency injection and lifecycle management
// for the dealer portal workflow service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Lark notification configuration
	Lark LarkConfig

	// Server configuration
	Server ServerConfig

	// Metrics configuration
	Metrics MetricsConfig

	// Portal configuration
	Portal PortalConfig

	// Dispatcher configuration
	Dispatcher DispatcherConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// LarkConfig holds Lark notification settings.
type LarkConfig struct {
	// Enabled turns notifications on
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// StaffChatID receives brand staff notifications
	StaffChatID string

	// AgencyChatID receives creative agency notifications
	AgencyChatID string

	// DealerOpenIDs maps dealer ids to Lark open_ids
	DealerOpenIDs map[string]string

	// APITimeout is the timeout for API calls
	APITimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// PortalConfig holds settings of the portal itself.
type PortalConfig struct {
	// BaseURL of the frontend, used for notification links
	BaseURL string

	// Location for legacy note dates and exported timelines
	Location *time.Location
}

// DispatcherConfig holds event dispatcher settings.
type DispatcherConfig struct {
	// HandlerTimeout bounds each side-effect handler run
	HandlerTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/portal.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Lark: LarkConfig{
			APITimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Portal: PortalConfig{
			BaseURL:  "http://localhost:3000",
			Location: time.UTC,
		},
		Dispatcher: DispatcherConfig{
			HandlerTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate Lark configuration
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
	}

	if c.Portal.Location == nil {
		return fmt.Errorf("portal.location is required")
	}

	return nil
}
