package config

import (
	"github.com/for4for/dealer-workflow/internal/container"
)

// ToContainerConfig converts the application configuration into the container's
// configuration. The timezone must already have passed Validate.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	cfg := container.DefaultConfig()

	cfg.Database = container.DatabaseConfig{
		Path:            c.Database.Path,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}

	cfg.Lark = container.LarkConfig{
		Enabled:       c.Lark.Enabled,
		AppID:         c.Lark.AppID,
		AppSecret:     c.Lark.AppSecret,
		StaffChatID:   c.Lark.StaffChatID,
		AgencyChatID:  c.Lark.AgencyChatID,
		DealerOpenIDs: c.Lark.DealerOpenIDs,
		APITimeout:    c.Lark.APITimeout,
	}

	cfg.Server = container.ServerConfig{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
	}

	cfg.Metrics = container.MetricsConfig{
		Enabled: c.Metrics.Enabled,
		Path:    c.Metrics.Path,
	}

	cfg.Portal = container.PortalConfig{
		BaseURL:  c.Portal.BaseURL,
		Location: loc,
	}

	// a notification handler never needs longer than one Lark call
	if c.Lark.APITimeout > 0 {
		cfg.Dispatcher.HandlerTimeout = c.Lark.APITimeout
	}

	return cfg, nil
}
