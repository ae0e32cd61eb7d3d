package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/application/workflow"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
	"github.com/for4for/dealer-workflow/pkg/database"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Database.Path = database.MemoryPath
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "lark enabled without app id", mutate: func(c *Config) { c.Lark.Enabled = true }, wantErr: "lark.app_id"},
		{
			name: "lark enabled without secret",
			mutate: func(c *Config) {
				c.Lark.Enabled = true
				c.Lark.AppID = "cli_x"
			},
			wantErr: "lark.app_secret",
		},
		{name: "no location", mutate: func(c *Config) { c.Portal.Location = nil }, wantErr: "portal.location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewContainer_RequiresConfigAndLogger(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Database.Path = ""
	_, err = NewContainer(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "invalid config")
}

func TestContainer_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(testConfig(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start")

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Equal(t, "disabled", health.Components["notifications"].Message)

	require.NotNil(t, c.Facade())
	require.NotNil(t, c.Exporter())
	require.NotNil(t, c.Gatherer())

	out, err := c.Facade().Submit(ctx, entity.Actor{Role: entity.RoleDealer, DealerID: "dealer-1"}, workflow.SubmitCommand{
		Kind:     domainwf.KindIncentive,
		DealerID: "dealer-1",
		Title:    "Satış primi",
	})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StatusPendingApproval, out.Request.Status)

	stored, err := c.Repositories().Requests.Get(ctx, domainwf.KindIncentive, out.Request.ID)
	require.NoError(t, err)
	assert.Len(t, stored.AuditLog, 2)

	families, err := c.Gatherer().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["portal_request_transitions_total"])
	assert.True(t, names["go_goroutines"])

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(ctx), "start after close")
}

func TestContainer_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	assert.Nil(t, c.Gatherer())
}

func TestProvideFacade_ListsWhatWasSubmitted(t *testing.T) {
	ctx := context.Background()
	bundle, err := ProvideDatabase(ctx, &DatabaseConfig{Path: database.MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	defer bundle.Conn.Close()

	repos, err := ProvideRepositories(bundle.TransactionMgr, zap.NewNop())
	require.NoError(t, err)

	loc := time.FixedZone("TRT", 3*60*60)
	facade, err := ProvideFacade(&FacadeDeps{
		Repos:     repos,
		TxManager: bundle.TransactionMgr,
		Location:  loc,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)

	admin := entity.Actor{Role: entity.RoleAdmin, Name: "Mehmet"}
	_, err = facade.Submit(ctx, admin, workflow.SubmitCommand{
		Kind:        domainwf.KindCreative,
		DealerID:    "dealer-7",
		Title:       "Vitrin görseli",
		SaveAsDraft: true,
	})
	require.NoError(t, err)

	list, err := facade.List(ctx, admin, port.RequestFilter{Kind: domainwf.KindCreative})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domainwf.StatusDraft, list[0].Status)
}

func TestProvideNotifier_Disabled(t *testing.T) {
	n, err := ProvideNotifier(&LarkConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = ProvideNotifier(&LarkConfig{Enabled: true, AppID: "cli_x", AppSecret: "s"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, n)
}
