package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
	"github.com/for4for/dealer-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/for4for/dealer-workflow/pkg/database"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: database.MemoryPath}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background(), sqlite.Migrations))
	return sqlite.NewDB(db.DB, logger)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newCampaign(id, dealerID string) *entity.Request {
	return &entity.Request{
		ID:       id,
		DealerID: dealerID,
		Kind:     workflow.KindCampaign,
		Status:   workflow.StatusDraft,
		Title:    "Yaz kampanyası",
		Payload:  json.RawMessage(`{"platform":"facebook"}`),
		Campaign: &entity.CampaignTerms{
			StartDate: date(2025, 7, 1),
			EndDate:   date(2025, 7, 31),
			Budget:    decimal.RequireFromString("1500.50"),
		},
		CreatedAt: base,
		UpdatedAt: base,
		AuditLog: []entity.AuditEvent{{
			ID:         id + "-created",
			RequestID:  id,
			Action:     entity.ActionCreated,
			ActorName:  "Bayi A",
			Details:    entity.EventDetails{NewStatus: workflow.StatusDraft},
			OccurredAt: base,
		}},
	}
}

func statusEvent(id, requestID string, from, to workflow.Status, at time.Time) entity.AuditEvent {
	return entity.AuditEvent{
		ID:         id,
		RequestID:  requestID,
		Action:     entity.ActionStatusChange,
		ActorName:  "Moderatör",
		Details:    entity.EventDetails{PreviousStatus: from, NewStatus: to},
		OccurredAt: at,
	}
}

func statusPtr(s workflow.Status) *workflow.Status { return &s }

func TestRequestRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	req := newCampaign("c-1", "dealer-1")
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.Get(ctx, workflow.KindCampaign, "c-1")
	require.NoError(t, err)

	assert.Equal(t, "dealer-1", got.DealerID)
	assert.Equal(t, workflow.StatusDraft, got.Status)
	assert.Nil(t, got.AssignedTo)
	assert.JSONEq(t, `{"platform":"facebook"}`, string(got.Payload))
	require.NotNil(t, got.Campaign)
	assert.True(t, got.Campaign.Budget.Equal(decimal.RequireFromString("1500.5")))
	assert.True(t, got.Campaign.StartDate.Equal(*date(2025, 7, 1)))
	assert.True(t, got.CreatedAt.Equal(base))

	require.Len(t, got.AuditLog, 1)
	assert.Equal(t, entity.ActionCreated, got.AuditLog[0].Action)
	assert.Equal(t, workflow.StatusDraft, got.AuditLog[0].Details.NewStatus)
	assert.Positive(t, got.AuditLog[0].Seq)
}

func TestRequestRepository_GetWrongKindIsNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newCampaign("c-1", "dealer-1")))

	_, err := repo.Get(ctx, workflow.KindCreative, "c-1")
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	_, err = repo.Get(ctx, workflow.KindCampaign, "missing")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestRequestRepository_Update(t *testing.T) {
	ctx := context.Background()
	later := base.Add(time.Minute)

	t.Run("applies patch and appends events in order", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRequestRepository(db, zap.NewNop())
		require.NoError(t, repo.Create(ctx, newCampaign("c-1", "dealer-1")))

		brand := entity.AssigneeBrand
		err := repo.Update(ctx, workflow.KindCampaign, "c-1", port.RequestPatch{
			ExpectedStatus: workflow.StatusDraft,
			Status:         statusPtr(workflow.StatusPendingApproval),
			SetAssignee:    true,
			AssignedTo:     &brand,
			UpdatedAt:      later,
			Events: []entity.AuditEvent{
				statusEvent("e-2", "c-1", workflow.StatusDraft, workflow.StatusPendingApproval, later),
				statusEvent("e-3", "c-1", workflow.StatusDraft, workflow.StatusPendingApproval, later),
			},
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, workflow.KindCampaign, "c-1")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusPendingApproval, got.Status)
		require.NotNil(t, got.AssignedTo)
		assert.Equal(t, entity.AssigneeBrand, *got.AssignedTo)
		assert.True(t, got.UpdatedAt.Equal(later))
		require.Len(t, got.AuditLog, 3)
		assert.Equal(t, []string{"c-1-created", "e-2", "e-3"},
			[]string{got.AuditLog[0].ID, got.AuditLog[1].ID, got.AuditLog[2].ID})
		assert.Less(t, got.AuditLog[1].Seq, got.AuditLog[2].Seq)
	})

	t.Run("stale expected status is a conflict", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRequestRepository(db, zap.NewNop())
		require.NoError(t, repo.Create(ctx, newCampaign("c-1", "dealer-1")))

		err := repo.Update(ctx, workflow.KindCampaign, "c-1", port.RequestPatch{
			ExpectedStatus: workflow.StatusPendingApproval,
			Status:         statusPtr(workflow.StatusApproved),
			UpdatedAt:      later,
			Events:         []entity.AuditEvent{statusEvent("e-2", "c-1", workflow.StatusPendingApproval, workflow.StatusApproved, later)},
		})
		assert.ErrorIs(t, err, workflow.ErrConflict)

		got, err := repo.Get(ctx, workflow.KindCampaign, "c-1")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusDraft, got.Status)
		assert.Len(t, got.AuditLog, 1)
	})

	t.Run("missing request is not found", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRequestRepository(db, zap.NewNop())

		err := repo.Update(ctx, workflow.KindCampaign, "nope", port.RequestPatch{
			ExpectedStatus: workflow.StatusDraft,
			UpdatedAt:      later,
		})
		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})

	t.Run("failed event insert rolls back the status change", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRequestRepository(db, zap.NewNop())
		require.NoError(t, repo.Create(ctx, newCampaign("c-1", "dealer-1")))

		err := repo.Update(ctx, workflow.KindCampaign, "c-1", port.RequestPatch{
			ExpectedStatus: workflow.StatusDraft,
			Status:         statusPtr(workflow.StatusPendingApproval),
			UpdatedAt:      later,
			// duplicate event id violates the unique constraint
			Events: []entity.AuditEvent{statusEvent("c-1-created", "c-1", workflow.StatusDraft, workflow.StatusPendingApproval, later)},
		})
		require.Error(t, err)

		got, err := repo.Get(ctx, workflow.KindCampaign, "c-1")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusDraft, got.Status)
		assert.True(t, got.UpdatedAt.Equal(base))
	})

	t.Run("edit fields without status change", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRequestRepository(db, zap.NewNop())
		require.NoError(t, repo.Create(ctx, newCampaign("c-1", "dealer-1")))

		title := "Sonbahar kampanyası"
		err := repo.Update(ctx, workflow.KindCampaign, "c-1", port.RequestPatch{
			ExpectedStatus: workflow.StatusDraft,
			Title:          &title,
			Campaign:       &entity.CampaignTerms{Budget: decimal.NewFromInt(900)},
			UpdatedAt:      later,
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, workflow.KindCampaign, "c-1")
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
		assert.Nil(t, got.Campaign.StartDate)
		assert.True(t, got.Campaign.Budget.Equal(decimal.NewFromInt(900)))
		assert.JSONEq(t, `{"platform":"facebook"}`, string(got.Payload))
	})
}

func TestRequestRepository_JoinsOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		assert.True(t, sqlite.InTransaction(txCtx))
		require.NoError(t, repo.Create(txCtx, newCampaign("c-1", "dealer-1")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Get(ctx, workflow.KindCampaign, "c-1")
	assert.ErrorIs(t, err, workflow.ErrNotFound, "create must roll back with the outer transaction")
}

func TestRequestRepository_EventsAreImmutable(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newCampaign("c-1", "dealer-1")))

	_, err := db.ExecContext(ctx, `UPDATE request_events SET actor_name = 'x' WHERE request_id = ?`, "c-1")
	assert.ErrorContains(t, err, "immutable")

	_, err = db.ExecContext(ctx, `DELETE FROM request_events WHERE request_id = ?`, "c-1")
	assert.ErrorContains(t, err, "immutable")

	got, err := repo.Get(ctx, workflow.KindCampaign, "c-1")
	require.NoError(t, err)
	assert.Len(t, got.AuditLog, 1)
}

func TestRequestRepository_ListAndCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	agency := entity.AssigneeCreativeAgency
	seed := []*entity.Request{
		newCampaign("c-1", "dealer-1"),
		newCampaign("c-2", "dealer-1"),
		newCampaign("c-3", "dealer-2"),
		{
			ID: "cr-1", DealerID: "dealer-1", Kind: workflow.KindCreative,
			Status: workflow.StatusImagePending, AssignedTo: &agency,
			CreatedAt: base, UpdatedAt: base,
		},
		{
			ID: "cr-2", DealerID: "dealer-2", Kind: workflow.KindCreative,
			Status: workflow.StatusBrandApprovalPending,
			CreatedAt: base, UpdatedAt: base,
		},
	}
	seed[1].Status = workflow.StatusPendingApproval
	seed[1].CreatedAt = base.Add(time.Hour)
	for _, r := range seed {
		require.NoError(t, repo.Create(ctx, r))
	}

	tests := []struct {
		name   string
		filter port.RequestFilter
		want   []string
	}{
		{"all campaigns newest first", port.RequestFilter{Kind: workflow.KindCampaign}, []string{"c-2", "c-1", "c-3"}},
		{"by dealer", port.RequestFilter{Kind: workflow.KindCampaign, DealerID: "dealer-2"}, []string{"c-3"}},
		{"by status", port.RequestFilter{Kind: workflow.KindCampaign, Status: workflow.StatusPendingApproval}, []string{"c-2"}},
		{"by assignee", port.RequestFilter{Kind: workflow.KindCreative, AssignedTo: &agency}, []string{"cr-1"}},
		{"limit and offset", port.RequestFilter{Kind: workflow.KindCampaign, Limit: 1, Offset: 1}, []string{"c-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
				assert.Empty(t, r.AuditLog)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	counts, err := repo.CountByStatus(ctx, workflow.KindCampaign, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []entity.StatusCount{
		{Status: workflow.StatusDraft, Count: 2},
		{Status: workflow.StatusPendingApproval, Count: 1},
	}, counts)

	counts, err = repo.CountByStatus(ctx, workflow.KindCampaign, "dealer-2")
	require.NoError(t, err)
	assert.Equal(t, []entity.StatusCount{{Status: workflow.StatusDraft, Count: 1}}, counts)
}

func TestBudgetPlanRepository_ListActiveByDealer(t *testing.T) {
	db := newTestDB(t)
	repo := NewBudgetPlanRepository(db, zap.NewNop())
	ctx := context.Background()

	plans := []entity.BudgetPlan{
		{ID: "p-2", DealerID: "dealer-1", StartDate: *date(2025, 7, 1), EndDate: *date(2025, 9, 30), TotalBudget: decimal.NewFromInt(5000), UsedBudget: decimal.RequireFromString("1200.25"), IsActive: true},
		{ID: "p-1", DealerID: "dealer-1", StartDate: *date(2025, 1, 1), EndDate: *date(2025, 6, 30), TotalBudget: decimal.NewFromInt(3000), IsActive: true},
		{ID: "p-old", DealerID: "dealer-1", StartDate: *date(2024, 1, 1), EndDate: *date(2024, 12, 31), TotalBudget: decimal.NewFromInt(100), IsActive: false},
		{ID: "p-other", DealerID: "dealer-2", StartDate: *date(2025, 1, 1), EndDate: *date(2025, 12, 31), TotalBudget: decimal.NewFromInt(100), IsActive: true},
	}
	for i := range plans {
		require.NoError(t, repo.Create(ctx, &plans[i]))
	}

	got, err := repo.ListActiveByDealer(ctx, "dealer-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-1", got[0].ID)
	assert.Equal(t, "p-2", got[1].ID)
	assert.True(t, got[1].UsedBudget.Equal(decimal.RequireFromString("1200.25")))
	assert.True(t, got[1].Available().Equal(decimal.RequireFromString("3799.75")))
	assert.True(t, got[1].EndDate.Equal(*date(2025, 9, 30)))

	none, err := repo.ListActiveByDealer(ctx, "dealer-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBudgetPlanRepository_RejectsInvertedRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewBudgetPlanRepository(db, zap.NewNop())

	err := repo.Create(context.Background(), &entity.BudgetPlan{
		ID: "p-bad", DealerID: "dealer-1",
		StartDate: *date(2025, 7, 1), EndDate: *date(2025, 6, 1),
		TotalBudget: decimal.NewFromInt(1), IsActive: true,
	})
	assert.Error(t, err)
}
