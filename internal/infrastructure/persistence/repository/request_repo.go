package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
	"github.com/for4for/dealer-workflow/internal/infrastructure/persistence/sqlite"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, kind, dealer_id, status, assigned_to, title, payload,
	campaign_start, campaign_end, campaign_budget,
	admin_notes, delivered_files, created_at, updated_at`

// Create inserts the request row and its initial audit events in one transaction
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		start, end, amount := campaignColumns(req.Campaign)

		query := `INSERT INTO requests (` + requestColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := r.db.Executor(txCtx).ExecContext(txCtx, query,
			req.ID,
			string(req.Kind),
			req.DealerID,
			string(req.Status),
			assigneeColumn(req.AssignedTo),
			req.Title,
			payloadColumn(req.Payload),
			start,
			end,
			amount,
			req.AdminNotes,
			req.DeliveredFiles,
			formatTime(req.CreatedAt),
			formatTime(req.UpdatedAt),
		)
		if err != nil {
			r.logger.Error("Failed to create request", zap.String("request_id", req.ID), zap.Error(err))
			return fmt.Errorf("failed to create request: %w", err)
		}

		return r.appendEvents(txCtx, req.ID, req.AuditLog)
	})
}

// Get retrieves a request and its audit log
func (r *RequestRepository) Get(ctx context.Context, kind workflow.Kind, id string) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ? AND kind = ?`

	req, err := scanRequest(r.db.Executor(ctx).QueryRowContext(ctx, query, id, string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s request %s", workflow.ErrNotFound, kind, id)
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("request_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	events, err := r.events(ctx, id)
	if err != nil {
		return nil, err
	}
	req.AuditLog = events
	return req, nil
}

// Update applies patch if the stored status still matches patch.ExpectedStatus
func (r *RequestRepository) Update(ctx context.Context, kind workflow.Kind, id string, patch port.RequestPatch) error {
	set := []string{"updated_at = ?"}
	args := []interface{}{formatTime(patch.UpdatedAt)}

	if patch.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.SetAssignee {
		set = append(set, "assigned_to = ?")
		args = append(args, assigneeColumn(patch.AssignedTo))
	}
	if patch.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Payload != nil {
		set = append(set, "payload = ?")
		args = append(args, payloadColumn(patch.Payload))
	}
	if patch.Campaign != nil {
		start, end, amount := campaignColumns(patch.Campaign)
		set = append(set, "campaign_start = ?", "campaign_end = ?", "campaign_budget = ?")
		args = append(args, start, end, amount)
	}

	query := fmt.Sprintf("UPDATE requests SET %s WHERE id = ? AND kind = ? AND status = ?", strings.Join(set, ", "))
	args = append(args, id, string(kind), string(patch.ExpectedStatus))

	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)

		result, err := exec.ExecContext(txCtx, query, args...)
		if err != nil {
			r.logger.Error("Failed to update request", zap.String("request_id", id), zap.Error(err))
			return fmt.Errorf("failed to update request: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return r.missOrConflict(txCtx, kind, id, patch.ExpectedStatus)
		}

		return r.appendEvents(txCtx, id, patch.Events)
	})
}

func (r *RequestRepository) missOrConflict(ctx context.Context, kind workflow.Kind, id string, expected workflow.Status) error {
	var current string
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT status FROM requests WHERE id = ? AND kind = ?`, id, string(kind),
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s request %s", workflow.ErrNotFound, kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to re-read request status: %w", err)
	}

	r.logger.Info("Request changed concurrently",
		zap.String("request_id", id),
		zap.String("expected_status", string(expected)),
		zap.String("current_status", current),
	)
	return fmt.Errorf("%w: expected status %s, found %s", workflow.ErrConflict, expected, current)
}

// List returns requests without their audit logs, newest first
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error) {
	where := []string{"kind = ?"}
	args := []interface{}{string(filter.Kind)}

	if filter.DealerID != "" {
		where = append(where, "dealer_id = ?")
		args = append(args, filter.DealerID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AssignedTo != nil {
		where = append(where, "assigned_to = ?")
		args = append(args, string(*filter.AssignedTo))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + requestColumns + ` FROM requests WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// CountByStatus groups requests of a kind by status
func (r *RequestRepository) CountByStatus(ctx context.Context, kind workflow.Kind, dealerID string) ([]entity.StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM requests WHERE kind = ?`
	args := []interface{}{string(kind)}
	if dealerID != "" {
		query += ` AND dealer_id = ?`
		args = append(args, dealerID)
	}
	query += ` GROUP BY status ORDER BY status`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to count requests", zap.Error(err))
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()

	var counts []entity.StatusCount
	for rows.Next() {
		var c entity.StatusCount
		var status string
		if err := rows.Scan(&status, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		c.Status = workflow.Status(status)
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func (r *RequestRepository) appendEvents(ctx context.Context, requestID string, events []entity.AuditEvent) error {
	query := `
		INSERT INTO request_events (id, request_id, action, actor_name, details, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	for _, e := range events {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to encode event details: %w", err)
		}

		_, err = r.db.Executor(ctx).ExecContext(ctx, query,
			e.ID,
			requestID,
			string(e.Action),
			e.ActorName,
			string(details),
			formatTime(e.OccurredAt),
		)
		if err != nil {
			r.logger.Error("Failed to append request event",
				zap.String("request_id", requestID),
				zap.String("action", string(e.Action)),
				zap.Error(err))
			return fmt.Errorf("failed to append event: %w", err)
		}
	}

	return nil
}

func (r *RequestRepository) events(ctx context.Context, requestID string) ([]entity.AuditEvent, error) {
	query := `
		SELECT seq, id, request_id, action, actor_name, details, occurred_at
		FROM request_events
		WHERE request_id = ?
		ORDER BY seq
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to load request events", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	events := []entity.AuditEvent{}
	for rows.Next() {
		var e entity.AuditEvent
		var action, details, occurredAt string
		if err := rows.Scan(&e.Seq, &e.ID, &e.RequestID, &action, &e.ActorName, &details, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Action = entity.Action(action)
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("failed to decode event %s details: %w", e.ID, err)
		}
		if e.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(s scanner) (*entity.Request, error) {
	var (
		req                        entity.Request
		kind, status               string
		assignedTo, payload        sql.NullString
		campaignStart, campaignEnd sql.NullString
		campaignBudget             decimal.NullDecimal
		createdAt, updatedAt       string
	)

	err := s.Scan(
		&req.ID,
		&kind,
		&req.DealerID,
		&status,
		&assignedTo,
		&req.Title,
		&payload,
		&campaignStart,
		&campaignEnd,
		&campaignBudget,
		&req.AdminNotes,
		&req.DeliveredFiles,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Kind = workflow.Kind(kind)
	req.Status = workflow.Status(status)
	if assignedTo.Valid && assignedTo.String != "" {
		a := entity.Assignee(assignedTo.String)
		req.AssignedTo = &a
	}
	if payload.Valid {
		req.Payload = json.RawMessage(payload.String)
	}

	if req.Kind == workflow.KindCampaign {
		terms := &entity.CampaignTerms{}
		if terms.StartDate, err = parseDate(campaignStart); err != nil {
			return nil, err
		}
		if terms.EndDate, err = parseDate(campaignEnd); err != nil {
			return nil, err
		}
		if campaignBudget.Valid {
			terms.Budget = campaignBudget.Decimal
		}
		req.Campaign = terms
	}

	if req.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if req.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

func assigneeColumn(a *entity.Assignee) interface{} {
	if a == nil {
		return nil
	}
	return string(*a)
}

func payloadColumn(p json.RawMessage) interface{} {
	if p == nil {
		return nil
	}
	return string(p)
}

func campaignColumns(terms *entity.CampaignTerms) (start, end, amount interface{}) {
	if terms == nil {
		return nil, nil, nil
	}
	if terms.StartDate != nil {
		start = terms.StartDate.Format(time.DateOnly)
	}
	if terms.EndDate != nil {
		end = terms.EndDate.Format(time.DateOnly)
	}
	return start, end, terms.Budget.String()
}

// Times are stored as UTC RFC3339 with nanoseconds so text order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", s.String, err)
	}
	return &t, nil
}
