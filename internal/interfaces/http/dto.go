package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// CampaignTermsRequest carries campaign dates as YYYY-MM-DD
type CampaignTermsRequest struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Budget    decimal.Decimal `json:"budget"`
}

// SubmitRequest is the body of POST /api/requests
type SubmitRequest struct {
	Kind        string                `json:"kind" binding:"required"`
	DealerID    string                `json:"dealer_id"`
	Title       string                `json:"title"`
	Payload     json.RawMessage       `json:"payload"`
	Campaign    *CampaignTermsRequest `json:"campaign"`
	Note        string                `json:"note"`
	SaveAsDraft bool                  `json:"save_as_draft"`
}

// EditRequest is the body of PUT /api/requests/:kind/:id
type EditRequest struct {
	Title    *string               `json:"title"`
	Payload  json.RawMessage       `json:"payload"`
	Campaign *CampaignTermsRequest `json:"campaign"`
}

// TransitionRequest names the target either directly or by action
type TransitionRequest struct {
	To     string `json:"to"`
	Action string `json:"action"`
	Note   string `json:"note"`
}

// RouteRequest hands a creative to another party
type RouteRequest struct {
	Assignee string `json:"assignee" binding:"required"`
	Note     string `json:"note"`
}

// CommentRequest is the body of POST /api/requests/:kind/:id/comments
type CommentRequest struct {
	Note string `json:"note"`
}

// BudgetCheckRequest is the body of POST /api/budget/check
type BudgetCheckRequest struct {
	DealerID  string          `json:"dealer_id"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Amount    decimal.Decimal `json:"amount"`
}

// ListQuery holds the query parameters of GET /api/requests
type ListQuery struct {
	Kind       string `form:"kind" binding:"required"`
	Status     string `form:"status"`
	DealerID   string `form:"dealer_id"`
	AssignedTo string `form:"assigned_to"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// ListResponse wraps a page of requests
type ListResponse struct {
	Items []*entity.Request `json:"items"`
	Count int               `json:"count"`
}

// StatsResponse summarizes requests of a kind per status
type StatsResponse struct {
	Kind   domainwf.Kind        `json:"kind"`
	Counts []entity.StatusCount `json:"counts"`
	Total  int                  `json:"total"`
}

// TimelineResponse is the timeline of one request
type TimelineResponse struct {
	RequestID    string           `json:"request_id"`
	Status       domainwf.Status  `json:"status"`
	WaitingLabel string           `json:"waiting_label"`
	Entries      []timeline.Entry `json:"entries"`
}

func (r *CampaignTermsRequest) toTerms() (*entity.CampaignTerms, error) {
	if r == nil {
		return nil, nil
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	return &entity.CampaignTerms{StartDate: start, EndDate: end, Budget: r.Budget}, nil
}

func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domainwf.ErrInvalidInput, field)
	}
	return &t, nil
}

// payloadOf treats an absent or null payload as no payload
func payloadOf(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}
