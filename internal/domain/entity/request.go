package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Request is a dealer-submitted item moving through its kind's approval pipeline.
// ID, DealerID and Kind never change after creation.
type Request struct {
	ID             string          `json:"id"`
	DealerID       string          `json:"dealer_id"`
	Kind           workflow.Kind   `json:"kind"`
	Status         workflow.Status `json:"status"`
	AssignedTo     *Assignee       `json:"assigned_to,omitempty"`
	Title          string          `json:"title"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Campaign       *CampaignTerms  `json:"campaign,omitempty"`
	AdminNotes     string          `json:"admin_notes,omitempty"`
	DeliveredFiles int             `json:"delivered_files"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	AuditLog       []AuditEvent    `json:"audit_log"`
}

// CampaignTerms are the budget-relevant fields of a campaign request
type CampaignTerms struct {
	StartDate *time.Time      `json:"start_date,omitempty"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	Budget    decimal.Decimal `json:"budget"`
}

// IsAssignedTo reports whether the request is currently owned by the given party
func (r *Request) IsAssignedTo(a Assignee) bool {
	return r.AssignedTo != nil && *r.AssignedTo == a
}

// OwnedBy reports whether the request belongs to the dealer
func (r *Request) OwnedBy(dealerID string) bool {
	return dealerID != "" && r.DealerID == dealerID
}

// Clone returns a deep copy so callers can mutate without touching the original
func (r *Request) Clone() *Request {
	c := *r
	if r.AssignedTo != nil {
		a := *r.AssignedTo
		c.AssignedTo = &a
	}
	if r.Payload != nil {
		c.Payload = append(json.RawMessage{}, r.Payload...)
	}
	if r.Campaign != nil {
		terms := *r.Campaign
		c.Campaign = &terms
	}
	c.AuditLog = make([]AuditEvent, len(r.AuditLog))
	for i, e := range r.AuditLog {
		c.AuditLog[i] = e
		if e.Details.NewAssignee != nil {
			a := *e.Details.NewAssignee
			c.AuditLog[i].Details.NewAssignee = &a
		}
	}
	return &c
}

// StatusCount is the number of requests of one kind in one status
type StatusCount struct {
	Status workflow.Status `json:"status"`
	Count  int             `json:"count"`
}
