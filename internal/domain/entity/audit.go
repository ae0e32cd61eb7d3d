package entity

import (
	"time"

	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Action tags an audit event. The set is open; unknown actions render as notes.
type Action string

const (
	ActionCreated       Action = "created"
	ActionStatusChange  Action = "status_change"
	ActionSent          Action = "sent"
	ActionNote          Action = "note"
	ActionUpdated       Action = "updated"
	ActionFBPushAttempt Action = "fb_push_attempt"
	ActionFBPushSuccess Action = "fb_push_success"
	ActionFBPushFailed  Action = "fb_push_failed"
	ActionFBStatusCheck Action = "fb_status_check"
	ActionFileUpload    Action = "file_upload"
	ActionFileDelete    Action = "file_delete"
)

// EventDetails holds the optional payload of an audit event
type EventDetails struct {
	PreviousStatus workflow.Status `json:"previous_status,omitempty"`
	NewStatus      workflow.Status `json:"new_status,omitempty"`
	NewAssignee    *Assignee       `json:"new_assignee,omitempty"`
	Note           string          `json:"note,omitempty"`
}

// AuditEvent is one immutable workflow occurrence.
// Events are ordered by OccurredAt, ties broken by Seq.
type AuditEvent struct {
	ID         string       `json:"id"`
	RequestID  string       `json:"request_id"`
	Seq        int64        `json:"seq"`
	Action     Action       `json:"action"`
	ActorName  string       `json:"actor_name,omitempty"`
	Details    EventDetails `json:"details"`
	OccurredAt time.Time    `json:"occurred_at"`
}
