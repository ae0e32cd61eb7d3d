package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Payload keys used by the workflow
const (
	KeyFromStatus = "from_status"
	KeyToStatus   = "to_status"
	KeyAssignee   = "assignee"
	KeyActorName  = "actor_name"
	KeyActorRole  = "actor_role"
	KeyNote       = "note"
	KeyTitle      = "title"
)

// Event is published after a request change has been committed
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RequestID     string                 `json:"request_id"`
	Kind          workflow.Kind          `json:"kind"`
	DealerID      string                 `json:"dealer_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with generated ID and timestamp
func NewEvent(eventType Type, kind workflow.Kind, requestID, dealerID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, kind, requestID, dealerID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, kind workflow.Kind, requestID, dealerID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RequestID:     requestID,
		Kind:          kind,
		DealerID:      dealerID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of the event with key set. The receiver is not modified.
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	out := *e
	out.Payload = payload
	return &out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}

// Status reads a status stored under key
func (e *Event) Status(key string) workflow.Status {
	return workflow.Status(e.GetPayloadString(key))
}
