// Package timeline turns a request's history into the ordered list of display events.
package timeline

import "time"

// Type classifies a timeline entry for rendering
type Type string

const (
	TypeCreated    Type = "created"
	TypeSent       Type = "sent"
	TypeApproved   Type = "approved"
	TypeRejected   Type = "rejected"
	TypeNote       Type = "note"
	TypeWaiting    Type = "waiting"
	TypeLive       Type = "live"
	TypeCompleted  Type = "completed"
	TypeFBAttempt  Type = "fb_attempt"
	TypeFBSuccess  Type = "fb_success"
	TypeFBFailed   Type = "fb_failed"
	TypeFileUpload Type = "file_upload"
	TypeFileDelete Type = "file_delete"
	TypeUpdated    Type = "updated"
)

// Entry is one row of a request's timeline. DateText keeps the original date of a
// legacy note line when it could not be parsed.
type Entry struct {
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
	DateText   string    `json:"date_text,omitempty"`
	Note       string    `json:"note,omitempty"`
	Type       Type      `json:"type"`
	ActorName  string    `json:"actor_name,omitempty"`
}
