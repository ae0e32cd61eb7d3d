package port

import (
	"context"
	"io"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Audience is who a notification is addressed to
type Audience string

const (
	AudienceStaff  Audience = "staff"
	AudienceAgency Audience = "agency"
	AudienceDealer Audience = "dealer"
)

// Notification is a fire-and-forget message about a request
type Notification struct {
	Audience  Audience
	DealerID  string
	RequestID string
	Kind      workflow.Kind
	Status    workflow.Status
	Title     string
	Body      string
	Link      string
}

// Notifier delivers notifications. Failures never affect the workflow.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// TimelineExporter renders a timeline into a downloadable document
type TimelineExporter interface {
	Export(w io.Writer, r *entity.Request, entries []timeline.Entry) error
	ContentType() string
}
