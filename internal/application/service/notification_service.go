package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/for4for/dealer-workflow/internal/application/dispatcher"
	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/event"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// NotificationService turns committed request events into messages for the party
// that has to act next. Delivery failures are logged and never reach the workflow.
type NotificationService interface {
	// Register subscribes the service to the events it reacts to
	Register(d dispatcher.Dispatcher)

	// HandleEvent composes and sends the notification for evt, if any
	HandleEvent(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	notifier port.Notifier
	baseURL  string
	logger   Logger
}

// NewNotificationService creates a new NotificationService.
// baseURL is the portal address used to build request links; it may be empty.
func NewNotificationService(notifier port.Notifier, baseURL string, logger Logger) NotificationService {
	return &notificationServiceImpl{
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeRequestCreated,
		event.TypeRequestSubmitted,
		event.TypeStatusChanged,
		event.TypeRequestRouted,
		event.TypeNoteAdded,
	} {
		d.Subscribe(t, "notification", s.HandleEvent)
	}
}

func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	n, ok := s.compose(evt)
	if !ok {
		return nil
	}

	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Error("Failed to send notification",
			"error", err,
			"request_id", evt.RequestID,
			"event_type", evt.Type,
			"audience", n.Audience,
		)
		return fmt.Errorf("send notification: %w", err)
	}

	s.logger.Info("Notification sent",
		"request_id", evt.RequestID,
		"event_type", evt.Type,
		"audience", n.Audience,
	)
	return nil
}

var kindLabels = map[workflow.Kind]string{
	workflow.KindCreative:  "Kreatif talebi",
	workflow.KindIncentive: "Teşvik talebi",
	workflow.KindCampaign:  "Kampanya talebi",
}

var newRequestTitles = map[workflow.Kind]string{
	workflow.KindCreative:  "Yeni kreatif talebi",
	workflow.KindIncentive: "Yeni teşvik talebi",
	workflow.KindCampaign:  "Yeni kampanya talebi",
}

// dealerFacing are the decisions a dealer hears about
var dealerFacing = map[workflow.Status]bool{
	workflow.StatusEvaluation: true,
	workflow.StatusApproved:   true,
	workflow.StatusRejected:   true,
	workflow.StatusLive:       true,
	workflow.StatusCompleted:  true,
}

func (s *notificationServiceImpl) compose(evt *event.Event) (port.Notification, bool) {
	to := evt.Status(event.KeyToStatus)
	n := port.Notification{
		DealerID:  evt.DealerID,
		RequestID: evt.RequestID,
		Kind:      evt.Kind,
		Status:    to,
		Link:      s.link(evt),
	}
	subject := kindLabels[evt.Kind]
	if title := evt.GetPayloadString(event.KeyTitle); title != "" {
		subject = fmt.Sprintf("%s \"%s\"", subject, title)
	}
	note := evt.GetPayloadString(event.KeyNote)

	switch evt.Type {
	case event.TypeRequestCreated:
		// a direct submission is announced by its submitted event
		if to != workflow.StatusDraft {
			return n, false
		}
		n.Audience = port.AudienceStaff
		n.Title = newRequestTitles[evt.Kind]
		n.Body = fmt.Sprintf("%s taslak olarak oluşturuldu.", subject)

	case event.TypeRequestSubmitted:
		n.Audience = audienceFor(evt, port.AudienceStaff)
		n.Title = newRequestTitles[evt.Kind]
		n.Body = fmt.Sprintf("%s onayınıza gönderildi.", subject)

	case event.TypeRequestRouted:
		n.Audience = audienceFor(evt, port.AudienceStaff)
		n.Title = timeline.StatusTitle(to)
		n.Body = fmt.Sprintf("%s: %s", subject, timeline.WaitingLabel(evt.Kind, to))

	case event.TypeStatusChanged:
		if !dealerFacing[to] {
			return n, false
		}
		n.Audience = port.AudienceDealer
		n.Title = timeline.StatusTitle(to)
		n.Body = fmt.Sprintf("%s durumu: %s", subject, timeline.StatusTitle(to))

	case event.TypeNoteAdded:
		if entity.Role(evt.GetPayloadString(event.KeyActorRole)).IsBrandStaff() {
			n.Audience = port.AudienceDealer
		} else {
			n.Audience = port.AudienceStaff
		}
		n.Title = "Yeni not"
		n.Body = subject

	default:
		return n, false
	}

	if note != "" {
		n.Body += "\n" + note
	}
	return n, true
}

// audienceFor picks who acts next on a routed or submitted request
func audienceFor(evt *event.Event, fallback port.Audience) port.Audience {
	switch entity.Assignee(evt.GetPayloadString(event.KeyAssignee)) {
	case entity.AssigneeCreativeAgency:
		return port.AudienceAgency
	case entity.AssigneeDealer:
		return port.AudienceDealer
	default:
		return fallback
	}
}

func (s *notificationServiceImpl) link(evt *event.Event) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/requests/%s/%s", s.baseURL, evt.Kind, evt.RequestID)
}
