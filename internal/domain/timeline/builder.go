package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Builder reconstructs timelines. It holds no per-request state and is safe for concurrent use.
type Builder struct {
	loc    *time.Location
	legacy *legacyParser
}

// Option configures the builder
type Option func(*Builder)

// WithLocation sets the zone legacy note dates are written in
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// NewBuilder creates a timeline builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{loc: time.UTC}
	for _, opt := range opts {
		opt(b)
	}
	b.legacy = newLegacyParser(b.loc)
	return b
}

// Build returns the display timeline of r. It never mutates r and returns the same
// entries for the same input.
//
// The structured audit log is used when present; otherwise the legacy notes field is
// parsed. A created entry always leads, and a waiting entry trails while the request
// can still move.
func (b *Builder) Build(r *entity.Request) []Entry {
	var entries []Entry

	switch {
	case len(r.AuditLog) > 0:
		entries = b.fromAuditLog(r)
	case strings.TrimSpace(r.AdminNotes) != "":
		entries = b.legacy.parse(r.AdminNotes, r.CreatedAt, r.UpdatedAt)
	}

	if !startsWithCreated(entries) {
		entries = append([]Entry{{Title: titleCreated, OccurredAt: r.CreatedAt, Type: TypeCreated}}, entries...)
	}

	if table, err := workflow.TableFor(r.Kind); err == nil && table.Knows(r.Status) && !table.IsTerminal(r.Status) {
		entries = append(entries, Entry{
			Title:      WaitingLabel(r.Kind, r.Status),
			OccurredAt: r.UpdatedAt,
			Type:       TypeWaiting,
		})
	}

	return entries
}

func (b *Builder) fromAuditLog(r *entity.Request) []Entry {
	events := make([]entity.AuditEvent, len(r.AuditLog))
	copy(events, r.AuditLog)
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.Before(events[j].OccurredAt)
		}
		return events[i].Seq < events[j].Seq
	})

	entries := make([]Entry, 0, len(events))
	for _, e := range events {
		entries = append(entries, Entry{
			Title:      titleOf(e),
			OccurredAt: e.OccurredAt,
			Note:       e.Details.Note,
			Type:       TypeOf(e),
			ActorName:  e.ActorName,
		})
	}
	return entries
}

// TypeOf maps an audit event to its display type. Unknown actions render as notes.
func TypeOf(e entity.AuditEvent) Type {
	if e.Action == entity.ActionStatusChange {
		if t, ok := statusChangeTypes[e.Details.NewStatus]; ok {
			return t
		}
		return TypeNote
	}
	if t, ok := actionTypes[e.Action]; ok {
		return t
	}
	return TypeNote
}

func titleOf(e entity.AuditEvent) string {
	switch e.Action {
	case entity.ActionStatusChange:
		return StatusTitle(e.Details.NewStatus)
	case entity.ActionSent:
		if e.Details.NewAssignee != nil {
			if t, ok := assigneeTitles[*e.Details.NewAssignee]; ok {
				return t
			}
		}
		if t, ok := statusTitles[e.Details.NewStatus]; ok {
			return t
		}
		return titleSentOther
	}
	if t, ok := actionTitles[e.Action]; ok {
		return t
	}
	return string(e.Action)
}

func startsWithCreated(entries []Entry) bool {
	return len(entries) > 0 && entries[0].Type == TypeCreated
}
