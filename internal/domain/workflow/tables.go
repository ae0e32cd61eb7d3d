package workflow

import (
	"context"
	"fmt"
	"strings"
)

var (
	creativeTable  = buildCreativeTable()
	incentiveTable = buildIncentiveTable()
	campaignTable  = buildCampaignTable()
)

// TableFor returns the transition table of a kind
func TableFor(kind Kind) (*Table, error) {
	switch kind {
	case KindCreative:
		return creativeTable, nil
	case KindIncentive:
		return incentiveTable, nil
	case KindCampaign:
		return campaignTable, nil
	default:
		return nil, fmt.Errorf("%w: unknown request kind %q", ErrInvalidInput, kind)
	}
}

// SubmitTarget is the status a dealer submission moves a draft into
func SubmitTarget(kind Kind) Status {
	if kind == KindCreative {
		return StatusBrandApprovalPending
	}
	return StatusPendingApproval
}

func requireNote(_ context.Context, s Subject) error {
	if strings.TrimSpace(s.Note) == "" {
		return ErrMissingRequiredNote
	}
	return nil
}

func requireDeliverables(_ context.Context, s Subject) error {
	if s.DeliveredFiles <= 0 {
		return ErrMissingDeliverables
	}
	return nil
}

func buildCreativeTable() *Table {
	b := NewBuilder(KindCreative)

	b.Configure(StatusDraft).
		Permit(StatusImagePending).
		Permit(StatusDealerApprovalPending).
		Permit(StatusBrandApprovalPending)

	// Nothing reaches the dealer before the agency has delivered
	b.Configure(StatusImagePending).
		PermitIf(StatusDealerApprovalPending, requireDeliverables).
		Permit(StatusBrandApprovalPending).
		Permit(StatusCompleted)

	b.Configure(StatusDealerApprovalPending).
		Permit(StatusImagePending).
		Permit(StatusBrandApprovalPending).
		Permit(StatusCompleted)

	b.Configure(StatusBrandApprovalPending).
		Permit(StatusImagePending).
		Permit(StatusDealerApprovalPending).
		Permit(StatusCompleted)

	return withDecisions(b.Terminal(StatusApproved, StatusRejected, StatusCompleted)).Build()
}

func buildIncentiveTable() *Table {
	b := NewBuilder(KindIncentive)

	b.Configure(StatusDraft).
		Permit(StatusPendingApproval)

	b.Configure(StatusPendingApproval).
		Permit(StatusEvaluation)

	b.Configure(StatusEvaluation).
		Permit(StatusCompleted)

	return withDecisions(b.Terminal(StatusApproved, StatusRejected, StatusCompleted)).Build()
}

func buildCampaignTable() *Table {
	b := NewBuilder(KindCampaign)

	b.Configure(StatusDraft).
		Permit(StatusPendingApproval)

	// approved stays open for publishing
	b.Configure(StatusApproved).
		Permit(StatusLive)

	b.Configure(StatusLive).
		Permit(StatusCompleted)

	return withDecisions(b.Terminal(StatusCompleted, StatusRejected)).Build()
}

// withDecisions adds approve and reject as direct edges from every open status.
// A rejection always needs a reason.
func withDecisions(b TableBuilder) TableBuilder {
	return b.
		PermitGlobal(StatusApproved, nil).
		PermitGlobal(StatusRejected, requireNote)
}
