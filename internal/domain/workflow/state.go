package workflow

import "fmt"

// Status represents a request status in the approval lifecycle
type Status string

const (
	StatusDraft                 Status = "draft"
	StatusImagePending          Status = "image_pending"
	StatusDealerApprovalPending Status = "dealer_approval_pending"
	StatusBrandApprovalPending  Status = "brand_approval_pending"
	StatusPendingApproval       Status = "pending_approval"
	StatusEvaluation            Status = "evaluation"
	StatusApproved              Status = "approved"
	StatusLive                  Status = "live"
	StatusRejected              Status = "rejected"
	StatusCompleted             Status = "completed"
)

var validStatuses = map[Status]bool{
	StatusDraft:                 true,
	StatusImagePending:          true,
	StatusDealerApprovalPending: true,
	StatusBrandApprovalPending:  true,
	StatusPendingApproval:       true,
	StatusEvaluation:            true,
	StatusApproved:              true,
	StatusLive:                  true,
	StatusRejected:              true,
	StatusCompleted:             true,
}

// legacyStatuses maps the Turkish wire values still found in imported records.
// onay_bekliyor is kind dependent and resolved in ParseStatus.
var legacyStatuses = map[string]Status{
	"taslak":              StatusDraft,
	"gorsel_bekliyor":     StatusImagePending,
	"bayi_onayi_bekliyor": StatusDealerApprovalPending,
	"degerlendirme":       StatusEvaluation,
	"onaylandi":           StatusApproved,
	"reddedildi":          StatusRejected,
	"yayinda":             StatusLive,
	"tamamlandi":          StatusCompleted,
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known status of any kind
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// ParseStatus parses a wire value, accepting legacy Turkish values as well.
func ParseStatus(kind Kind, raw string) (Status, error) {
	if s := Status(raw); s.IsValid() {
		return s, nil
	}
	if raw == "onay_bekliyor" {
		if kind == KindCreative {
			return StatusBrandApprovalPending, nil
		}
		return StatusPendingApproval, nil
	}
	if s, ok := legacyStatuses[raw]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
}

// Kind identifies which pipeline a request follows
type Kind string

const (
	KindCreative  Kind = "creative"
	KindIncentive Kind = "incentive"
	KindCampaign  Kind = "campaign"
)

// Kinds lists every request kind
var Kinds = []Kind{KindCreative, KindIncentive, KindCampaign}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindCreative, KindIncentive, KindCampaign:
		return true
	default:
		return false
	}
}

// ParseKind parses a kind wire value
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: unknown request kind %q", ErrInvalidInput, raw)
	}
	return k, nil
}
