package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category classifies a notification; it is carried into audit records only
type Category string

const (
	CategoryAnnouncement Category = "announcement"
	CategoryNews         Category = "news"
	CategoryEvent        Category = "event"
	CategoryExamResult   Category = "exam_result"
	CategoryGeneral      Category = "general"
)

// IsValid reports whether c is one of the known categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryAnnouncement, CategoryNews, CategoryEvent, CategoryExamResult, CategoryGeneral:
		return true
	}
	return false
}

// Channel is the kind of provider a batch was delivered through
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// OutcomeState is the result of one delivery attempt
type OutcomeState string

const (
	OutcomeSent   OutcomeState = "sent"
	OutcomeFailed OutcomeState = "failed"
)

// OverallState is the result of a whole batch
type OverallState string

const (
	OverallSent    OverallState = "sent"
	OverallPartial OverallState = "partial"
	OverallFailed  OverallState = "failed"
)

var (
	ErrInvalidCategory = errors.New("invalid notification category")
	ErrEmptyBody       = errors.New("notification body must not be empty")
)

// DispatchRequest is the input of one dispatch call. Build it with NewDispatchRequest.
type DispatchRequest struct {
	recipients []string
	Subject    string
	Body       string
	Category   Category
}

// NewDispatchRequest copies recipients so later changes to the caller's slice are not observed.
// An empty category defaults to general.
func NewDispatchRequest(recipients []string, subject, body string, category Category) DispatchRequest {
	copied := make([]string, len(recipients))
	copy(copied, recipients)
	if category == "" {
		category = CategoryGeneral
	}
	return DispatchRequest{
		recipients: copied,
		Subject:    subject,
		Body:       body,
		Category:   category,
	}
}

// Recipients returns a copy of the recipient list in input order
func (r DispatchRequest) Recipients() []string {
	out := make([]string, len(r.recipients))
	copy(out, r.recipients)
	return out
}

// Len is the number of recipients, duplicates included
func (r DispatchRequest) Len() int {
	return len(r.recipients)
}

// Validate checks the request invariants that do not depend on the channel
func (r DispatchRequest) Validate() error {
	if !r.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
	}
	if strings.TrimSpace(r.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}

// DeliveryOutcome is the recorded result of one attempt. It is never mutated after creation.
type DeliveryOutcome struct {
	Recipient   string
	State       OutcomeState
	ErrorDetail string
	AttemptedAt time.Time
}

// BatchSummary is derived from the outcomes of a batch
type BatchSummary struct {
	Total        int
	Succeeded    int
	Failed       int
	OverallState OverallState
}

// Summarize counts outcomes and derives the overall state
func Summarize(outcomes []DeliveryOutcome) BatchSummary {
	summary := BatchSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.State == OutcomeSent {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	switch {
	case summary.Failed == 0:
		summary.OverallState = OverallSent
	case summary.Succeeded == 0:
		summary.OverallState = OverallFailed
	default:
		summary.OverallState = OverallPartial
	}
	return summary
}

// AuditKind tells per-recipient records apart from the batch record
type AuditKind string

const (
	AuditKindDelivery AuditKind = "delivery"
	AuditKindBatch    AuditKind = "batch"
)

// AuditRecord is what gets written to the audit sink
type AuditRecord struct {
	BatchID     string
	Kind        AuditKind
	Channel     Channel
	Provider    string
	Category    Category
	Subject     string
	Recipient   string
	Status      string
	ErrorDetail string
	Total       int
	Succeeded   int
	Failed      int
	RecordedAt  time.Time
}

// AuditStatus is the result of writing one audit record
type AuditStatus string

const (
	AuditLogged    AuditStatus = "logged"
	AuditLogFailed AuditStatus = "log_failed"
)

// AuditResult reports a single audit write. A failed write never changes the dispatch result.
type AuditResult struct {
	Kind      AuditKind
	Recipient string
	Status    AuditStatus
	Reason    string
}

// BatchResult is returned by a dispatch call that ran
type BatchResult struct {
	BatchID  string
	Channel  Channel
	Provider string
	Summary  BatchSummary
	Outcomes []DeliveryOutcome
	Audit    []AuditResult
}

// AuditDegraded reports whether any audit write failed
func (b *BatchResult) AuditDegraded() bool {
	for _, a := range b.Audit {
		if a.Status == AuditLogFailed {
			return true
		}
	}
	return false
}

// AuditSink receives audit records. It is append-only from the dispatcher's point of view.
type AuditSink interface {
	Write(ctx context.Context, record AuditRecord) error
}

// AuditReader is implemented by sinks that can return the trail of a batch
type AuditReader interface {
	ListByBatch(ctx context.Context, batchID string) ([]AuditRecord, error)
}
