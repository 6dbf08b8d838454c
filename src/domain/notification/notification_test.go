package notification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	sent := DeliveryOutcome{State: OutcomeSent}
	failed := DeliveryOutcome{State: OutcomeFailed, ErrorDetail: "boom"}

	tests := []struct {
		name     string
		outcomes []DeliveryOutcome
		want     BatchSummary
	}{
		{"empty batch", nil, BatchSummary{OverallState: OverallSent}},
		{"all sent", []DeliveryOutcome{sent, sent}, BatchSummary{Total: 2, Succeeded: 2, OverallState: OverallSent}},
		{"all failed", []DeliveryOutcome{failed}, BatchSummary{Total: 1, Failed: 1, OverallState: OverallFailed}},
		{"mixed", []DeliveryOutcome{sent, failed, sent}, BatchSummary{Total: 3, Succeeded: 2, Failed: 1, OverallState: OverallPartial}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.outcomes)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.Succeeded+got.Failed)
		})
	}
}

func TestNewDispatchRequest(t *testing.T) {
	recipients := []string{"a@x.com", "a@x.com"}
	req := NewDispatchRequest(recipients, "Hi", "Body", "")

	assert.Equal(t, CategoryGeneral, req.Category)
	assert.Equal(t, 2, req.Len())

	recipients[1] = "b@x.com"
	got := req.Recipients()
	assert.Equal(t, []string{"a@x.com", "a@x.com"}, got)

	got[0] = "mutated"
	assert.Equal(t, "a@x.com", req.Recipients()[0])
}

func TestDispatchRequest_Validate(t *testing.T) {
	assert.NoError(t, NewDispatchRequest(nil, "", "Body", CategoryAnnouncement).Validate())

	err := NewDispatchRequest(nil, "", "Body", "memo").Validate()
	assert.True(t, errors.Is(err, ErrInvalidCategory))

	err = NewDispatchRequest(nil, "", "\n ", CategoryNews).Validate()
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestBatchResult_AuditDegraded(t *testing.T) {
	result := &BatchResult{Audit: []AuditResult{{Status: AuditLogged}}}
	assert.False(t, result.AuditDegraded())

	result.Audit = append(result.Audit, AuditResult{Status: AuditLogFailed, Reason: "timeout"})
	assert.True(t, result.AuditDegraded())
}
