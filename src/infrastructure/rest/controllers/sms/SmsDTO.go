package sms

import (
	"strings"

	"emrs-notify-api/src/infrastructure/rest/controllers"
)

type SmsRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	AccountSID string `json:"accountSid" binding:"required"`
	AuthToken  string `json:"authToken" binding:"required"`
	FromNumber string `json:"fromNumber" binding:"required"`
}

// blank reports whether any field is empty after trimming whitespace
func (r *SmsRequest) blank() bool {
	for _, v := range []string{r.To, r.Message, r.AccountSID, r.AuthToken, r.FromNumber} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

type SmsResult struct {
	To          string `json:"to"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	AttemptedAt string `json:"attemptedAt"`
}

type SmsResponse struct {
	Success       bool                `json:"success"`
	BatchID       string              `json:"batchId"`
	Provider      string              `json:"provider"`
	Results       []SmsResult         `json:"results"`
	Summary       controllers.Summary `json:"summary"`
	Message       string              `json:"message"`
	AuditDegraded bool                `json:"auditDegraded,omitempty"`
}
