package email

import "emrs-notify-api/src/infrastructure/rest/controllers"

type EmailRequest struct {
	To      []string `json:"to" binding:"required"`
	Subject string   `json:"subject" binding:"required"`
	Body    string   `json:"body" binding:"required"`
	Type    string   `json:"type" binding:"omitempty,oneof=announcement news event exam_result general"`
}

type EmailResult struct {
	Email       string `json:"email"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	AttemptedAt string `json:"attemptedAt"`
}

type EmailResponse struct {
	Success       bool                `json:"success"`
	BatchID       string              `json:"batchId"`
	Provider      string              `json:"provider"`
	Results       []EmailResult       `json:"results"`
	Summary       controllers.Summary `json:"summary"`
	Message       string              `json:"message"`
	AuditDegraded bool                `json:"auditDegraded,omitempty"`
}
