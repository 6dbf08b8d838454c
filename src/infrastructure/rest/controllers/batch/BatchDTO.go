package batch

type AuditRecordResponse struct {
	Kind       string `json:"kind"`
	Channel    string `json:"channel"`
	Provider   string `json:"provider"`
	Category   string `json:"category"`
	Subject    string `json:"subject,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Total      int    `json:"total,omitempty"`
	Succeeded  int    `json:"success,omitempty"`
	Failed     int    `json:"failed,omitempty"`
	RecordedAt string `json:"recordedAt"`
}

type AuditTrailResponse struct {
	Success bool                  `json:"success"`
	BatchID string                `json:"batchId"`
	Records []AuditRecordResponse `json:"records"`
}
