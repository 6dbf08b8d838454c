package controllers

import (
	"time"

	"emrs-notify-api/src/domain/notification"
)

// Summary is the summary object of every dispatch response
type Summary struct {
	Total        int    `json:"total"`
	Success      int    `json:"success"`
	Failed       int    `json:"failed"`
	OverallState string `json:"overallState"`
}

func NewSummary(s notification.BatchSummary) Summary {
	return Summary{
		Total:        s.Total,
		Success:      s.Succeeded,
		Failed:       s.Failed,
		OverallState: string(s.OverallState),
	}
}

// FormatTime renders timestamps the same way in every response
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
