package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainErrors "emrs-notify-api/src/domain/errors"
	"emrs-notify-api/src/domain/notification"
	logger "emrs-notify-api/src/infrastructure/logger"
	"emrs-notify-api/src/infrastructure/repository/audit"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// HTTPClient abstracts http.Client for tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuditSink writes audit records to a PostgREST table of the hosted database
type AuditSink struct {
	baseURL    string
	serviceKey string
	table      string
	httpClient HTTPClient
	Logger     *logger.Logger
}

func NewAuditSink(baseURL, serviceKey, table string, timeout time.Duration, loggerInstance *logger.Logger) *AuditSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuditSink{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		table:      table,
		httpClient: &http.Client{Timeout: timeout},
		Logger:     loggerInstance,
	}
}

func (s *AuditSink) endpoint() string {
	return fmt.Sprintf("%s/rest/v1/%s", s.baseURL, url.PathEscape(s.table))
}

func (s *AuditSink) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Row is the JSON object inserted for record
func Row(record notification.AuditRecord) string {
	row := "{}"
	row, _ = sjson.Set(row, "batch_id", record.BatchID)
	row, _ = sjson.Set(row, "kind", string(record.Kind))
	row, _ = sjson.Set(row, "channel", string(record.Channel))
	row, _ = sjson.Set(row, "provider", record.Provider)
	row, _ = sjson.Set(row, "category", string(record.Category))
	row, _ = sjson.Set(row, "subject", record.Subject)
	row, _ = sjson.Set(row, "recipient", record.Recipient)
	row, _ = sjson.Set(row, "status", record.Status)
	row, _ = sjson.Set(row, "error_message", record.ErrorDetail)
	row, _ = sjson.Set(row, "total", record.Total)
	row, _ = sjson.Set(row, "succeeded", record.Succeeded)
	row, _ = sjson.Set(row, "failed", record.Failed)
	row, _ = sjson.SetRaw(row, "details", audit.Details(&record))
	row, _ = sjson.Set(row, "recorded_at", record.RecordedAt.UTC().Format(time.RFC3339Nano))
	return row
}

func (s *AuditSink) Write(ctx context.Context, record notification.AuditRecord) error {
	req, err := s.newRequest(ctx, http.MethodPost, s.endpoint(), bytes.NewBufferString(Row(record)))
	if err != nil {
		return fmt.Errorf("supabase audit: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase audit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	msg := errorMessage(resp.StatusCode, string(data))
	s.Logger.Error("Error inserting audit row", zap.Int("status", resp.StatusCode), zap.String("error", msg), zap.String("batchID", record.BatchID))
	return fmt.Errorf("supabase audit: %s", msg)
}

func (s *AuditSink) ListByBatch(ctx context.Context, batchID string) ([]notification.AuditRecord, error) {
	query := url.Values{}
	query.Set("batch_id", "eq."+batchID)
	query.Set("order", "recorded_at.asc")
	query.Set("select", "*")

	req, err := s.newRequest(ctx, http.MethodGet, s.endpoint()+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("supabase audit: new request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domainErrors.NewAppError(fmt.Errorf("supabase audit: %w", err), domainErrors.UnknownError)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domainErrors.NewAppError(fmt.Errorf("supabase audit: read body: %w", err), domainErrors.UnknownError)
	}
	body := string(data)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domainErrors.NewAppError(fmt.Errorf("supabase audit: %s", errorMessage(resp.StatusCode, body)), domainErrors.UnknownError)
	}

	rows := gjson.Parse(body)
	if !rows.IsArray() {
		return nil, domainErrors.NewAppError(fmt.Errorf("supabase audit: expected an array of rows, got %q", body), domainErrors.UnknownError)
	}

	var records []notification.AuditRecord
	rows.ForEach(func(_, row gjson.Result) bool {
		records = append(records, recordFromRow(row))
		return true
	})
	if len(records) == 0 {
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	return records, nil
}

func recordFromRow(row gjson.Result) notification.AuditRecord {
	recordedAt, _ := time.Parse(time.RFC3339Nano, row.Get("recorded_at").String())
	return notification.AuditRecord{
		BatchID:     row.Get("batch_id").String(),
		Kind:        notification.AuditKind(row.Get("kind").String()),
		Channel:     notification.Channel(row.Get("channel").String()),
		Provider:    row.Get("provider").String(),
		Category:    notification.Category(row.Get("category").String()),
		Subject:     row.Get("subject").String(),
		Recipient:   row.Get("recipient").String(),
		Status:      row.Get("status").String(),
		ErrorDetail: row.Get("error_message").String(),
		Total:       int(row.Get("total").Int()),
		Succeeded:   int(row.Get("succeeded").Int()),
		Failed:      int(row.Get("failed").Int()),
		RecordedAt:  recordedAt,
	}
}

func errorMessage(status int, body string) string {
	if msg := gjson.Get(body, "message").String(); msg != "" {
		return fmt.Sprintf("http %d: %s", status, msg)
	}
	if strings.TrimSpace(body) != "" {
		return fmt.Sprintf("http %d: %s", status, strings.TrimSpace(body))
	}
	return fmt.Sprintf("http %d: %s", status, http.StatusText(status))
}
