package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emrs-notify-api/src/domain/provider"
	logger "emrs-notify-api/src/infrastructure/logger"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.twilio.com"

const maxBodyBytes = 16 * 1024

// HTTPClient abstracts http.Client for tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials are supplied by the caller of each SMS request
type Credentials struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option configures a Provider
type Option func(*Provider)

func WithHTTPClient(client HTTPClient) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(p *Provider) {
		if timeout > 0 {
			p.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// Provider sends SMS through Twilio's Messages API
type Provider struct {
	credentials Credentials
	httpClient  HTTPClient
	baseURL     string
	Logger      *logger.Logger
}

func NewProvider(credentials Credentials, loggerInstance *logger.Logger, opts ...Option) *Provider {
	p := &Provider{
		credentials: Credentials{
			AccountSID: strings.TrimSpace(credentials.AccountSID),
			AuthToken:  strings.TrimSpace(credentials.AuthToken),
			FromNumber: strings.TrimSpace(credentials.FromNumber),
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		Logger:     loggerInstance,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Provider) Name() string {
	return "twilio"
}

// Open only checks the credentials; Twilio needs no connection set-up
func (p *Provider) Open(ctx context.Context) (provider.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := p.credentials
	if c.AccountSID == "" || c.AuthToken == "" || c.FromNumber == "" {
		return nil, fmt.Errorf("twilio: %w", provider.ErrMissingCredentials)
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(c.AccountSID))
	return &session{provider: p, endpoint: endpoint}, nil
}

type session struct {
	provider *Provider
	endpoint string
}

func (s *session) Deliver(ctx context.Context, recipient string, message provider.Message) error {
	p := s.provider
	params := url.Values{}
	params.Set("To", recipient)
	params.Set("From", p.credentials.FromNumber)
	params.Set("Body", message.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("twilio: new request: %w", err)
	}
	req.SetBasicAuth(p.credentials.AccountSID, p.credentials.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("twilio: read body: %w", err)
	}
	body := string(data)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.Logger.Debug("SMS accepted",
			zap.String("sid", gjson.Get(body, "sid").String()),
			zap.String("status", gjson.Get(body, "status").String()))
		return nil
	}

	msg := gjson.Get(body, "message").String()
	if msg == "" {
		msg = strings.TrimSpace(body)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if code := gjson.Get(body, "code").Int(); code > 0 {
		return fmt.Errorf("twilio error %d: %s", code, msg)
	}
	return fmt.Errorf("twilio http %d: %s", resp.StatusCode, msg)
}

func (s *session) Close() error {
	return nil
}
