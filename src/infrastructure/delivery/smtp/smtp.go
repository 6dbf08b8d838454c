package smtp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emrs-notify-api/src/domain/provider"
	logger "emrs-notify-api/src/infrastructure/logger"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"
)

const (
	GmailHost = "smtp.gmail.com"
	GmailPort = 587
)

// Dialer opens an SMTP session. *mail.Dialer satisfies it.
type Dialer interface {
	Dial() (mail.SendCloser, error)
}

// Config describes one SMTP relay
type Config struct {
	Name     string
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Option configures a Provider
type Option func(*Provider)

// WithDialer swaps the dialer used to open sessions
func WithDialer(d Dialer) Option {
	return func(p *Provider) {
		if d != nil {
			p.dialer = d
		}
	}
}

// Provider delivers email through an SMTP relay, one connection per dispatch call
type Provider struct {
	config Config
	dialer Dialer
	Logger *logger.Logger
}

func NewProvider(cfg Config, loggerInstance *logger.Logger, opts ...Option) *Provider {
	if cfg.Name == "" {
		cfg.Name = "smtp"
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	p := &Provider{config: cfg, Logger: loggerInstance}
	if cfg.Host != "" {
		d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
		d.Timeout = cfg.Timeout
		p.dialer = d
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// NewGmailProvider is the Gmail relay authenticated with an app password
func NewGmailProvider(user, appPassword, fromName string, loggerInstance *logger.Logger, opts ...Option) *Provider {
	return NewProvider(Config{
		Name:     "gmail",
		Host:     GmailHost,
		Port:     GmailPort,
		User:     user,
		Password: appPassword,
		From:     user,
		FromName: fromName,
	}, loggerInstance, opts...)
}

func (p *Provider) Name() string {
	return p.config.Name
}

// Configured reports whether the relay has a host, a sender address and,
// when a user is set, its password
func (p *Provider) Configured() bool {
	if p.dialer == nil || strings.TrimSpace(p.config.From) == "" {
		return false
	}
	return p.config.User == "" || p.config.Password != ""
}

func (p *Provider) Open(ctx context.Context) (provider.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.Configured() {
		return nil, fmt.Errorf("%s: %w", p.config.Name, provider.ErrMissingCredentials)
	}

	sender, err := p.dialer.Dial()
	if err != nil {
		return nil, fmt.Errorf("%s: dial %s:%d: %w", p.config.Name, p.config.Host, p.config.Port, err)
	}
	p.Logger.Debug("SMTP session opened", zap.String("provider", p.config.Name), zap.String("host", p.config.Host))
	return &session{sender: sender, config: p.config}, nil
}

type session struct {
	sender mail.SendCloser
	config Config
}

func (s *session) Deliver(ctx context.Context, recipient string, message provider.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", s.config.From, s.config.FromName)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/plain", message.Text)
	if message.HTML != "" {
		m.AddAlternative("text/html", message.HTML)
	}
	return mail.Send(s.sender, m)
}

func (s *session) Close() error {
	return s.sender.Close()
}
