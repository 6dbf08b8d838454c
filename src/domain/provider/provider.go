package provider

import (
	"context"
	"errors"
)

// ErrMissingCredentials is returned by Open when the provider has no usable credentials
var ErrMissingCredentials = errors.New("provider credentials are not configured")

// Message is the rendered content handed to a session
type Message struct {
	Subject string
	HTML    string // used by email providers
	Text    string // used by SMS providers and as the plain-text alternative
}

// Provider represents an external delivery provider (SMTP relay, SMS gateway, ...)
type Provider interface {
	// Name identifies the provider in logs, metrics and audit records
	Name() string

	// Open connects to the provider or prepares an authenticated client.
	// An error here is fatal for the whole dispatch call.
	Open(ctx context.Context) (Session, error)
}

// Session is owned by exactly one dispatch call and is never reused
type Session interface {
	// Deliver sends message to one recipient
	Deliver(ctx context.Context, recipient string, message Message) error

	// Close releases the provider connection
	Close() error
}
