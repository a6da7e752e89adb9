package email

import (
	"context"
	"log/slog"
)

// Message represents an email to be sent. Body is HTML.
type Message struct {
	To       string
	From     string
	FromName string
	Subject  string
	HTMLBody string
}

// Result holds the outcome of a send attempt.
type Result struct {
	DeliveryStatus string
	Sent           bool
	MessageID      string
}

// Client defines the interface for sending emails.
// Implementations can be swapped between a stub (for dev/testing)
// and a real transport (SMTP relay, SES).
type Client interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// StubClient simulates sending emails by logging them.
type StubClient struct {
	FromAddress string
}

// NewStubClient creates an email client that logs instead of sending.
func NewStubClient(fromAddress string) *StubClient {
	return &StubClient{FromAddress: fromAddress}
}

func (c *StubClient) Send(_ context.Context, msg Message) (*Result, error) {
	from := msg.From
	if from == "" {
		from = c.FromAddress
	}
	slog.Info("sending email (stub)", "to", msg.To, "from", from, "subject", msg.Subject)
	return &Result{
		DeliveryStatus: "logged",
		Sent:           true,
	}, nil
}
