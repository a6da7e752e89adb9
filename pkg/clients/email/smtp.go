package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNoStartTLS is returned when the relay does not offer STARTTLS.
// Credentials are never sent over a plaintext connection.
var ErrNoStartTLS = errors.New("smtp server does not support STARTTLS")

// SMTPConfig describes the relay used by SMTPClient.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Timeout bounds the whole SMTP conversation. Zero means 30s.
	Timeout time.Duration
	// TLSConfig overrides the STARTTLS configuration. Tests use it to trust
	// a self-signed relay.
	TLSConfig *tls.Config
}

// SMTPClient delivers messages through an SMTP relay using STARTTLS and
// PLAIN authentication. A new connection is opened per message.
type SMTPClient struct {
	cfg SMTPConfig
}

// NewSMTPClient creates an SMTP-backed email client.
func NewSMTPClient(cfg SMTPConfig) *SMTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPClient{cfg: cfg}
}

func (c *SMTPClient) Send(ctx context.Context, msg Message) (*Result, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("smtp: empty recipient")
	}

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	dialer := net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return nil, ErrNoStartTLS
	}
	tlsCfg := c.cfg.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{ServerName: c.cfg.Host, MinVersion: tls.VersionTLS12}
	}
	if err := client.StartTLS(tlsCfg); err != nil {
		return nil, fmt.Errorf("smtp starttls: %w", err)
	}

	if c.cfg.Username != "" {
		auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), c.cfg.Host)
	body, err := buildMessage(msg, messageID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := client.Mail(msg.From); err != nil {
		return nil, fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return nil, fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return nil, fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return nil, fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("smtp end DATA: %w", err)
	}
	if err := client.Quit(); err != nil {
		// The message has already been accepted at this point.
		slog.Warn("smtp quit failed", "error", err)
	}

	return &Result{
		DeliveryStatus: "sent",
		Sent:           true,
		MessageID:      messageID,
	}, nil
}

// buildMessage renders msg as a MIME message with a base64 UTF-8 HTML body.
func buildMessage(msg Message, messageID string, now time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", msg.From, err)
	}
	from.Name = msg.FromName
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}

	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}
	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.BEncoding.Encode("UTF-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", messageID)
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "base64")
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(msg.HTMLBody))
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	return buf.Bytes(), nil
}
