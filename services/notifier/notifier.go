// Package notifier sends the emails that follow a stored submission: a
// confirmation to the submitter and an alert to the team mailbox.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pixoform/api/pkg/clients/email"
	"pixoform/api/services/storage"
)

// Kind identifies which notification failed.
type Kind string

const (
	KindConfirmation  Kind = "confirmation"
	KindInternalAlert Kind = "internal_alert"
)

const (
	confirmationSubject = "تایید ثبت فرم - پیکسوفرم"
	alertTimeLayout     = "2006/01/02 - 15:04"
)

// NotificationError reports a failed notification. It is never fatal to a
// submission; callers downgrade it to a warning.
type NotificationError struct {
	Kind Kind
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s email: %v", e.Kind, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Notifier dispatches submission emails. Each call is independent: a
// failed confirmation has no effect on the internal alert.
type Notifier interface {
	SendConfirmation(ctx context.Context, sub storage.Submission) error
	SendInternalAlert(ctx context.Context, sub storage.Submission, id int64) error
}

// Config identifies the sender and the internal mailbox.
type Config struct {
	From            string
	FromName        string
	InternalAddress string
}

// Service renders the templates and hands messages to an email.Client.
// Sends are synchronous.
type Service struct {
	client    email.Client
	cfg       Config
	templates *renderer
	now       func() time.Time
}

// New creates a notifier Service.
func New(client email.Client, cfg Config) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("notifier: email client cannot be nil")
	}
	if cfg.InternalAddress == "" {
		cfg.InternalAddress = cfg.From
	}
	tpl, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Service{client: client, cfg: cfg, templates: tpl, now: time.Now}, nil
}

func (s *Service) SendConfirmation(ctx context.Context, sub storage.Submission) error {
	to := strings.TrimSpace(sub.Email)
	slog.Info("sending confirmation email", "to", to)

	body, err := s.templates.renderConfirmation(sub)
	if err != nil {
		return s.fail(KindConfirmation, err)
	}

	_, err = s.client.Send(ctx, email.Message{
		To:       to,
		From:     s.cfg.From,
		FromName: s.cfg.FromName,
		Subject:  confirmationSubject,
		HTMLBody: body,
	})
	if err != nil {
		return s.fail(KindConfirmation, err)
	}

	slog.Info("confirmation email sent", "to", to)
	return nil
}

func (s *Service) SendInternalAlert(ctx context.Context, sub storage.Submission, id int64) error {
	body, err := s.templates.renderInternalAlert(sub, id, s.now().Format(alertTimeLayout))
	if err != nil {
		return s.fail(KindInternalAlert, err)
	}

	_, err = s.client.Send(ctx, email.Message{
		To:       s.cfg.InternalAddress,
		From:     s.cfg.From,
		FromName: s.cfg.FromName,
		Subject:  AlertSubject(id, sub.Name),
		HTMLBody: body,
	})
	if err != nil {
		return s.fail(KindInternalAlert, err)
	}

	slog.Info("internal notification sent", "submissionId", id)
	return nil
}

func (s *Service) fail(kind Kind, err error) error {
	slog.Error("email sending error", "kind", kind, "error", err)
	return &NotificationError{Kind: kind, Err: err}
}

// AlertSubject is the subject line of the internal alert.
func AlertSubject(id int64, name string) string {
	return fmt.Sprintf("فرم جدید #%d - %s", id, name)
}

// SampleSubmission is the fixed submission used to test email delivery.
func SampleSubmission() storage.Submission {
	return storage.Submission{
		Name:               "تست کاربر",
		Email:              "test@example.com",
		PhoneNumber:        "09123456789",
		InstagramLink:      "https://instagram.com/test",
		ServiceType:        "ریل",
		ProjectDescription: "این یک پروژه تست است",
		BudgetTimeline:     "حدود یک هفته",
		AdditionalInfo:     "اطلاعات اضافی تست",
	}
}
