package notifiermock

import (
	"context"
	"sync"

	"pixoform/api/services/notifier"
	"pixoform/api/services/storage"
)

// NotifierMock is a notifier.Notifier that records every call. Set the Err
// fields to make the matching send fail with a *notifier.NotificationError.
type NotifierMock struct {
	ConfirmationErr error
	AlertErr        error

	mu            sync.Mutex
	confirmations []storage.Submission
	alerts        []int64
}

func (m *NotifierMock) SendConfirmation(_ context.Context, sub storage.Submission) error {
	m.mu.Lock()
	m.confirmations = append(m.confirmations, sub)
	m.mu.Unlock()

	if m.ConfirmationErr != nil {
		return &notifier.NotificationError{Kind: notifier.KindConfirmation, Err: m.ConfirmationErr}
	}
	return nil
}

func (m *NotifierMock) SendInternalAlert(_ context.Context, _ storage.Submission, id int64) error {
	m.mu.Lock()
	m.alerts = append(m.alerts, id)
	m.mu.Unlock()

	if m.AlertErr != nil {
		return &notifier.NotificationError{Kind: notifier.KindInternalAlert, Err: m.AlertErr}
	}
	return nil
}

// Confirmations returns the submissions passed to SendConfirmation.
func (m *NotifierMock) Confirmations() []storage.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Submission(nil), m.confirmations...)
}

// Alerts returns the ids passed to SendInternalAlert.
func (m *NotifierMock) Alerts() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.alerts...)
}

var _ notifier.Notifier = (*NotifierMock)(nil)
