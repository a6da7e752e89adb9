// Package submission runs one intake form through validation, storage and
// notification.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"pixoform/api/services/notifier"
	"pixoform/api/services/storage"
	"pixoform/api/services/validator"
)

const (
	minNameLength        = 2
	minDescriptionLength = 10
)

const (
	msgMissingFields    = "فیلدهای الزامی وارد نشده: "
	msgInvalidEmail     = "آدرس ایمیل وارد شده معتبر نیست. لطفاً یک آدرس ایمیل صحیح وارد کنید."
	msgInvalidPhone     = "شماره تماس باید به فرمت 09xxxxxxxxx وارد شود (۱۱ رقم که با ۰۹ شروع شود)"
	msgShortName        = "نام باید حداقل ۲ کاراکتر باشد"
	msgShortDescription = "توضیحات پروژه باید حداقل ۱۰ کاراکتر باشد"

	WarningConfirmation = "فرم ثبت شد اما ایمیل تایید ارسال نشد"
	WarningAlert        = "فرم ثبت شد اما اطلاع‌رسانی داخلی ارسال نشد"
)

// Input is the raw form payload as posted by the client.
type Input struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	PhoneNumber        string `json:"phone_number"`
	InstagramLink      string `json:"instagram_link"`
	ServiceType        string `json:"service_type"`
	ProjectDescription string `json:"project_description"`
	BudgetTimeline     string `json:"budget_timeline"`
	AdditionalInfo     string `json:"additional_info"`
}

// Result is the outcome of an accepted submission.
type Result struct {
	ID       int64
	Warnings []string
}

// requiredField pairs a form key with its Persian label and accessor.
type requiredField struct {
	key   string
	label string
	value func(Input) string
}

// Order matters: missing fields are reported in this order.
var requiredFields = []requiredField{
	{"name", "نام", func(in Input) string { return in.Name }},
	{"email", "ایمیل", func(in Input) string { return in.Email }},
	{"phone_number", "شماره تماس", func(in Input) string { return in.PhoneNumber }},
	{"service_type", "نوع خدمت", func(in Input) string { return in.ServiceType }},
	{"project_description", "توضیحات پروژه", func(in Input) string { return in.ProjectDescription }},
}

// check is one validation step. It may rewrite the working submission.
type check func(sub *storage.Submission) error

// Pipeline validates, stores and announces submissions. It holds no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	store    storage.Storage
	notifier notifier.Notifier
	checks   []check
}

// New creates a Pipeline backed by the given store and notifier.
func New(store storage.Storage, n notifier.Notifier) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("pipeline: store cannot be nil")
	}
	if n == nil {
		return nil, fmt.Errorf("pipeline: notifier cannot be nil")
	}
	return &Pipeline{
		store:    store,
		notifier: n,
		checks:   []check{checkEmail, checkPhone, checkLengths},
	}, nil
}

// Submit runs a single pass over in. Validation failures return a
// *ValidationError and a failed write returns a *PersistenceError. Email
// failures never fail the call; they come back as Result.Warnings.
func (p *Pipeline) Submit(ctx context.Context, in Input) (*Result, error) {
	if err := checkPresence(in); err != nil {
		return nil, err
	}

	sub := &storage.Submission{
		Name:               in.Name,
		Email:              in.Email,
		PhoneNumber:        in.PhoneNumber,
		InstagramLink:      in.InstagramLink,
		ServiceType:        in.ServiceType,
		ProjectDescription: in.ProjectDescription,
		BudgetTimeline:     in.BudgetTimeline,
		AdditionalInfo:     in.AdditionalInfo,
	}
	for _, c := range p.checks {
		if err := c(sub); err != nil {
			return nil, err
		}
	}

	id, err := p.store.Save(ctx, sub)
	if err != nil {
		slog.Error("failed to save submission", "email", sub.Email, "error", err)
		return nil, &PersistenceError{Err: err}
	}
	sub.ID = id
	slog.Info("form submitted", "submissionId", id, "email", sub.Email)

	res := &Result{ID: id}
	if err := p.notifier.SendConfirmation(ctx, *sub); err != nil {
		logNotificationFailure(id, err)
		res.Warnings = append(res.Warnings, WarningConfirmation)
	}
	if err := p.notifier.SendInternalAlert(ctx, *sub, id); err != nil {
		logNotificationFailure(id, err)
		res.Warnings = append(res.Warnings, WarningAlert)
	}
	return res, nil
}

// Warning joins the result's warnings into the single string returned to the
// client, or "" when there are none.
func (r *Result) Warning() string {
	return strings.Join(r.Warnings, " | ")
}

func logNotificationFailure(id int64, err error) {
	var nErr *notifier.NotificationError
	if errors.As(err, &nErr) {
		slog.Warn("notification failed", "submissionId", id, "kind", nErr.Kind, "error", nErr.Err)
		return
	}
	slog.Warn("notification failed", "submissionId", id, "error", err)
}

func checkPresence(in Input) error {
	var keys, labels []string
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(in)) == "" {
			keys = append(keys, f.key)
			labels = append(labels, f.label)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return &ValidationError{
		Fields:  keys,
		Message: msgMissingFields + strings.Join(labels, ", "),
	}
}

func checkEmail(sub *storage.Submission) error {
	if !validator.ValidateEmail(strings.TrimSpace(sub.Email)) {
		return &ValidationError{Fields: []string{"email"}, Message: msgInvalidEmail}
	}
	return nil
}

func checkPhone(sub *storage.Submission) error {
	phone := strings.TrimSpace(sub.PhoneNumber)
	if !validator.ValidatePhone(phone) {
		return &ValidationError{Fields: []string{"phone_number"}, Message: msgInvalidPhone}
	}
	sub.PhoneNumber = validator.NormalizePhone(phone)
	return nil
}

func checkLengths(sub *storage.Submission) error {
	if utf8.RuneCountInString(strings.TrimSpace(sub.Name)) < minNameLength {
		return &ValidationError{Fields: []string{"name"}, Message: msgShortName}
	}
	if utf8.RuneCountInString(strings.TrimSpace(sub.ProjectDescription)) < minDescriptionLength {
		return &ValidationError{Fields: []string{"project_description"}, Message: msgShortDescription}
	}
	return nil
}
