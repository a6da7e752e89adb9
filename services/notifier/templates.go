package notifier

import (
	"embed"
	"fmt"
	"strconv"

	"github.com/osteele/liquid"

	"pixoform/api/services/storage"
	"pixoform/api/services/validator"
)

//go:embed templates/*.liquid
var templateFS embed.FS

const (
	confirmationTemplate  = "templates/confirmation.liquid"
	internalAlertTemplate = "templates/internal_alert.liquid"
)

// renderer holds the parsed email templates. Templates are parsed once at
// construction and are safe for concurrent rendering.
type renderer struct {
	confirmation  *liquid.Template
	internalAlert *liquid.Template
}

func newRenderer() (*renderer, error) {
	engine := liquid.NewEngine()
	// {{ phone_number | phone }} renders 09123456789 as 0912-345-6789.
	engine.RegisterFilter("phone", validator.FormatPhone)

	parse := func(name string) (*liquid.Template, error) {
		src, err := templateFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		tpl, perr := engine.ParseTemplate(src)
		if perr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, perr)
		}
		return tpl, nil
	}

	confirmation, err := parse(confirmationTemplate)
	if err != nil {
		return nil, err
	}
	internalAlert, err := parse(internalAlertTemplate)
	if err != nil {
		return nil, err
	}
	return &renderer{confirmation: confirmation, internalAlert: internalAlert}, nil
}

func (r *renderer) renderConfirmation(sub storage.Submission) (string, error) {
	out, err := r.confirmation.RenderString(submissionBindings(sub))
	if err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return out, nil
}

func (r *renderer) renderInternalAlert(sub storage.Submission, id int64, receivedAt string) (string, error) {
	b := submissionBindings(sub)
	b["submission_id"] = strconv.FormatInt(id, 10)
	b["received_at"] = receivedAt

	out, err := r.internalAlert.RenderString(b)
	if err != nil {
		return "", fmt.Errorf("render internal alert: %w", err)
	}
	return out, nil
}

func submissionBindings(sub storage.Submission) liquid.Bindings {
	return liquid.Bindings{
		"name":                sub.Name,
		"email":               sub.Email,
		"phone_number":        sub.PhoneNumber,
		"instagram_link":      sub.InstagramLink,
		"service_type":        sub.ServiceType,
		"project_description": sub.ProjectDescription,
		"budget_timeline":     sub.BudgetTimeline,
		"additional_info":     sub.AdditionalInfo,
	}
}
