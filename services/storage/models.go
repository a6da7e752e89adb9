package storage

import "time"

// Submission is one validated project-intake form entry.
// ID and SubmissionDate are assigned by the database on insert and never
// change afterwards. PhoneNumber always holds the digit-only form.
// Optional fields are empty strings when the submitter left them out.
type Submission struct {
	ID                 int64     `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	Email              string    `json:"email" db:"email"`
	PhoneNumber        string    `json:"phone_number" db:"phone_number"`
	InstagramLink      string    `json:"instagram_link" db:"instagram_link"`
	ServiceType        string    `json:"service_type" db:"service_type"`
	ProjectDescription string    `json:"project_description" db:"project_description"`
	BudgetTimeline     string    `json:"budget_timeline" db:"budget_timeline"`
	AdditionalInfo     string    `json:"additional_info" db:"additional_info"`
	SubmissionDate     time.Time `json:"submission_date" db:"submission_date"`
}
