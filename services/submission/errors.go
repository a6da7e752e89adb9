package submission

import "fmt"

// ValidationError reports caller-supplied data that failed a rule. Message is
// the Persian text shown to the submitter.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PersistenceError wraps a failed store write. The submission is lost and no
// email is sent.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist submission: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
