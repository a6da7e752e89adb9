package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pixoform/api/services/notifier"
	"pixoform/api/services/storage"
	"pixoform/api/services/submission"
)

const (
	msgSubmitted        = "فرم شما با موفقیت ثبت شد و به زودی تیم ما با شما تماس خواهد گرفت"
	msgInvalidJSON      = "داده‌های JSON معتبر ارسال نشده است"
	msgSubmitFailed     = "خطای داخلی سرور. لطفاً دوباره تلاش کنید."
	msgServerError      = "خطای داخلی سرور"
	msgUnauthorized     = "غیرمجاز"
	msgListFailed       = "خطا در دریافت اطلاعات"
	msgNotFound         = "صفحه مورد نظر یافت نشد"
	msgMethodNotAllowed = "متد درخواست مجاز نیست"
	msgDBUnavailable    = "اتصال به پایگاه داده برقرار نیست"
	msgTestEmailSent    = "ایمیل تست با موفقیت ارسال شد"
	msgTestEmailFailed  = "خطا در ارسال ایمیل تست"
	msgTestDisabled     = "Test endpoint disabled in production"
)

type submitResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID int64  `json:"submission_id"`
	Warning      string `json:"warning,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleSubmitForm decodes the posted form and runs it through the pipeline.
// Validation failures are 400s; only a failed write is a server error.
func (s *Service) HandleSubmitForm(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	in, err := decodeInput(r.Body)
	if err != nil {
		slog.Warn("failed to decode form body", "requestId", rid, "error", err)
		writeErrorJSON(w, msgInvalidJSON, http.StatusBadRequest)
		return
	}

	res, err := s.pipeline.Submit(r.Context(), in)
	if err != nil {
		var vErr *submission.ValidationError
		if errors.As(err, &vErr) {
			slog.Info("form rejected", "requestId", rid, "fields", vErr.Fields)
			writeErrorJSON(w, vErr.Message, http.StatusBadRequest)
			return
		}
		slog.Error("form submission error", "requestId", rid, "error", err)
		writeErrorJSON(w, msgSubmitFailed, http.StatusInternalServerError)
		return
	}

	writeJSON(w, rid, http.StatusOK, submitResponse{
		Success:      true,
		Message:      msgSubmitted,
		SubmissionID: res.ID,
		Warning:      res.Warning(),
	})
}

// HandleHealth reports whether the store is reachable.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	now := time.Now().Format(time.RFC3339)

	if err := s.store.HealthCheck(r.Context()); err != nil {
		slog.Error("health check failed", "requestId", rid, "error", err)
		writeJSON(w, rid, http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Timestamp: now,
			Error:     msgDBUnavailable,
		})
		return
	}

	writeJSON(w, rid, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: now,
		Database:  "connected",
	})
}

// HandleListSubmissions returns every stored submission, newest first.
func (s *Service) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)

	if !s.authorized(r) {
		slog.Warn("unauthorized submissions request", "requestId", rid, "remote", r.RemoteAddr)
		writeErrorJSON(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	subs, err := s.store.List(r.Context())
	if err != nil {
		slog.Error("error fetching submissions", "requestId", rid, "error", err)
		writeErrorJSON(w, msgListFailed, http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []storage.Submission{}
	}
	writeJSON(w, rid, http.StatusOK, subs)
}

// HandleTestEmail sends the sample confirmation email. Production answers 404.
func (s *Service) HandleTestEmail(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Production {
		writeErrorJSON(w, msgTestDisabled, http.StatusNotFound)
		return
	}

	rid := reqID(r)
	if err := s.notifier.SendConfirmation(r.Context(), notifier.SampleSubmission()); err != nil {
		slog.Error("test email failed", "requestId", rid, "error", err)
		writeErrorJSON(w, msgTestEmailFailed, http.StatusInternalServerError)
		return
	}
	writeJSON(w, rid, http.StatusOK, map[string]string{"message": msgTestEmailSent})
}

// HandleIndex serves the embedded form page.
func (s *Service) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(s.index); err != nil {
		slog.Error("failed to write index page", "requestId", reqID(r), "error", err)
	}
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeErrorJSON(w, msgNotFound, http.StatusNotFound)
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeErrorJSON(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
}

// authorized compares the bearer token in constant time.
func (s *Service) authorized(r *http.Request) bool {
	if s.cfg.AdminToken == "" {
		return false
	}
	got := r.Header.Get("Authorization")
	want := "Bearer " + s.cfg.AdminToken
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// decodeInput accepts a non-empty JSON object. Non-string values are
// rendered as text; null, false, zero and empty containers count as absent.
func decodeInput(body io.Reader) (submission.Input, error) {
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return submission.Input{}, err
	}
	if len(raw) == 0 {
		return submission.Input{}, errors.New("empty form body")
	}

	field := func(key string) string {
		switch v := raw[key].(type) {
		case nil:
			return ""
		case string:
			return v
		case bool:
			if !v {
				return ""
			}
		case float64:
			if v == 0 {
				return ""
			}
		case []any:
			if len(v) == 0 {
				return ""
			}
		case map[string]any:
			if len(v) == 0 {
				return ""
			}
		}
		return fmt.Sprint(raw[key])
	}
	return submission.Input{
		Name:               field("name"),
		Email:              field("email"),
		PhoneNumber:        field("phone_number"),
		InstagramLink:      field("instagram_link"),
		ServiceType:        field("service_type"),
		ProjectDescription: field("project_description"),
		BudgetTimeline:     field("budget_timeline"),
		AdditionalInfo:     field("additional_info"),
	}, nil
}

func writeJSON(w http.ResponseWriter, rid string, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "requestId", rid, "error", err)
		writeErrorJSON(w, msgServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		slog.Error("failed to write response", "requestId", rid, "error", err)
	}
}

// writeErrorJSON writes {"error": message} with the given status.
func writeErrorJSON(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
