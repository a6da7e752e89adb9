// Package web exposes the intake form over HTTP.
package web

import (
	"context"
	"embed"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"pixoform/api/services/notifier"
	"pixoform/api/services/storage"
	"pixoform/api/services/submission"
)

//go:embed static/index.html
var staticFS embed.FS

// maxRequestBody limits the size of a form submission.
const maxRequestBody = 1 << 20 // 1MB

// Submitter runs a form through the submission pipeline.
type Submitter interface {
	Submit(ctx context.Context, in submission.Input) (*submission.Result, error)
}

// Config carries the settings the handlers read per request.
type Config struct {
	// Production disables /test-email.
	Production bool
	// AdminToken guards /api/submissions. An empty token rejects every request.
	AdminToken string
	// CORSAllowedOrigins restricts cross-origin callers. Empty allows any origin.
	CORSAllowedOrigins []string
}

// Service handles the HTTP routes of the intake form.
type Service struct {
	pipeline Submitter
	store    storage.Storage
	notifier notifier.Notifier
	cfg      Config
	index    []byte
}

// NewService creates a web Service.
func NewService(pipeline Submitter, store storage.Storage, n notifier.Notifier, cfg Config) (*Service, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("service: pipeline cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("service: store cannot be nil")
	}
	if n == nil {
		return nil, fmt.Errorf("service: notifier cannot be nil")
	}
	index, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return nil, fmt.Errorf("service: read index page: %w", err)
	}
	return &Service{pipeline: pipeline, store: store, notifier: n, cfg: cfg, index: index}, nil
}

func (s *Service) LoadRoutes(router *mux.Router) {
	router.StrictSlash(false)
	router.NotFoundHandler = http.HandlerFunc(handleNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	router.HandleFunc("/submit-form", s.HandleSubmitForm).Methods("POST")
	router.HandleFunc("/health", s.HandleHealth).Methods("GET")
	router.HandleFunc("/api/submissions", s.HandleListSubmissions).Methods("GET")
	router.HandleFunc("/test-email", s.HandleTestEmail).Methods("GET")
	router.HandleFunc("/", s.HandleIndex).Methods("GET")
}

// Handler wraps next with the middleware every response goes through,
// unmatched routes and CORS preflights included.
func (s *Service) Handler(next http.Handler) http.Handler {
	return securityHeadersMiddleware(requestIDMiddleware(recoverMiddleware(corsMiddleware(s.cfg.CORSAllowedOrigins)(next))))
}
