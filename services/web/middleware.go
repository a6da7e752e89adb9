package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
)

type contextKey string

const requestIDKey contextKey = "requestId"

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
}

// securityHeadersMiddleware sets the fixed security headers before the
// handler runs so they survive early WriteHeader calls.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware reuses a well-formed X-Request-ID from the caller or
// generates one, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if len(id) > maxRequestIDLength || !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware answers preflights itself, so it must sit inside
// securityHeadersMiddleware.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	opts := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	}
	if len(origins) > 0 {
		opts = append(opts, handlers.AllowedOrigins(origins))
	}
	return handlers.CORS(opts...)
}

// AccessLog records one structured line per request on the default slog
// logger, so access lines share the application's log format.
func AccessLog(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, logAccess)
}

func logAccess(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Info("http request",
		"method", p.Request.Method,
		"path", p.URL.RequestURI(),
		"status", p.StatusCode,
		"size", p.Size,
		"duration", time.Since(p.TimeStamp),
		"remote", p.Request.RemoteAddr,
		"userAgent", p.Request.UserAgent(),
	)
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic while handling request",
				"path", r.URL.Path,
				"requestId", reqID(r),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			writeErrorJSON(w, msgServerError, http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// reqID extracts the request ID from context (set by requestIDMiddleware).
func reqID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
