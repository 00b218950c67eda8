// Package respond writes the JSON envelope used by every HTTP endpoint and
// translates typed application errors into status codes.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"streamline/backend/internal/platform/apperr"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// Envelope is the response body shape for success and failure.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	// Detail carries the cause of internal errors outside production.
	Detail string `json:"detail,omitempty"`
}

// ErrorWriter renders err as a response. Middleware takes one so it shares the
// handlers' envelope without importing them.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// JSON writes v with status and disables caching.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a success envelope.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{StatusCode: status, Success: true, Message: message, Data: data})
}

// Errors returns an ErrorWriter. Kinds other than Internal expose their
// message; Internal errors always say "internal server error" and add the
// cause as detail only when production is false.
func Errors(log *slog.Logger, production bool) ErrorWriter {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request, err error) {
		appErr := apperr.As(err)
		status := appErr.HTTPStatus()
		env := Envelope{StatusCode: status, Message: appErr.Message}
		if appErr.Kind == apperr.KindInternal {
			log.ErrorContext(r.Context(), "http.request.failed",
				"method", r.Method, "path", r.URL.Path, "err", err)
			if !production && appErr.Err != nil {
				env.Detail = appErr.Err.Error()
			}
		}
		JSON(w, status, env)
	}
}

// Decode reads a single JSON object from r into dst. Unknown fields are
// rejected. An empty body leaves dst untouched.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid request body")
	}
	return nil
}
