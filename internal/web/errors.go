package web

// errors.go renders every handler error the same way: the technical error
// is logged with the request ID, and the client gets the mapped user
// message as an HTMX fragment, JSON or an HTML page depending on the
// request.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/scnpatch/internal/core"
	"github.com/JonMunkholm/scnpatch/internal/logging"
	"github.com/JonMunkholm/scnpatch/internal/scene"
	"github.com/JonMunkholm/scnpatch/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSceneTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoScene), errors.Is(err, core.ErrEmptyScene), errors.Is(err, errInvalidForm),
		errors.Is(err, scene.ErrInvalidBank), errors.Is(err, scene.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, scene.ErrMalformedRecord), errors.Is(err, scene.ErrUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyParses), errors.Is(err, core.ErrHistoryUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the user-facing form of it.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if errors.Is(err, core.ErrTooManyParses) {
		w.Header().Set("Retry-After", "5")
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		respondErrorJSON(w, msg, status)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON is true for /api routes and clients that ask for JSON.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
