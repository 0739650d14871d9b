package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"
)

var errMethodNotAllowed = errors.New("method not allowed")

// requestError carries the JSON error body of a failed request. Its status is
// derived from cause.
type requestError struct {
	msg   string
	path  string
	logs  []string
	cause error
}

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return e.cause }

type errorBody struct {
	Error string   `json:"error"`
	Path  string   `json:"path,omitempty"`
	Logs  []string `json:"logs"`
}

// statusFromError maps an error to an HTTP status code.
func statusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errdefs.IsPermissionDenied(err):
		return http.StatusForbidden
	case errdefs.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFromError(err)
	body := errorBody{Error: err.Error(), Logs: []string{}}

	var rerr *requestError
	if errors.As(err, &rerr) {
		body.Path = rerr.path
		if rerr.logs != nil {
			body.Logs = rerr.logs
		}
	}

	entry := log.G(ctx).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("handler for request returned an error")
	} else {
		entry.Debug("handler for request returned an error")
	}

	if err := writeJSON(w, status, body); err != nil {
		log.G(ctx).WithError(err).Warn("failed to write error response")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
