package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/containerd/log/logtest"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{errdefs.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", errdefs.ErrInvalidArgument), http.StatusBadRequest},
		{errdefs.ErrPermissionDenied, http.StatusForbidden},
		{errdefs.ErrInternal, http.StatusInternalServerError},
		{errdefs.ErrUnavailable, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{errMethodNotAllowed, http.StatusMethodNotAllowed},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Check(t, is.Equal(statusFromError(tc.err), tc.want), "%v", tc.err)
	}
}

func TestWriteError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(logtest.WithT(context.Background(), t), rec, &requestError{
		msg:   "Path does not exist: /x",
		path:  "/x",
		logs:  []string{"ERROR: Path does not exist: /x"},
		cause: errdefs.ErrNotFound,
	})

	assert.Equal(t, rec.Code, http.StatusNotFound)
	assert.Equal(t, rec.Body.String(),
		`{"error":"Path does not exist: /x","path":"/x","logs":["ERROR: Path does not exist: /x"]}`+"\n")
}

func TestWriteError_PlainErrorHasEmptyLogs(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(logtest.WithT(context.Background(), t), rec, errors.New("boom"))

	assert.Equal(t, rec.Code, http.StatusInternalServerError)
	assert.Equal(t, rec.Body.String(), `{"error":"boom","logs":[]}`+"\n")
}

func TestRecoverMiddleware(t *testing.T) {
	s := newTestServer(t, Config{}, nil)
	h := s.makeHTTPHandler(func(context.Context, http.ResponseWriter, *http.Request, map[string]string) error {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(logtest.WithT(context.Background(), t))
	h.ServeHTTP(rec, req)

	assert.Equal(t, rec.Code, http.StatusInternalServerError)
	assert.Check(t, is.Contains(rec.Body.String(), "An unexpected server error occurred: boom"))
}
