package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"
)

// middleware wraps an apiFunc.
type middleware func(handler apiFunc) apiFunc

// chain applies middlewares so the last one listed runs first.
func chain(handler apiFunc, mws ...middleware) apiFunc {
	for _, mw := range mws {
		handler = mw(handler)
	}
	return handler
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// requestLogMiddleware attaches a request-scoped logger to the context and
// logs each request once it has completed.
func requestLogMiddleware(handler apiFunc) apiFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
		start := time.Now()
		ctx = log.WithLogger(ctx, log.G(ctx).WithFields(log.Fields{
			"request_id": newRequestID(),
			"method":     r.Method,
			"uri":        r.RequestURI,
		}))
		log.G(ctx).Debugf("Calling %s %s", r.Method, r.RequestURI)

		rec := &statusRecorder{ResponseWriter: w}
		err := handler(ctx, rec, r, vars)

		status := rec.status
		if err != nil {
			status = statusFromError(err)
		}
		log.G(ctx).WithFields(log.Fields{
			"status":   status,
			"duration": time.Since(start).Round(time.Microsecond),
		}).Info("request completed")
		return err
	}
}

// recoverMiddleware turns a handler panic into an internal error.
func recoverMiddleware(handler apiFunc) apiFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) (retErr error) {
		defer func() {
			if p := recover(); p != nil {
				log.G(ctx).WithField("panic", p).Errorf("handler panicked\n%s", debug.Stack())
				retErr = &requestError{
					msg:   fmt.Sprintf("An unexpected server error occurred: %v", p),
					cause: errdefs.ErrInternal,
				}
			}
		}()
		return handler(ctx, w, r, vars)
	}
}

func newRequestID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
