package server

import (
	"context"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/gorilla/mux"
)

// apiFunc is the signature of every route handler. A returned error is
// written as a JSON error body with a status derived from its cause.
type apiFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error

type route struct {
	method  string
	path    string
	handler apiFunc
}

func (s *Server) routes() []route {
	return []route{
		{http.MethodGet, "/", s.getIndex},
		{http.MethodGet, "/analyze", s.getAnalyze},
		{http.MethodGet, "/healthz", s.getHealthz},
	}
}

func (s *Server) createMux() *mux.Router {
	m := mux.NewRouter()
	for _, r := range s.routes() {
		m.Path(r.path).Methods(r.method, http.MethodHead).Handler(s.makeHTTPHandler(r.handler))
	}

	m.NotFoundHandler = s.makeHTTPHandler(func(context.Context, http.ResponseWriter, *http.Request, map[string]string) error {
		return &requestError{msg: "page not found", cause: errdefs.ErrNotFound}
	})
	m.MethodNotAllowedHandler = s.makeHTTPHandler(func(context.Context, http.ResponseWriter, *http.Request, map[string]string) error {
		return errMethodNotAllowed
	})
	return m
}

func (s *Server) makeHTTPHandler(handler apiFunc) http.Handler {
	handler = chain(handler, recoverMiddleware, requestLogMiddleware)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := handler(r.Context(), w, r, mux.Vars(r)); err != nil {
			writeError(r.Context(), w, err)
		}
	})
}
