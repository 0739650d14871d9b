package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/containerd/log"
	"github.com/gorilla/mux"

	"github.com/sadopc/duweb/internal/scanner"
)

const shutdownTimeout = 10 * time.Second

// Server answers /analyze requests by scanning one directory per request.
type Server struct {
	cfg     Config
	scanner *scanner.Scanner
	router  *mux.Router
}

// New creates a server scanning fsys.
func New(cfg Config, fsys scanner.FS) (*Server, error) {
	sc, err := scanner.New(fsys, cfg.Scanner)
	if err != nil {
		return nil, fmt.Errorf("configure scanner: %w", err)
	}
	s := &Server{cfg: cfg, scanner: sc}
	s.router = s.createMux()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()

	log.G(ctx).WithField("addr", l.Addr().String()).Info("API listen")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.G(ctx).Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, l)
}
