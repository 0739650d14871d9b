package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/duweb/internal/model"
	"github.com/sadopc/duweb/internal/scanner"
)

// getAnalyze scans the directory named by the "path" query parameter.
func (s *Server) getAnalyze(ctx context.Context, w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	pathParam := r.URL.Query().Get("path")
	ctx = log.WithLogger(ctx, log.G(ctx).WithField("path", pathParam))
	sink := model.NewLogSink(log.G(ctx))

	sink.Infof("Analysis request for: '%s'", pathParam)
	if pathParam == "" {
		sink.Errorf("Missing 'path' parameter")
		return &requestError{
			msg:   "Missing 'path' parameter",
			logs:  sink.Lines(),
			cause: errdefs.ErrInvalidArgument,
		}
	}

	if hasTraversal(pathParam) {
		sink.Warnf("Potential path traversal attempt detected in input: %s", pathParam)
		if s.cfg.RejectTraversal {
			return &requestError{
				msg:   "Invalid path specified (contains '..').",
				path:  pathParam,
				logs:  sink.Lines(),
				cause: errdefs.ErrInvalidArgument,
			}
		}
	}

	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	result, err := s.scanner.Scan(ctx, pathParam, sink)
	if err != nil {
		return scanFailure(pathParam, err, sink)
	}

	log.G(ctx).WithFields(log.Fields{
		"items":  humanize.Comma(int64(result.TotalItems)),
		"errors": result.ScanErrors,
		"files":  humanize.Comma(result.Stats.FilesVisited),
		"dirs":   humanize.Comma(result.Stats.DirsVisited),
		"mode":   result.Stats.Mode,
	}).Debug("scan finished")

	return writeJSON(w, http.StatusOK, result)
}

// scanFailure builds the error response for a scan that did not produce a
// result.
func scanFailure(requested string, err error, sink *model.LogSink) error {
	var serr *scanner.ScanError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sink.Errorf("Scan timed out: %s", requested)
		return &requestError{msg: "Scan timed out", path: requested, logs: sink.Lines(), cause: err}
	case errors.Is(err, context.Canceled):
		sink.Errorf("Scan canceled: %s", requested)
		return &requestError{msg: "Scan canceled", path: requested, logs: sink.Lines(), cause: err}
	case errors.As(err, &serr):
		return &requestError{
			msg:   scanErrorMessage(requested, serr),
			path:  cmp.Or(serr.Path, requested),
			logs:  sink.Lines(),
			cause: serr,
		}
	default:
		sink.Errorf("Unexpected error processing path '%s'. Error: %v", requested, err)
		return &requestError{
			msg:   fmt.Sprintf("An unexpected server error occurred processing the path: %v", err),
			path:  requested,
			logs:  sink.Lines(),
			cause: err,
		}
	}
}

func scanErrorMessage(requested string, serr *scanner.ScanError) string {
	if serr.Op == scanner.OpList {
		switch serr.Kind {
		case model.ErrPermissionDenied:
			return fmt.Sprintf("Permission denied listing directory: %s. Cannot list contents.", serr.Path)
		case model.ErrPathNotFound, model.ErrVanished:
			return fmt.Sprintf("Directory not found (vanished?): %s", serr.Path)
		default:
			return fmt.Sprintf("OS Error listing directory %s: %s", serr.Path, serr.Cause())
		}
	}

	switch serr.Kind {
	case model.ErrPathNotFound, model.ErrVanished:
		return fmt.Sprintf("Path does not exist: %s", serr.Path)
	case model.ErrNotADirectory:
		return fmt.Sprintf("Path is not a directory: %s", serr.Path)
	case model.ErrPermissionDenied:
		return fmt.Sprintf("Permission denied accessing path '%s'. Check server permissions.", requested)
	default:
		return fmt.Sprintf("Invalid path or OS error processing path: %s", serr.Cause())
	}
}

// hasTraversal reports whether p contains a ".." path segment.
func hasTraversal(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// getHealthz reports liveness.
func (s *Server) getHealthz(_ context.Context, w http.ResponseWriter, _ *http.Request, _ map[string]string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte("ok\n"))
	return err
}
