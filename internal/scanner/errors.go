package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	"github.com/containerd/errdefs"

	"github.com/sadopc/duweb/internal/model"
)

// Operations recorded on a ScanError.
const (
	OpResolve = "resolve"
	OpStat    = "stat"
	OpList    = "list"
	OpLstat   = "lstat"
)

var errNotADirectory = errors.New("not a directory")

// ScanError is a classified filesystem failure.
//
// Besides the underlying OS error it unwraps to a containerd errdefs class
// (not found, invalid argument, permission denied, internal), so callers can
// test the cause with errdefs.Is* without knowing the taxonomy.
type ScanError struct {
	Kind model.ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, causeText(e.Err))
}

// Cause returns the underlying OS error text without the path decoration.
func (e *ScanError) Cause() string { return causeText(e.Err) }

func (e *ScanError) Unwrap() []error {
	return []error{e.Err, e.class()}
}

func (e *ScanError) class() error {
	switch e.Kind {
	case model.ErrPathNotFound, model.ErrVanished:
		return errdefs.ErrNotFound
	case model.ErrPermissionDenied:
		return errdefs.ErrPermissionDenied
	case model.ErrNotADirectory, model.ErrResolution:
		return errdefs.ErrInvalidArgument
	default:
		if e.Op == OpList {
			return errdefs.ErrInternal
		}
		return errdefs.ErrInvalidArgument
	}
}

// newScanError classifies err as it occurred during op on path.
func newScanError(op, path string, err error) *ScanError {
	return &ScanError{Kind: classify(op, err), Op: op, Path: path, Err: err}
}

func classify(op string, err error) model.ErrorKind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return model.ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		if op == OpList || op == OpLstat {
			return model.ErrVanished
		}
		return model.ErrPathNotFound
	case errors.Is(err, syscall.ENOTDIR) && (op == OpResolve || op == OpStat):
		// A path component is a regular file: the target does not exist.
		return model.ErrPathNotFound
	case errors.Is(err, errNotADirectory):
		return model.ErrNotADirectory
	case op == OpResolve:
		return model.ErrResolution
	default:
		return model.ErrOS
	}
}

// asScanError returns err as a *ScanError, classifying it as a listing failure
// of path when it is not one already.
func asScanError(path string, err error) *ScanError {
	var serr *ScanError
	if errors.As(err, &serr) {
		return serr
	}
	return newScanError(OpList, path, err)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// causeText strips the op/path decoration of *fs.PathError so messages do not
// repeat the path.
func causeText(err error) string {
	if err == nil {
		return ""
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

// entryErrorText is the error string recorded on a failed report entry.
func entryErrorText(serr *ScanError) string {
	switch serr.Kind {
	case model.ErrPermissionDenied:
		return "Permission Denied"
	case model.ErrPathNotFound, model.ErrVanished:
		return "Not Found"
	default:
		return "OS Error: " + causeText(serr.Err)
	}
}
