package scanner

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/duweb/internal/model"
	"github.com/sadopc/duweb/internal/util"
)

// Scanner lists one directory and reports every immediate child with its
// kind and size. Subdirectories are sized recursively by the accumulator
// selected in Options.
//
// A Scanner is stateless between calls and safe for concurrent use.
type Scanner struct {
	fs   FS
	opts Options
}

// New creates a scanner over fsys. It fails when opts names an unknown mode
// or one fsys cannot serve.
func New(fsys FS, opts Options) (*Scanner, error) {
	if opts.Mode == "" {
		opts.Mode = ModeSequential
	}
	if _, err := newAccumulator(fsys, opts, &counters{}); err != nil {
		return nil, err
	}
	return &Scanner{fs: fsys, opts: opts}, nil
}

// Options returns the options the scanner was built with.
func (s *Scanner) Options() Options { return s.opts }

// ComputeSize sums the apparent size of all regular files below dir.
func (s *Scanner) ComputeSize(ctx context.Context, dir string, sink *model.LogSink) (uint64, error) {
	acc, err := newAccumulator(s.fs, s.opts, &counters{})
	if err != nil {
		return 0, err
	}
	return acc.ComputeSize(ctx, dir, sink)
}

// Scan resolves path, lists it and reports each child.
//
// Failures to resolve, stat or list path itself are returned as *ScanError
// and logged to sink as errors. Failures on individual children are recorded
// on their report entries instead. Context cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context, path string, sink *model.LogSink) (*model.ScanResult, error) {
	start := time.Now()
	stats := &counters{}
	acc, err := newAccumulator(s.fs, s.opts, stats)
	if err != nil {
		return nil, err
	}

	root, err := s.resolveRoot(path, sink)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.fs.ReadDir(ctx, root)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		serr := newScanError(OpList, root, err)
		logListFailure(sink, serr)
		return nil, serr
	}
	stats.dirs.Add(1)
	sink.Infof("Starting scan of: %s", root)

	result := &model.ScanResult{
		Path:    root,
		Results: make([]model.DirEntryReport, 0, len(entries)),
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report, err := s.scanEntry(ctx, acc, stats, root, entry, sink)
		if err != nil {
			return nil, err
		}
		result.Results = append(result.Results, report)
	}
	result.Finalize()
	result.Stats = stats.snapshot(s.opts.Mode, time.Since(start))

	sink.Infof("Analysis complete. Items: %d. Total Size: %s. Item Errors: %d.",
		result.TotalItems, util.FormatSize(result.TotalSize), result.ScanErrors)
	result.Logs = sink.Lines()
	return result, nil
}

// resolveRoot makes path absolute, resolves symlinks where the target exists
// and checks that the result is a directory.
func (s *Scanner) resolveRoot(path string, sink *model.LogSink) (string, error) {
	abs, err := s.fs.Abs(path)
	if err != nil {
		serr := newScanError(OpResolve, path, err)
		sink.Errorf("Error resolving path '%s': %s", path, causeText(err))
		return "", serr
	}

	resolved, err := s.fs.EvalSymlinks(abs)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		resolved = abs
	default:
		serr := newScanError(OpResolve, abs, err)
		if serr.Kind == model.ErrPathNotFound {
			resolved = abs
			break
		}
		sink.Errorf("Error resolving path '%s': %s", path, causeText(err))
		return "", serr
	}
	sink.Infof("Resolved path to: %s", resolved)

	info, err := s.fs.Stat(resolved)
	if err != nil {
		serr := newScanError(OpStat, resolved, err)
		switch serr.Kind {
		case model.ErrPathNotFound:
			sink.Errorf("Path does not exist: %s", resolved)
		case model.ErrPermissionDenied:
			sink.Errorf("Permission denied accessing path: %s", resolved)
		default:
			sink.Errorf("Error accessing path '%s': %s", resolved, causeText(err))
		}
		return "", serr
	}
	if !info.IsDir() {
		sink.Errorf("Path is not a directory: %s", resolved)
		return "", &ScanError{Kind: model.ErrNotADirectory, Op: OpStat, Path: resolved, Err: errNotADirectory}
	}
	return resolved, nil
}

func logListFailure(sink *model.LogSink, serr *ScanError) {
	switch serr.Kind {
	case model.ErrPermissionDenied:
		sink.Errorf("Permission denied listing directory contents: %s", serr.Path)
	case model.ErrPathNotFound, model.ErrVanished:
		sink.Errorf("Directory not found while listing: %s", serr.Path)
	default:
		sink.Errorf("OS error listing directory %s: %s", serr.Path, causeText(serr.Err))
	}
}

// scanEntry builds the report for one child of root. Only context errors are
// returned.
func (s *Scanner) scanEntry(ctx context.Context, acc SizeAccumulator, c *counters, root string, entry fs.DirEntry, sink *model.LogSink) (model.DirEntryReport, error) {
	name := entry.Name()
	raw := s.fs.Join(root, name)
	report := model.DirEntryReport{
		Name: name,
		Path: s.displayPath(root, raw, name, sink),
		Kind: model.KindUnknown,
	}

	info, err := s.fs.Lstat(raw)
	if err != nil {
		c.skipped.Add(1)
		return failEntry(report, kindOf(entry.Type()), newScanError(OpLstat, raw, err), sink), nil
	}

	switch mode := info.Mode(); {
	case mode.IsRegular():
		c.files.Add(1)
		report.Kind = model.KindFile
		report.Size = model.SizePtr(nonNegative(info.Size()))
	case mode.IsDir():
		report.Kind = model.KindDirectory
		n, err := acc.ComputeSize(ctx, raw, sink)
		if err != nil {
			if isContextErr(err) {
				return report, err
			}
			c.skipped.Add(1)
			return failEntry(report, model.KindDirectory, asScanError(raw, err), sink), nil
		}
		report.Size = model.SizePtr(n)
	case mode&fs.ModeSymlink != 0:
		report.Kind = model.KindSymlink
		report.Size = model.SizePtr(0)
	default:
		report.Kind = model.KindOther
		report.Size = model.SizePtr(0)
	}
	return report, nil
}

// displayPath resolves symlinks in raw for display. A dangling link shows
// the absolute path it points to; any other failure keeps raw and logs a
// warning.
func (s *Scanner) displayPath(dir, raw, name string, sink *model.LogSink) string {
	resolved, err := s.fs.EvalSymlinks(raw)
	if err == nil {
		return resolved
	}
	if errors.Is(err, fs.ErrNotExist) {
		return s.danglingTarget(dir, raw)
	}
	sink.Warnf("Could not resolve path for entry '%s': %s", name, causeText(err))
	return raw
}

// danglingTarget returns where the link at raw points, relative targets
// taken from dir. Only the first hop is followed. When raw is not a
// readable link its absolute form is returned.
func (s *Scanner) danglingTarget(dir, raw string) string {
	target, err := s.fs.Readlink(raw)
	if err != nil {
		if abs, err := s.fs.Abs(raw); err == nil {
			return abs
		}
		return raw
	}
	if !isAbsPath(target) {
		target = s.fs.Join(dir, target)
	}
	return s.fs.Join(target)
}

// isAbsPath accepts both host and POSIX absolute forms, since targets read
// over SFTP always use forward slashes.
func isAbsPath(p string) bool {
	return strings.HasPrefix(p, "/") || filepath.IsAbs(p)
}

func failEntry(report model.DirEntryReport, kind model.EntryKind, serr *ScanError, sink *model.LogSink) model.DirEntryReport {
	report.Kind = kind
	report.Size = nil
	report.ErrorKind = serr.Kind
	report.Error = model.StringPtr(entryErrorText(serr))

	switch serr.Kind {
	case model.ErrPermissionDenied:
		sink.Warnf("Permission denied accessing item props: %s", serr.Path)
	case model.ErrPathNotFound, model.ErrVanished:
		sink.Warnf("Item vanished during scan: %s", serr.Path)
	default:
		sink.Warnf("OS Error accessing props of %s: %s", serr.Path, causeText(serr.Err))
	}
	return report
}

func kindOf(typ fs.FileMode) model.EntryKind {
	switch {
	case typ&fs.ModeIrregular != 0:
		return model.KindUnknown
	case typ.IsRegular():
		return model.KindFile
	case typ.IsDir():
		return model.KindDirectory
	case typ&fs.ModeSymlink != 0:
		return model.KindSymlink
	default:
		return model.KindOther
	}
}
