package scanner

import (
	"context"
	"io/fs"

	"github.com/sadopc/duweb/internal/model"
)

// sequentialAccumulator walks one directory at a time in listing order.
type sequentialAccumulator struct {
	fs    FS
	stats *counters
}

func (a *sequentialAccumulator) ComputeSize(ctx context.Context, dir string, sink *model.LogSink) (uint64, error) {
	entries, err := listBase(ctx, a.fs, dir, sink)
	if err != nil {
		return 0, err
	}
	a.stats.dirs.Add(1)

	var total uint64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := sizeChild(ctx, a.fs.Join(dir, entry.Name()), entry, a.stats, sink, a.ComputeSize)
		if err != nil {
			return 0, err
		}
		total = saturatingAdd(total, n)
	}
	return total, nil
}

// listBase lists the directory being sized. Its failure is fatal to the
// accumulation and is logged as an error.
func listBase(ctx context.Context, fsys FS, dir string, sink *model.LogSink) ([]fs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fsys.ReadDir(ctx, dir)
	if err == nil {
		return entries, nil
	}
	if isContextErr(err) {
		return nil, err
	}
	serr := newScanError(OpList, dir, err)
	logBaseFailure(sink, serr)
	return nil, serr
}

func logBaseFailure(sink *model.LogSink, serr *ScanError) {
	switch serr.Kind {
	case model.ErrPermissionDenied:
		sink.Errorf("Permission denied accessing base directory: %s", serr.Path)
	case model.ErrPathNotFound, model.ErrVanished:
		sink.Errorf("Base directory not found: %s", serr.Path)
	default:
		sink.Errorf("OS error scanning base directory %s: %s", serr.Path, causeText(serr.Err))
	}
}

func logSkippedDir(sink *model.LogSink, serr *ScanError) {
	switch serr.Kind {
	case model.ErrPermissionDenied:
		sink.Warnf("Permission denied scanning dir: %s", serr.Path)
	case model.ErrPathNotFound, model.ErrVanished:
		sink.Warnf("Directory not found during scan: %s", serr.Path)
	default:
		sink.Warnf("OS Error scanning dir %s: %s", serr.Path, causeText(serr.Err))
	}
}

type sizeFunc func(ctx context.Context, dir string, sink *model.LogSink) (uint64, error)

// sizeChild returns the contribution of one entry found below the directory
// being sized. Only context errors are returned; every other failure is
// logged and the entry counts as zero.
func sizeChild(ctx context.Context, path string, entry fs.DirEntry, c *counters, sink *model.LogSink, recurse sizeFunc) (uint64, error) {
	typ := entry.Type()
	if typ&fs.ModeIrregular != 0 {
		info, err := entry.Info()
		if err != nil {
			sink.Warnf("Cannot access type/stat for entry: %s (%s)", path, causeText(err))
			c.skipped.Add(1)
			return 0, nil
		}
		typ = info.Mode().Type()
	}

	switch {
	case typ.IsRegular():
		info, err := entry.Info()
		if err != nil {
			sink.Warnf("Could not get size for file: %s (%s)", path, causeText(err))
			c.skipped.Add(1)
			return 0, nil
		}
		c.files.Add(1)
		return nonNegative(info.Size()), nil
	case typ.IsDir():
		n, err := recurse(ctx, path, sink)
		if err == nil {
			return n, nil
		}
		if isContextErr(err) {
			return 0, err
		}
		logSkippedDir(sink, asScanError(path, err))
		c.skipped.Add(1)
		return 0, nil
	default:
		// Symlinks are never followed; devices, sockets and pipes hold no bytes.
		return 0, nil
	}
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
