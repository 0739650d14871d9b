package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sadopc/duweb/internal/model"
)

// Mode selects how subdirectory sizes are accumulated.
type Mode string

const (
	// ModeSequential walks one directory at a time.
	ModeSequential Mode = "sequential"
	// ModeParallel sizes sibling subtrees on a bounded set of goroutines.
	ModeParallel Mode = "parallel"
	// ModeFastwalk uses fastwalk for each subtree. Local filesystem only.
	ModeFastwalk Mode = "fastwalk"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeSequential, nil
	case ModeSequential, ModeParallel, ModeFastwalk:
		return m, nil
	default:
		return "", fmt.Errorf("unknown scan mode %q (want sequential, parallel or fastwalk)", s)
	}
}

// Options configures the scanner behavior.
type Options struct {
	// Mode selects the accumulator.
	Mode Mode
	// Concurrency bounds outstanding subtree walks in the parallel modes (0 = auto)
	Concurrency int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Mode:        ModeSequential,
		Concurrency: 0,
	}
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0) * 3
}

// FS is the read-only view of a filesystem the scanner walks.
type FS interface {
	// ReadDir lists the immediate children of name without following symlinks
	// for the children themselves.
	ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error)
	// Lstat describes name without following a final symlink.
	Lstat(name string) (fs.FileInfo, error)
	// Stat describes name, following symlinks.
	Stat(name string) (fs.FileInfo, error)
	// Abs returns an absolute form of name. ".." elements are kept so that
	// EvalSymlinks can resolve them against the real directory.
	Abs(name string) (string, error)
	// EvalSymlinks returns name with all symlinks resolved.
	EvalSymlinks(name string) (string, error)
	// Readlink returns the destination of the symbolic link name.
	Readlink(name string) (string, error)
	// Join joins path elements using the filesystem's separator.
	Join(elem ...string) string
}

// LocalFS is the host filesystem.
type LocalFS struct{}

func (LocalFS) ReadDir(_ context.Context, name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (LocalFS) Lstat(name string) (fs.FileInfo, error)   { return os.Lstat(name) }
func (LocalFS) Stat(name string) (fs.FileInfo, error)    { return os.Stat(name) }
func (LocalFS) EvalSymlinks(name string) (string, error) { return filepath.EvalSymlinks(name) }
func (LocalFS) Readlink(name string) (string, error)     { return os.Readlink(name) }
func (LocalFS) Join(elem ...string) string               { return filepath.Join(elem...) }

// Abs prefixes relative names with the working directory. Unlike
// filepath.Abs it does not Clean, so "link/.." still names the parent of
// the link's target.
func (LocalFS) Abs(name string) (string, error) {
	if runtime.GOOS == "windows" {
		// Drive-relative and rooted forms need the per-drive directory.
		return filepath.Abs(name)
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if name == "" || name == "." {
		return wd, nil
	}
	return wd + string(filepath.Separator) + name, nil
}

// SizeAccumulator sums the apparent size of every regular file below a
// directory.
//
// Failure to list path itself is returned as a *ScanError. Failures on
// anything below it are logged to sink and skipped. Context errors abort the
// whole walk and are returned unchanged.
type SizeAccumulator interface {
	ComputeSize(ctx context.Context, path string, sink *model.LogSink) (uint64, error)
}

// newAccumulator builds the accumulator for opts, recording into c.
func newAccumulator(fsys FS, opts Options, c *counters) (SizeAccumulator, error) {
	switch opts.Mode {
	case ModeSequential, "":
		return &sequentialAccumulator{fs: fsys, stats: c}, nil
	case ModeParallel:
		return &parallelAccumulator{
			fs:    fsys,
			stats: c,
			sem:   make(chan struct{}, opts.concurrency()),
		}, nil
	case ModeFastwalk:
		if _, ok := fsys.(LocalFS); !ok {
			return nil, fmt.Errorf("scan mode %q requires the local filesystem", ModeFastwalk)
		}
		return &fastwalkAccumulator{stats: c, workers: opts.concurrency()}, nil
	default:
		return nil, fmt.Errorf("unknown scan mode %q", opts.Mode)
	}
}
