package model

import (
	"fmt"
	"time"
)

// EntryKind classifies an immediate child of a scanned directory.
type EntryKind uint8

const (
	KindUnknown EntryKind = iota
	KindFile
	KindDirectory
	KindSymlink
	KindOther
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseEntryKind is the inverse of EntryKind.String. Unrecognized values map
// to KindUnknown.
func ParseEntryKind(s string) EntryKind {
	switch s {
	case "file":
		return KindFile
	case "directory":
		return KindDirectory
	case "symlink":
		return KindSymlink
	case "other":
		return KindOther
	default:
		return KindUnknown
	}
}

// ErrorKind is the cause taxonomy shared by terminal scan errors and per-entry
// errors.
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota
	ErrPathNotFound
	ErrNotADirectory
	ErrPermissionDenied
	ErrVanished
	ErrOS
	ErrResolution
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrPathNotFound:
		return "path not found"
	case ErrNotADirectory:
		return "not a directory"
	case ErrPermissionDenied:
		return "permission denied"
	case ErrVanished:
		return "vanished"
	case ErrOS:
		return "os error"
	case ErrResolution:
		return "resolution failure"
	default:
		return "unknown"
	}
}

// DirEntryReport describes one immediate child of the scan root.
//
// Size is nil when the entry could not be sized; in that case Error is set.
type DirEntryReport struct {
	Name      string
	Path      string
	Kind      EntryKind
	Size      *uint64
	Error     *string
	ErrorKind ErrorKind
}

// Failed reports whether the entry carries an error.
func (e DirEntryReport) Failed() bool { return e.Error != nil }

// SizeOrNegative returns the entry size for ordering purposes, with -1 for
// entries that could not be sized.
func (e DirEntryReport) SizeOrNegative() int64 {
	if e.Size == nil {
		return -1
	}
	if *e.Size > uint64(maxInt64) {
		return maxInt64
	}
	return int64(*e.Size)
}

// Stats holds traversal counters for one scan. Never serialized on the wire.
type Stats struct {
	FilesVisited int64
	DirsVisited  int64
	Skipped      int64
	Mode         string
	Elapsed      time.Duration
}

// ItemsPerSecond returns the traversal rate.
func (s Stats) ItemsPerSecond() float64 {
	if s.Elapsed.Seconds() == 0 {
		return 0
	}
	return float64(s.FilesVisited+s.DirsVisited) / s.Elapsed.Seconds()
}

// ScanResult is the outcome of one scan of a directory's immediate children.
type ScanResult struct {
	Path       string
	TotalItems int
	TotalSize  uint64
	ScanErrors int
	Results    []DirEntryReport
	Logs       []string
	Stats      Stats
}

// Finalize orders the entries and recomputes the aggregate fields from them.
func (r *ScanResult) Finalize() {
	var total uint64
	errs := 0
	for _, e := range r.Results {
		if e.Size != nil {
			total = saturatingAddUint64(total, *e.Size)
		}
		if e.Failed() {
			errs++
		}
	}
	r.TotalSize = total
	r.ScanErrors = errs
	r.TotalItems = len(r.Results)
	SortEntries(r.Results, DefaultSort())
}

// Validate checks the aggregate invariants of a result built elsewhere, such
// as one read back from a saved report.
func (r *ScanResult) Validate() error {
	var total uint64
	errs := 0
	for _, e := range r.Results {
		if e.Size != nil {
			total = saturatingAddUint64(total, *e.Size)
		}
		if e.Failed() {
			errs++
		}
	}
	if total != r.TotalSize {
		return &InvariantError{Field: "total_scan_size", Want: total, Got: r.TotalSize}
	}
	if errs != r.ScanErrors {
		return &InvariantError{Field: "scan_errors", Want: uint64(errs), Got: uint64(r.ScanErrors)}
	}
	if len(r.Results) != r.TotalItems {
		return &InvariantError{Field: "total_items_in_dir", Want: uint64(len(r.Results)), Got: uint64(r.TotalItems)}
	}
	return nil
}

// InvariantError reports an aggregate field that disagrees with the entries.
type InvariantError struct {
	Field string
	Want  uint64
	Got   uint64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("inconsistent report: %s is %d, entries add up to %d", e.Field, e.Got, e.Want)
}

const maxInt64 = int64(^uint64(0) >> 1)

func saturatingAddUint64(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

// SizePtr returns a pointer to v.
func SizePtr(v uint64) *uint64 { return &v }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
