package model

import (
	"encoding/json"
	"fmt"

	"github.com/sadopc/duweb/internal/util"
)

// Wire format of an /analyze success body:
//
//	{"path":"/srv","total_items_in_dir":2,"total_scan_size":2048,
//	 "human_readable_total_scan_size":"2 KB","scan_errors":0,
//	 "results":[{"name":"a","path":"/srv/a","size":2048,
//	             "human_readable_size":"2 KB","type":"file","error":null}],
//	 "logs":["INFO: ..."]}

type wireEntry struct {
	Name              string  `json:"name"`
	Path              string  `json:"path"`
	Size              *uint64 `json:"size"`
	HumanReadableSize string  `json:"human_readable_size"`
	Type              string  `json:"type"`
	Error             *string `json:"error"`
}

type wireResult struct {
	Path                       string           `json:"path"`
	TotalItemsInDir            int              `json:"total_items_in_dir"`
	TotalScanSize              uint64           `json:"total_scan_size"`
	HumanReadableTotalScanSize string           `json:"human_readable_total_scan_size"`
	ScanErrors                 int              `json:"scan_errors"`
	Results                    []DirEntryReport `json:"results"`
	Logs                       []string         `json:"logs"`
}

// SizeLabel returns the human-readable size shown for the entry. Failed
// entries get a label naming the cause.
func (e DirEntryReport) SizeLabel() string {
	if e.Size != nil {
		return util.FormatSize(*e.Size)
	}
	switch e.ErrorKind {
	case ErrPermissionDenied:
		return "[Permission Denied]"
	case ErrPathNotFound, ErrVanished:
		return "[Not Found]"
	case ErrOS, ErrNotADirectory:
		return "[Access Error]"
	default:
		return util.FormatOptionalSize(nil)
	}
}

func (e DirEntryReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEntry{
		Name:              e.Name,
		Path:              e.Path,
		Size:              e.Size,
		HumanReadableSize: e.SizeLabel(),
		Type:              e.Kind.String(),
		Error:             e.Error,
	})
}

func (e *DirEntryReport) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = DirEntryReport{
		Name:      w.Name,
		Path:      w.Path,
		Kind:      ParseEntryKind(w.Type),
		Size:      w.Size,
		Error:     w.Error,
		ErrorKind: errorKindFromLabel(w.Size, w.HumanReadableSize, w.Error),
	}
	return nil
}

func (r ScanResult) MarshalJSON() ([]byte, error) {
	results := r.Results
	if results == nil {
		results = []DirEntryReport{}
	}
	logs := r.Logs
	if logs == nil {
		logs = []string{}
	}
	return json.Marshal(wireResult{
		Path:                       r.Path,
		TotalItemsInDir:            r.TotalItems,
		TotalScanSize:              r.TotalSize,
		HumanReadableTotalScanSize: util.FormatSize(r.TotalSize),
		ScanErrors:                 r.ScanErrors,
		Results:                    results,
		Logs:                       logs,
	})
}

func (r *ScanResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Path == "" {
		return fmt.Errorf("report has no path")
	}
	*r = ScanResult{
		Path:       w.Path,
		TotalItems: w.TotalItemsInDir,
		TotalSize:  w.TotalScanSize,
		ScanErrors: w.ScanErrors,
		Results:    w.Results,
		Logs:       w.Logs,
	}
	return nil
}

// errorKindFromLabel recovers the error cause of an imported entry from the
// size label it was serialized with.
func errorKindFromLabel(size *uint64, label string, errMsg *string) ErrorKind {
	if size != nil || errMsg == nil {
		return ErrNone
	}
	switch label {
	case "[Permission Denied]":
		return ErrPermissionDenied
	case "[Not Found]":
		return ErrVanished
	default:
		return ErrOS
	}
}
