package ops

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sadopc/duweb/internal/model"
)

// Saved report format: the /analyze success body wrapped with a header.
//
//	{"progname":"duweb","progver":"1.0","timestamp":1234567890,
//	 "report":{"path":"/srv","total_items_in_dir":1, ... ,"logs":[...]}}

const progname = "duweb"

// Header describes who wrote a saved report and when.
type Header struct {
	Progname  string `json:"progname"`
	Progver   string `json:"progver"`
	Timestamp int64  `json:"timestamp"`
}

type envelope struct {
	Header
	Report *model.ScanResult `json:"report"`
}

// ExportJSON writes result as a saved report.
// For file targets (not stdout), writes to a temp file first and atomically
// renames on success, so a partial file is never left behind on error.
func ExportJSON(result *model.ScanResult, path string, version string) (retErr error) {
	if result == nil {
		return fmt.Errorf("nothing to export")
	}
	if path == "-" {
		return exportToWriter(result, os.Stdout, version)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".duweb-export-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := exportToWriter(result, tmp, version); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// On Windows, Rename cannot replace an existing destination.
		if runtime.GOOS != "windows" {
			return err
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("cannot replace export file %s: %w", path, err)
		}
		if err := os.Rename(tmpPath, path); err != nil {
			return err
		}
	}
	return nil
}

func exportToWriter(result *model.ScanResult, out io.Writer, version string) error {
	if version == "" {
		version = "dev"
	}
	bw := bufio.NewWriterSize(out, 64*1024)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	err := enc.Encode(envelope{
		Header: Header{
			Progname:  progname,
			Progver:   version,
			Timestamp: time.Now().Unix(),
		},
		Report: result,
	})
	if err != nil {
		return fmt.Errorf("cannot encode report: %w", err)
	}
	return bw.Flush()
}
