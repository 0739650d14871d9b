package ops

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/duweb/internal/model"
)

func sampleResult(files map[string]uint64) *model.ScanResult {
	r := &model.ScanResult{Path: "/root", Logs: []string{"INFO: Starting scan of: /root"}}
	for name, size := range files {
		r.Results = append(r.Results, model.DirEntryReport{
			Name: name,
			Path: "/root/" + name,
			Kind: model.KindFile,
			Size: model.SizePtr(size),
		})
	}
	r.Finalize()
	return r
}

func TestExportJSON_Stdout(t *testing.T) {
	result := sampleResult(map[string]uint64{"file.txt": 12})

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	os.Stdout = w

	exportErr := ExportJSON(result, "-", "test-version")
	closeErr := w.Close()
	os.Stdout = oldStdout

	if exportErr != nil {
		t.Fatalf("ExportJSON returned error: %v", exportErr)
	}
	if closeErr != nil {
		t.Fatalf("closing pipe writer failed: %v", closeErr)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	var got struct {
		Progname string         `json:"progname"`
		Progver  string         `json:"progver"`
		Report   map[string]any `json:"report"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("export output is not valid JSON: %v\n%s", err, data)
	}
	if got.Progname != "duweb" || got.Progver != "test-version" {
		t.Fatalf("unexpected header: %+v", got)
	}
	if got.Report["human_readable_total_scan_size"] != "12 B" {
		t.Fatalf("unexpected report body: %v", got.Report)
	}
}

func TestExportJSON_AtomicNoPartialFile(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "output.json")

	if err := ExportJSON(sampleResult(map[string]uint64{"a.txt": 1}), target, "test"); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}

	reimported, header, err := ImportJSON(target)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if reimported.TotalSize != 1 {
		t.Fatalf("expected size 1, got %d", reimported.TotalSize)
	}
	if header.Progname != "duweb" || header.Timestamp == 0 {
		t.Fatalf("unexpected header: %+v", header)
	}
}

func TestExportJSON_MissingDirectoryFails(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nope", "out.json")
	if err := ExportJSON(sampleResult(nil), target, "test"); err == nil {
		t.Fatal("expected export into a missing directory to fail")
	}
}

func TestExportJSON_OverwriteExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")

	if err := ExportJSON(sampleResult(map[string]uint64{"a.txt": 1}), path, "test"); err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if err := ExportJSON(sampleResult(map[string]uint64{"b.txt": 7}), path, "test"); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	imported, _, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported.TotalSize != 7 {
		t.Fatalf("expected overwritten export size 7, got %d", imported.TotalSize)
	}
	if len(imported.Results) != 1 || imported.Results[0].Name != "b.txt" {
		t.Fatalf("expected overwritten export to contain b.txt, got %+v", imported.Results)
	}
}

func TestExportJSON_PreservesFailedEntries(t *testing.T) {
	result := sampleResult(map[string]uint64{"ok": 3})
	result.Results = append(result.Results, model.DirEntryReport{
		Name:      "locked",
		Path:      "/root/locked",
		Kind:      model.KindDirectory,
		Error:     model.StringPtr("Permission Denied"),
		ErrorKind: model.ErrPermissionDenied,
	})
	result.Finalize()

	path := filepath.Join(t.TempDir(), "errs.json")
	if err := ExportJSON(result, path, "test"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"human_readable_size": "[Permission Denied]"`) {
		t.Fatalf("expected error label in export: %s", data)
	}

	imported, _, err := ImportJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	last := imported.Results[len(imported.Results)-1]
	if last.Name != "locked" || last.ErrorKind != model.ErrPermissionDenied || imported.ScanErrors != 1 {
		t.Fatalf("unexpected failed entry after import: %+v", last)
	}
}
