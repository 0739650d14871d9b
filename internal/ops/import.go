package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sadopc/duweb/internal/model"
)

// ImportJSON reads a saved report from path ("-" for stdin). Both the
// wrapped form written by ExportJSON and a bare /analyze body are accepted;
// the returned Header is zero for the latter.
//
// The aggregates are checked against the entries, and entries are put back
// in report order.
func ImportJSON(path string) (*model.ScanResult, Header, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, Header{}, fmt.Errorf("cannot open import file: %w", err)
	}
	return decodeReport(data)
}

func decodeReport(data []byte) (*model.ScanResult, Header, error) {
	var probe struct {
		Header
		Report json.RawMessage `json:"report"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, Header{}, fmt.Errorf("invalid JSON: %w", err)
	}

	body := data
	if len(bytes.TrimSpace(probe.Report)) > 0 && !bytes.Equal(bytes.TrimSpace(probe.Report), []byte("null")) {
		body = probe.Report
	} else {
		probe.Header = Header{}
	}

	result := &model.ScanResult{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, Header{}, fmt.Errorf("invalid report: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, Header{}, err
	}
	model.SortEntries(result.Results, model.DefaultSort())
	return result, probe.Header, nil
}
