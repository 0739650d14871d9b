package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sadopc/duweb/internal/model"
	"github.com/sadopc/duweb/internal/render"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type printOptions struct {
	output   string
	showLogs bool
	width    int
}

func (o printOptions) validate() error {
	switch o.output {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("invalid output format %q: must be table or json", o.output)
	}
}

// printResult writes result to w as a table or as an /analyze JSON body.
func printResult(w io.Writer, result *model.ScanResult, o printOptions) error {
	if o.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	tbl := render.NewTable(w, terminalWidth(w, o.width))
	tbl.ShowLogs = o.showLogs
	return tbl.Render(w, result)
}
