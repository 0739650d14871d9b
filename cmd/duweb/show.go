package main

import (
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/duweb/internal/model"
	"github.com/sadopc/duweb/internal/ops"
)

func newShowCommand() *cobra.Command {
	var (
		out     = printOptions{output: outputTable}
		sortBy  string
		reverse bool
		export  string
	)

	cmd := &cobra.Command{
		Use:   "show <report.json>",
		Short: "Print a saved report",
		Long: heredoc.Doc(`
			Print a report saved with "duweb scan --export" or the body of an
			/analyze response. Use '-' to read from stdin.

			The report totals are checked against its entries before printing.
		`),
		Example: heredoc.Doc(`
			duweb show scan.json
			duweb show --sort name scan.json
			curl -s 'localhost:5000/analyze?path=/srv' | duweb show -
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			field, ok := model.ParseSortField(sortBy)
			if !ok {
				return fmt.Errorf("invalid --sort %q: must be size or name", sortBy)
			}

			result, header, err := ops.ImportJSON(args[0])
			if err != nil {
				return fmt.Errorf("error importing: %w", err)
			}

			sortCfg := model.SortConfig{Field: field, Order: model.SortDesc}
			if field == model.SortByName {
				sortCfg.Order = model.SortAsc
			}
			if reverse {
				if sortCfg.Order == model.SortAsc {
					sortCfg.Order = model.SortDesc
				} else {
					sortCfg.Order = model.SortAsc
				}
			}
			model.SortEntries(result.Results, sortCfg)

			if export != "" {
				if err := ops.ExportJSON(result, export, version); err != nil {
					return fmt.Errorf("export error: %w", err)
				}
				if export != "-" {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", export)
				}
				return nil
			}

			if header.Progname != "" && out.output == outputTable {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s report, saved %s\n",
					header.Progname, header.Progver, humanize.Time(time.Unix(header.Timestamp, 0)))
			}
			return printResult(cmd.OutOrStdout(), result, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out.output, "output", "o", outputTable, "Output format: table or json")
	flags.BoolVar(&out.showLogs, "show-logs", false, "Print the scan log after the table")
	flags.IntVar(&out.width, "width", 0, "Table width (0 = terminal width)")
	flags.StringVar(&sortBy, "sort", "size", "Sort entries by size or name")
	flags.BoolVarP(&reverse, "reverse", "r", false, "Reverse the sort order")
	flags.StringVar(&export, "export", "", "Re-export the report to a file (use '-' for stdout)")
	return cmd
}
