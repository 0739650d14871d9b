package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/duweb/internal/model"
	"github.com/sadopc/duweb/internal/ops"
	"github.com/sadopc/duweb/internal/scanner"
)

func newScanCommand() *cobra.Command {
	var (
		eng     engineOptions
		out     = printOptions{output: outputTable}
		export  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan [path | user@host [remote-path]]",
		Short: "Scan a directory once and print the report",
		Long: heredoc.Doc(`
			Scan a directory once and print one row per immediate child, largest
			first. Entries that could not be sized are listed last with the cause.

			The command exits with status 1 when the directory itself cannot be
			resolved or listed.
		`),
		Example: heredoc.Doc(`
			duweb scan .
			duweb scan --mode fastwalk -j 32 /var
			duweb scan --output json /srv > report.json
			duweb scan --export scan.json /home
			duweb scan alice@192.168.1.10 /var/log
		`),
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			opts, err := eng.scannerOptions()
			if err != nil {
				return err
			}
			target, err := resolveScanTarget(args, eng.sshTarget)
			if err != nil {
				return err
			}
			if target.Remote {
				eng.sshTarget = target.SSHDestination
			}

			ctx := cmd.Context()
			fsys, closeFS, err := eng.openFS(ctx)
			if err != nil {
				return err
			}
			defer closeFS()

			sc, err := scanner.New(fsys, opts)
			if err != nil {
				return err
			}

			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			stderr := cmd.ErrOrStderr()
			progress := out.output == outputTable && export == "" && isTerminal(stderr)
			if progress {
				fmt.Fprintf(stderr, "\r\033[2KScanning %s...", target.Path())
			}
			result, err := sc.Scan(ctx, target.Path(), model.NewLogSink(log.G(ctx)))
			if progress {
				fmt.Fprint(stderr, "\r\033[2K\r")
			}
			if err != nil {
				return fmt.Errorf("scan %s: %w", target.Path(), err)
			}

			if export != "" {
				if err := ops.ExportJSON(result, export, version); err != nil {
					return fmt.Errorf("export error: %w", err)
				}
				if export != "-" {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", export)
				}
				return nil
			}
			return printResult(cmd.OutOrStdout(), result, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out.output, "output", "o", outputTable, "Output format: table or json")
	flags.BoolVar(&out.showLogs, "show-logs", false, "Print the scan log after the table")
	flags.IntVar(&out.width, "width", 0, "Table width (0 = terminal width)")
	flags.StringVar(&export, "export", "", "Save the report to a file instead of printing it (use '-' for stdout)")
	flags.DurationVar(&timeout, "timeout", 0, "Abort the scan after this long (0 = no limit)")
	eng.addFlags(flags)
	return cmd
}
