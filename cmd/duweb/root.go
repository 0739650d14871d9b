package main

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/containerd/log"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultWidth = 80

type globalOptions struct {
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	var g globalOptions

	cmd := &cobra.Command{
		Use:   "duweb",
		Short: "Disk usage analyzer with an HTTP API",
		Long: heredoc.Doc(`
			duweb measures how much space the immediate children of a directory
			take up, recursing into every subdirectory. Permission errors, vanished
			entries and other per-item failures are recorded on the affected entry
			and never abort the scan.

			Run it as an HTTP service with "duweb serve" or once from the terminal
			with "duweb scan". Saved reports can be viewed again with "duweb show".
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(cmd, g)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (default info for serve, warn otherwise)")
	flags.StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		newServeCommand(),
		newScanCommand(),
		newShowCommand(),
		newVersionCommand(),
	)
	return cmd
}

func configureLogging(cmd *cobra.Command, g globalOptions) error {
	level := g.logLevel
	if level == "" {
		level = "warn"
		if cmd.Name() == "serve" {
			level = "info"
		}
	}
	if _, err := logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if err := log.SetLevel(level); err != nil {
		return err
	}

	switch g.logFormat {
	case "text":
		if err := log.SetFormat(log.TextFormat); err != nil {
			return err
		}
	case "json":
		if err := log.SetFormat(log.JSONFormat); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid --log-format %q: must be text or json", g.logFormat)
	}

	logrus.SetOutput(cmd.ErrOrStderr())
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "duweb %s\n", version)
			return err
		},
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// terminalWidth returns override when set, the width of w when it is a
// terminal, and defaultWidth otherwise.
func terminalWidth(w io.Writer, override int) int {
	if override > 0 {
		return override
	}
	if f, ok := w.(*os.File); ok && isTerminal(w) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}
