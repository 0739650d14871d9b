package main

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/duweb/internal/server"
)

func newServeCommand() *cobra.Command {
	cfg := server.DefaultConfig()
	var eng engineOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the disk usage API and web page",
		Long: heredoc.Doc(`
			Serve the disk usage API.

			Endpoints:
			  GET /                     web page with a path field
			  GET /analyze?path=<dir>   JSON report of <dir>'s immediate children
			  GET /healthz              liveness probe

			Every /analyze request performs one complete scan. Paths containing a
			".." segment are logged as a warning and scanned anyway unless
			--reject-traversal is set.
		`),
		Example: heredoc.Doc(`
			duweb serve --addr :8080
			duweb serve --mode parallel -j 16 --scan-timeout 2m
			duweb serve --ssh alice@nas.local --ssh-batch
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := eng.scannerOptions()
			if err != nil {
				return err
			}
			cfg.Scanner = opts
			cfg.Version = version

			ctx := cmd.Context()
			fsys, closeFS, err := eng.openFS(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeFS(); err != nil {
					log.G(ctx).WithError(err).Warn("closing filesystem")
				}
			}()

			if eng.sshTarget != "" && !cmd.Flags().Changed("default-path") {
				if home, err := fsys.Abs("."); err == nil {
					cfg.DefaultPath = home
				}
			}

			srv, err := server.New(cfg, fsys)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flags.StringVar(&cfg.DefaultPath, "default-path", cfg.DefaultPath, "Path prefilled on the web page")
	flags.BoolVar(&cfg.RejectTraversal, "reject-traversal", false, "Reject paths containing '..' with 400 instead of only logging them")
	flags.DurationVar(&cfg.ScanTimeout, "scan-timeout", 0, "Abort a single scan after this long (0 = no limit)")
	eng.addFlags(flags)
	return cmd
}
