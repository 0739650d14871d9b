package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/sadopc/duweb/internal/remote"
	"github.com/sadopc/duweb/internal/scanner"
)

const defaultSSHPort = 22

// engineOptions are the flags shared by every command that scans.
type engineOptions struct {
	mode        string
	concurrency int

	sshTarget  string
	sshPort    int
	sshBatch   bool
	sshTimeout time.Duration
}

func (o *engineOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.mode, "mode", string(scanner.ModeSequential), "Subdirectory sizing: sequential, parallel or fastwalk")
	flags.IntVarP(&o.concurrency, "jobs", "j", 0, "Max concurrent subtree walks in parallel modes (0 = auto: 3x CPU cores)")
	flags.StringVar(&o.sshTarget, "ssh", "", "Scan a remote host over SFTP (user@host[:port])")
	flags.IntVar(&o.sshPort, "ssh-port", defaultSSHPort, "SSH port for remote scans")
	flags.BoolVar(&o.sshBatch, "ssh-batch", false, "Disable SSH password and host key prompts (key/agent auth only)")
	flags.DurationVar(&o.sshTimeout, "ssh-timeout", 15*time.Second, "SSH connection timeout")
}

func (o *engineOptions) scannerOptions() (scanner.Options, error) {
	mode, err := scanner.ParseMode(o.mode)
	if err != nil {
		return scanner.Options{}, err
	}
	if o.concurrency < 0 {
		return scanner.Options{}, fmt.Errorf("concurrency (-j) must be >= 0")
	}
	opts := scanner.DefaultOptions()
	opts.Mode = mode
	opts.Concurrency = o.concurrency
	return opts, nil
}

// openFS returns the filesystem to scan and a function releasing it.
func (o *engineOptions) openFS(ctx context.Context) (scanner.FS, func() error, error) {
	if o.sshTarget == "" {
		return scanner.LocalFS{}, func() error { return nil }, nil
	}
	if o.sshPort < 1 || o.sshPort > 65535 {
		return nil, nil, fmt.Errorf("ssh-port must be between 1 and 65535")
	}
	fsys, err := remote.Dial(ctx, remote.Config{
		Target:    o.sshTarget,
		Port:      o.sshPort,
		BatchMode: o.sshBatch,
		Timeout:   o.sshTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return fsys, fsys.Close, nil
}
