package server

import (
	"os"
	"time"

	"github.com/sadopc/duweb/internal/scanner"
)

// Config holds the HTTP server settings.
type Config struct {
	// Addr is the listen address.
	Addr string
	// DefaultPath prefills the path field of the index page.
	DefaultPath string
	// RejectTraversal answers 400 to paths containing a ".." segment instead
	// of only logging a warning.
	RejectTraversal bool
	// ScanTimeout bounds a single /analyze scan (0 = no limit).
	ScanTimeout time.Duration
	// Scanner configures the scan engine.
	Scanner scanner.Options
	// Version is reported by the index page.
	Version string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/"
	}
	return Config{
		Addr:        "127.0.0.1:5000",
		DefaultPath: home,
		Scanner:     scanner.DefaultOptions(),
		Version:     "dev",
	}
}
