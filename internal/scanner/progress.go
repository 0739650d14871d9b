package scanner

import (
	"sync/atomic"
	"time"

	"github.com/sadopc/duweb/internal/model"
)

// counters tracks traversal progress for one scan.
type counters struct {
	files   atomic.Int64
	dirs    atomic.Int64
	skipped atomic.Int64
}

func (c *counters) snapshot(mode Mode, elapsed time.Duration) model.Stats {
	return model.Stats{
		FilesVisited: c.files.Load(),
		DirsVisited:  c.dirs.Load(),
		Skipped:      c.skipped.Load(),
		Mode:         string(mode),
		Elapsed:      elapsed,
	}
}
