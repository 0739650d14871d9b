package scanner

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/sadopc/duweb/internal/model"
)

// fastwalkAccumulator sizes a local subtree with fastwalk's parallel walker.
// Warnings from inside the subtree are logged in completion order.
type fastwalkAccumulator struct {
	stats   *counters
	workers int
}

func (a *fastwalkAccumulator) ComputeSize(ctx context.Context, dir string, sink *model.LogSink) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var total atomic.Uint64
	conf := fastwalk.Config{Follow: false, NumWorkers: a.workers}
	walkErr := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// The root's own listing error arrives here too; it is fatal.
			if path == dir {
				return err
			}
			logSkippedDir(sink, newScanError(OpList, path, err))
			a.stats.skipped.Add(1)
			return nil
		}

		switch typ := d.Type(); {
		case typ.IsDir():
			a.stats.dirs.Add(1)
		case typ.IsRegular():
			info, err := d.Info()
			if err != nil {
				sink.Warnf("Could not get size for file: %s (%s)", path, causeText(err))
				a.stats.skipped.Add(1)
				return nil
			}
			a.stats.files.Add(1)
			addSaturating(&total, nonNegative(info.Size()))
		}
		return nil
	})
	if walkErr != nil {
		if isContextErr(walkErr) {
			return 0, walkErr
		}
		serr := newScanError(OpList, dir, walkErr)
		logBaseFailure(sink, serr)
		return 0, serr
	}
	return total.Load(), nil
}

func addSaturating(v *atomic.Uint64, n uint64) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, saturatingAdd(old, n)) {
			return
		}
	}
}
