package scanner

import (
	"context"
	"io/fs"
	"sync"

	"github.com/sadopc/duweb/internal/model"
)

// parallelAccumulator sizes subdirectories on goroutines bounded by sem.
//
// Each subdirectory gets a child log segment opened in listing order, so the
// flattened log matches the sequential walk line for line.
type parallelAccumulator struct {
	fs    FS
	stats *counters
	sem   chan struct{}
}

func (a *parallelAccumulator) ComputeSize(ctx context.Context, dir string, sink *model.LogSink) (uint64, error) {
	entries, err := listBase(ctx, a.fs, dir, sink)
	if err != nil {
		return 0, err
	}
	a.stats.dirs.Add(1)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total uint64
		fatal error
	)
	collect := func(n uint64, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if fatal == nil {
				fatal = err
			}
			return
		}
		total = saturatingAdd(total, n)
	}

	// Run subdirectory walks with bounded goroutines.
	// If all workers are busy, walk synchronously in the current goroutine
	// instead of spawning blocked goroutines.
	spawn := func(path string, entry fs.DirEntry, childSink *model.LogSink) {
		select {
		case a.sem <- struct{}{}:
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-a.sem }()
				collect(sizeChild(ctx, path, entry, a.stats, childSink, a.ComputeSize))
			}()
		default:
			collect(sizeChild(ctx, path, entry, a.stats, childSink, a.ComputeSize))
		}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			collect(0, err)
			break
		}
		path := a.fs.Join(dir, entry.Name())
		if entry.IsDir() {
			spawn(path, entry, sink.Child())
			continue
		}
		collect(sizeChild(ctx, path, entry, a.stats, sink, a.ComputeSize))
	}
	wg.Wait()

	if fatal != nil {
		return 0, fatal
	}
	return total, nil
}
