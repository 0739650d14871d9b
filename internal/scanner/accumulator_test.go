package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/duweb/internal/model"
)

func TestComputeSize_SkipsNestedFailures(t *testing.T) {
	fsys := newFakeFS("/r")
	fsys.file("/r/a", 5)
	fsys.file("/r/unreadable", 50).infoErr = fs.ErrPermission
	fsys.dir("/r/locked").listErr = fs.ErrPermission
	fsys.dir("/r/gone").listErr = fs.ErrNotExist
	fsys.dir("/r/io").listErr = errors.New("input/output error")
	fsys.dir("/r/ok")
	fsys.file("/r/ok/b", 6)

	sink := model.NewLogSink(nil)
	s := newScanner(t, fsys, DefaultOptions())
	got, err := s.ComputeSize(context.Background(), "/r", sink)
	if err != nil {
		t.Fatalf("ComputeSize: %v", err)
	}
	if got != 11 {
		t.Fatalf("size = %d, want 11", got)
	}

	lines := sink.Lines()
	for _, want := range []string{
		"WARN: Could not get size for file: /r/unreadable",
		"WARN: Permission denied scanning dir: /r/locked",
		"WARN: Directory not found during scan: /r/gone",
		"WARN: OS Error scanning dir /r/io: input/output error",
	} {
		if !hasLine(lines, "", want) {
			t.Fatalf("missing %q in %v", want, lines)
		}
	}
}

func TestComputeSize_BaseFailureIsFatal(t *testing.T) {
	fsys := newFakeFS("/r")
	fsys.nodes["/r"].listErr = fs.ErrPermission

	sink := model.NewLogSink(nil)
	_, err := newScanner(t, fsys, DefaultOptions()).ComputeSize(context.Background(), "/r", sink)

	var serr *ScanError
	if !errors.As(err, &serr) || serr.Kind != model.ErrPermissionDenied {
		t.Fatalf("expected permission ScanError, got %v", err)
	}
	if !hasLine(sink.Lines(), "ERROR: ", "Permission denied accessing base directory: /r") {
		t.Fatalf("missing error line in %v", sink.Lines())
	}
}

func TestComputeSize_IgnoresSymlinksAndSpecialFiles(t *testing.T) {
	fsys := newFakeFS("/r")
	fsys.file("/r/f", 3)
	fsys.add("/r/link", &fakeNode{mode: fs.ModeSymlink | 0o777, size: 1000})
	fsys.add("/r/sock", &fakeNode{mode: fs.ModeSocket, size: 1000})
	fsys.add("/r/pipe", &fakeNode{mode: fs.ModeNamedPipe, size: 1000})

	got, err := newScanner(t, fsys, DefaultOptions()).ComputeSize(context.Background(), "/r", model.NewLogSink(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Fatalf("size = %d, want 3", got)
	}
}

// deepFake builds a tree with failures spread over several subtrees.
func deepFake() *fakeFS {
	fsys := newFakeFS("/r")
	for i := 0; i < 6; i++ {
		d := fmt.Sprintf("/r/d%d", i)
		fsys.dir(d)
		fsys.file(d+"/f", int64(i+1))
		fsys.dir(d + "/locked").listErr = fs.ErrPermission
		fsys.dir(d + "/inner")
		fsys.file(d+"/inner/g", 10)
		fsys.dir(d + "/inner/gone").listErr = fs.ErrNotExist
		fsys.file(d+"/bad", 0).infoErr = errors.New("input/output error")
	}
	return fsys
}

func TestParallel_MatchesSequential(t *testing.T) {
	fsys := deepFake()

	seqSink := model.NewLogSink(nil)
	want, err := newScanner(t, fsys, Options{Mode: ModeSequential}).ComputeSize(context.Background(), "/r", seqSink)
	if err != nil {
		t.Fatal(err)
	}
	if want != 21+60 {
		t.Fatalf("sequential size = %d, want 81", want)
	}

	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			sink := model.NewLogSink(nil)
			got, err := newScanner(t, fsys, Options{Mode: ModeParallel, Concurrency: workers}).ComputeSize(context.Background(), "/r", sink)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("size = %d, want %d", got, want)
			}
			seq, par := seqSink.Lines(), sink.Lines()
			if strings.Join(seq, "\n") != strings.Join(par, "\n") {
				t.Fatalf("log order differs\nsequential:\n%s\nparallel:\n%s", strings.Join(seq, "\n"), strings.Join(par, "\n"))
			}
		})
	}
}

func TestParallel_CanceledMidWalk(t *testing.T) {
	fsys := deepFake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(t, fsys, Options{Mode: ModeParallel, Concurrency: 2}).ComputeSize(ctx, "/r", model.NewLogSink(nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFastwalk_MatchesSequentialTotals(t *testing.T) {
	root := buildTree(t)
	for i := 0; i < 20; i++ {
		writeFile(t, filepath.Join(root, "many", fmt.Sprintf("n%02d", i), "f"), i)
	}

	seq, err := newScanner(t, LocalFS{}, DefaultOptions()).ComputeSize(context.Background(), root, model.NewLogSink(nil))
	if err != nil {
		t.Fatal(err)
	}
	fw, err := newScanner(t, LocalFS{}, Options{Mode: ModeFastwalk, Concurrency: 4}).ComputeSize(context.Background(), root, model.NewLogSink(nil))
	if err != nil {
		t.Fatal(err)
	}
	if seq != fw {
		t.Fatalf("fastwalk = %d, sequential = %d", fw, seq)
	}
	if seq != 35+190 {
		t.Fatalf("size = %d, want 225", seq)
	}
}

func TestFastwalk_MissingRootIsFatal(t *testing.T) {
	sink := model.NewLogSink(nil)
	_, err := newScanner(t, LocalFS{}, Options{Mode: ModeFastwalk}).ComputeSize(context.Background(), filepath.Join(t.TempDir(), "nope"), sink)

	var serr *ScanError
	if !errors.As(err, &serr) || serr.Kind != model.ErrVanished {
		t.Fatalf("expected not-found ScanError, got %v", err)
	}
	if !hasLine(sink.Lines(), "ERROR: ", "Base directory not found") {
		t.Fatalf("missing error line in %v", sink.Lines())
	}
}

func TestFastwalk_UnlistableRootIsFatal(t *testing.T) {
	// A regular file stats fine but cannot be listed, so the failure
	// surfaces from the walk rather than the initial stat.
	file := filepath.Join(t.TempDir(), "plain.bin")
	writeFile(t, file, 3)

	for _, mode := range []Mode{ModeSequential, ModeFastwalk} {
		t.Run(string(mode), func(t *testing.T) {
			sink := model.NewLogSink(nil)
			_, err := newScanner(t, LocalFS{}, Options{Mode: mode, Concurrency: 2}).ComputeSize(context.Background(), file, sink)

			var serr *ScanError
			if !errors.As(err, &serr) || serr.Op != OpList || serr.Kind != model.ErrOS {
				t.Fatalf("expected list ScanError, got %v", err)
			}
			if !hasLine(sink.Lines(), "ERROR: ", "OS error scanning base directory "+file) {
				t.Fatalf("missing error line in %v", sink.Lines())
			}
			if hasLine(sink.Lines(), "WARN: ", "") {
				t.Fatalf("root failure logged as a warning: %v", sink.Lines())
			}
		})
	}
}
