package model

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/containerd/log"
	"github.com/containerd/log/logtest"
)

func TestLogSink_Prefixes(t *testing.T) {
	s := NewLogSink(nil)
	s.Infof("one %d", 1)
	s.Warnf("two")
	s.Errorf("three %s", "x")

	want := "INFO: one 1|WARN: two|ERROR: three x"
	if got := strings.Join(s.Lines(), "|"); got != want {
		t.Fatalf("Lines = %s, want %s", got, want)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
}

func TestLogSink_ChildSegmentsKeepPosition(t *testing.T) {
	s := NewLogSink(nil)
	s.Infof("before")
	a := s.Child()
	b := s.Child()
	s.Infof("after")

	// Write out of order; flattening follows the order segments were opened.
	b.Warnf("b1")
	nested := a.Child()
	a.Warnf("a2")
	nested.Warnf("a1")

	want := "INFO: before|WARN: a1|WARN: a2|WARN: b1|INFO: after"
	if got := strings.Join(s.Lines(), "|"); got != want {
		t.Fatalf("Lines = %s, want %s", got, want)
	}
	if s.Len() != 5 {
		t.Fatalf("Len = %d, want 5", s.Len())
	}
}

func TestLogSink_ConcurrentChildren(t *testing.T) {
	s := NewLogSink(nil)
	children := make([]*LogSink, 16)
	for i := range children {
		children[i] = s.Child()
	}

	var wg sync.WaitGroup
	for i, c := range children {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Infof("%02d-%02d", i, j)
			}
		}()
	}
	wg.Wait()

	lines := s.Lines()
	if len(lines) != 160 {
		t.Fatalf("got %d lines, want 160", len(lines))
	}
	for i, l := range lines {
		if want := fmt.Sprintf("INFO: %02d-%02d", i/10, i%10); l != want {
			t.Fatalf("line %d = %q, want %q", i, l, want)
		}
	}
}

func TestLogSink_ForwardsToLogger(t *testing.T) {
	ctx := logtest.WithT(t.Context(), t)
	s := NewLogSink(log.G(ctx))
	s.Warnf("forwarded")
	if got := s.Lines(); len(got) != 1 || got[0] != "WARN: forwarded" {
		t.Fatalf("Lines = %v", got)
	}
}
