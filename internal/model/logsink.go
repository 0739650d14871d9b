package model

import (
	"fmt"
	"sync"

	"github.com/containerd/log"
)

// LogSink collects the human-readable log lines of a single scan request.
//
// Lines are append-only. Every line is also forwarded to the process logger
// at the matching level. A sink may open child segments with Child; the lines
// of a child appear in Lines at the position the child was opened, which
// keeps a concurrently computed subtree contiguous and in traversal order.
//
// A LogSink is safe for concurrent use.
type LogSink struct {
	mu       sync.Mutex
	segments []logSegment
	logger   *log.Entry
}

type logSegment struct {
	line  string
	child *LogSink
}

// NewLogSink creates an empty sink forwarding to logger. A nil logger only
// records lines.
func NewLogSink(logger *log.Entry) *LogSink {
	return &LogSink{logger: logger}
}

// Infof appends an "INFO: " line.
func (s *LogSink) Infof(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.append("INFO: " + msg)
	if s.logger != nil {
		s.logger.Info(msg)
	}
}

// Warnf appends a "WARN: " line.
func (s *LogSink) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.append("WARN: " + msg)
	if s.logger != nil {
		s.logger.Warn(msg)
	}
}

// Errorf appends an "ERROR: " line.
func (s *LogSink) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.append("ERROR: " + msg)
	if s.logger != nil {
		s.logger.Error(msg)
	}
}

// Child opens an ordered child segment at the current position.
func (s *LogSink) Child() *LogSink {
	c := &LogSink{logger: s.logger}
	s.mu.Lock()
	s.segments = append(s.segments, logSegment{child: c})
	s.mu.Unlock()
	return c
}

// Lines returns a flattened snapshot of all lines, children included.
func (s *LogSink) Lines() []string {
	out := make([]string, 0, 8)
	return s.appendLines(out)
}

// Len returns the number of lines recorded so far, children included.
func (s *LogSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, seg := range s.segments {
		if seg.child != nil {
			n += seg.child.Len()
			continue
		}
		n++
	}
	return n
}

func (s *LogSink) append(line string) {
	s.mu.Lock()
	s.segments = append(s.segments, logSegment{line: line})
	s.mu.Unlock()
}

func (s *LogSink) appendLines(out []string) []string {
	s.mu.Lock()
	segs := make([]logSegment, len(s.segments))
	copy(segs, s.segments)
	s.mu.Unlock()

	for _, seg := range segs {
		if seg.child != nil {
			out = seg.child.appendLines(out)
			continue
		}
		out = append(out, seg.line)
	}
	return out
}
