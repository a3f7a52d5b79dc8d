// Package sink implements the two persisted-state shapes spec §6
// names: a per-worker detailed JSONL event log, classified into a
// directory hierarchy, and a single summary result document per run.
package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/events"
)

// Mode names which command produced the events a JSONLSink is
// recording, selecting the simulations/... subtree per spec §6.
type Mode string

const (
	Simulate Mode = "simulate"
	Compare  Mode = "compare"
	Sweep    Mode = "sweep"
)

// Classify picks the {subtree}/{subclass} pair a detailed log belongs
// under. A non-empty mode always wins (the run-kind discriminator);
// otherwise the strategy name's "composite."/"adaptive." prefix
// decides, falling back to strategies/basic. Purely advisory, per
// spec §6 — a misclassified log is still a correct, readable log.
func Classify(mode Mode, strategyName string) (subtree, subclass string) {
	if mode != "" {
		return "simulations", string(mode)
	}
	switch {
	case strings.HasPrefix(strategyName, "composite."):
		return "strategies", "composite"
	case strings.HasPrefix(strategyName, "adaptive."):
		return "strategies", "adaptive"
	default:
		return "strategies", "basic"
	}
}

// JSONLSink implements events.Sink, writing one JSON object per line
// to a file under root's classification hierarchy. Spec §5 expects one
// JSONLSink per worker to avoid contention; the mutex below only
// guards against a caller that wires one JSONLSink across several
// concurrent session buses anyway, e.g. a CLI that hasn't split logs
// per worker yet.
type JSONLSink struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	warned bool
}

// Open creates (or truncates) the log file for (mode, strategyName,
// name) under root, creating the classified directory if needed.
func Open(root string, mode Mode, strategyName, name string, at time.Time) (*JSONLSink, error) {
	subtree, subclass := Classify(mode, strategyName)
	dir := filepath.Join(root, subtree, subclass)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.WrapCode(errs.CodeSinkIO, err, "sink: mkdir")
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.jsonl", name, at.Unix()))
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.WrapCode(errs.CodeSinkIO, err, "sink: create log file")
	}
	return &JSONLSink{f: f, w: bufio.NewWriter(f)}, nil
}

// Handle writes one event as a JSON line. A write failure is dropped
// with a single warning per file (spec §7's SINK_IO policy) rather
// than propagated, since losing one detailed-log line must never abort
// a session.
func (s *JSONLSink) Handle(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warned {
		return
	}
	line, err := json.Marshal(e)
	if err != nil {
		s.warn(err)
		return
	}
	if _, err := s.w.Write(line); err != nil {
		s.warn(err)
		return
	}
	if err := s.w.WriteByte('\n'); err != nil {
		s.warn(err)
		return
	}
}

func (s *JSONLSink) warn(err error) {
	s.warned = true
	fmt.Fprintf(os.Stderr, "sink: dropping further events for %s: %v\n", s.f.Name(), err)
}

// Flush must be called at session end, per spec §5 ("sinks... must
// flush at session end").
func (s *JSONLSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "sink: flush")
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *JSONLSink) Close() error {
	_ = s.Flush()
	return s.f.Close()
}
