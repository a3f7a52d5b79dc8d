// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging builds the *slog.Logger used by the CLI and server
// commands. It mirrors the teacher's server/logger package: a small
// set of named modes picks a handler, and any handler can be wrapped
// with an async dispatcher so a busy worker pool never blocks on I/O.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Mode selects a handler shape. Dev favors readability, Prod favors
// machine parsing, Silence discards everything.
type Mode uint8

const (
	ModeDev Mode = iota
	ModeProd
	ModeSilence
)

// ParseMode maps a flag/env string onto a Mode, defaulting to ModeDev
// on anything unrecognized.
func ParseMode(s string) Mode {
	switch s {
	case "prod":
		return ModeProd
	case "silence":
		return ModeSilence
	default:
		return ModeDev
	}
}

// NewDefaultLogger returns a *slog.Logger built from mode defaults.
func NewDefaultLogger(mode Mode) *slog.Logger {
	return slog.New(buildHandler(mode))
}

// NewDefaultAsyncLogger is NewDefaultLogger wrapped in an AsyncHandler,
// for call sites on a hot path (per-session bet logging) that cannot
// afford to block on stdout/stderr contention.
func NewDefaultAsyncLogger(mode Mode, buf int) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(buildHandler(mode), buf)
	return slog.New(ah), ah
}

func buildHandler(mode Mode) slog.Handler {
	switch mode {
	case ModeProd:
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, nil)
	default:
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// AsyncHandler wraps a slog.Handler so Handle enqueues onto a channel
// instead of writing inline. A background goroutine drains the
// channel into the wrapped handler; a full channel drops the record
// rather than stalling the caller.
type AsyncHandler struct {
	next slog.Handler
	d    *dispatcher
}

type dispatcher struct {
	ch     chan item
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	dropped atomic.Uint64
}

type item struct {
	ctx context.Context
	rec slog.Record
	h   slog.Handler
}

// NewAsyncHandler wraps next with a buffered dispatcher of size buf
// (1024 when buf <= 0).
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = buildHandler(ModeDev)
	}
	if buf <= 0 {
		buf = 1024
	}
	d := &dispatcher{
		ch:     make(chan item, buf),
		closed: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return &AsyncHandler{next: next, d: d}
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case it := <-d.ch:
			_ = it.h.Handle(it.ctx, it.rec)
		case <-d.closed:
			for {
				select {
				case it := <-d.ch:
					_ = it.h.Handle(it.ctx, it.rec)
				default:
					return
				}
			}
		}
	}
}

// Dropped returns the number of records dropped because the buffer
// was full, useful as a gauge if this ever grows a metrics sink.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.d == nil {
		return 0
	}
	return h.d.dropped.Load()
}

// Close stops the dispatcher and drains whatever is left in the
// buffer. Call it once, on shutdown, before the process exits.
func (h *AsyncHandler) Close() {
	if h == nil || h.d == nil {
		return
	}
	h.d.once.Do(func() { close(h.d.closed) })
	h.d.wg.Wait()
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	select {
	case <-h.d.closed:
		h.d.dropped.Add(1)
		return nil
	default:
	}
	it := item{ctx: ctx, rec: r.Clone(), h: h.next}
	select {
	case h.d.ch <- it:
		return nil
	default:
		h.d.dropped.Add(1)
		return nil
	}
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), d: h.d}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), d: h.d}
}
