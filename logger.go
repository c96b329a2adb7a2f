// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package greenscreen

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// Live pipelines, so SetLogger reaches schedulers created earlier.
var (
	pipelinesMu sync.Mutex
	pipelines   = make(map[*Pipeline]struct{})
)

func registerPipeline(p *Pipeline) {
	pipelinesMu.Lock()
	pipelines[p] = struct{}{}
	pipelinesMu.Unlock()
}

func unregisterPipeline(p *Pipeline) {
	pipelinesMu.Lock()
	delete(pipelines, p)
	pipelinesMu.Unlock()
}

// SetLogger configures the logger for greenscreen and all its
// sub-packages. By default, greenscreen produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically and propagates it to every live pipeline. Pass nil to
// disable logging (restore default silent behavior).
//
// Log levels used by greenscreen:
//   - [slog.LevelDebug]: per-frame diagnostics (dropped frames, uploads)
//   - [slog.LevelInfo]: lifecycle events (init, dispose, capture done)
//   - [slog.LevelWarn]: non-fatal issues (background load failure,
//     rejected frame data)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	greenscreen.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	greenscreen.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	pipelinesMu.Lock()
	for p := range pipelines {
		p.sched.SetLogger(l)
	}
	pipelinesMu.Unlock()
}

// Logger returns the current logger used by greenscreen.
// Sub-packages call this to share the same logger configuration
// without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
