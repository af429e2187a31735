// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package quadbatch

import (
	"log/slog"

	"github.com/gogpu/quadbatch/internal/logging"
)

// SetLogger configures the logger for quadbatch and all its sub-packages.
// By default, quadbatch produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by quadbatch:
//   - [slog.LevelDebug]: chunk creation, buffer sizes, batch statistics
//   - [slog.LevelWarn]: non-fatal issues (failed uploads, capped tiling)
//
// Example:
//
//	quadbatch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by quadbatch.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
