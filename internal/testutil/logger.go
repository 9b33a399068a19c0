package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output. Keeps test output
// readable when services log retries and drains.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
