package citest

import (
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
)

// NewLogger returns a *slog.Logger that routes records through t.Log, so
// output interleaves with test output and is only shown for failing tests.
func NewLogger(tb testing.TB) *slog.Logger {
	return slogt.New(tb)
}
