// Package testutil holds helpers shared by tests and the scenario harness.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap/internal/store"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TempSQLite opens a SQLite store in a fresh temporary directory and closes
// it when the test ends. Logging is discarded unless opts set a logger.
func TempSQLite(tb testing.TB, opts ...store.Option) *store.DB {
	tb.Helper()
	opts = append([]store.Option{store.WithLogger(DiscardLogger())}, opts...)
	st, err := store.OpenSQLite(filepath.Join(tb.TempDir(), "test.db"), opts...)
	require.NoError(tb, err)
	tb.Cleanup(func() { st.Close() })
	return st
}

// MemorySQLite opens a private in-memory SQLite store. The store keeps a
// single connection, so the database lives until Close.
func MemorySQLite(opts ...store.Option) (*store.DB, error) {
	opts = append([]store.Option{store.WithLogger(DiscardLogger())}, opts...)
	return store.OpenSQLite(":memory:", opts...)
}
