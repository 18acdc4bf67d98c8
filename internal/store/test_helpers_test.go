package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/relmap/internal/value"
)

// createTestStore opens a SQLite store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	s, err := OpenSQLite(path, opts...)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noteColumns is the relation used across store tests.
var noteColumns = []ColumnDef{
	{Name: "ID", Kind: value.KindInteger, PrimaryKey: true},
	{Name: "ParentID", Kind: value.KindInteger},
	{Name: "title", Kind: value.KindText},
	{Name: "done", Kind: value.KindInteger},
	{Name: "weight", Kind: value.KindReal},
	{Name: "tags", Kind: value.KindBlob},
}

func noteRow(title string, done bool) Values {
	d := value.Integer(0)
	if done {
		d = 1
	}
	return Values{
		"ParentID": value.Integer(0),
		"title":    value.Text(title),
		"done":     d,
	}
}

// collect drains rows into the values of one column.
func collect(t *testing.T, rows Rows, column string) []value.Primitive {
	t.Helper()
	defer rows.Close()
	var out []value.Primitive
	for rows.Next() {
		p, ok := rows.Column(column)
		if !ok {
			t.Fatalf("row has no column %q", column)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}
