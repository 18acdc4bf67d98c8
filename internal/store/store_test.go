package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/querysql"
	"github.com/roach88/relmap/internal/value"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	assert.Equal(t, querysql.SQLite, s.Dialect())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open("sqlite", path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.ErrorIs(t, err, querysql.ErrUnknownDialect)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.Equal(t, 1, s.SQL().Stats().MaxOpenConnections)
}

func TestClose_Twice(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())
	assert.Error(t, s.SQL().Ping())
}

func TestCreateRelation_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	n, err := s.RowCount(ctx, "Note")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInsert_GeneratesSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	id1, err := s.Insert(ctx, "Note", noteRow("a", false))
	require.NoError(t, err)
	id2, err := s.Insert(ctx, "Note", noteRow("b", true))
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)
}

func TestInsert_MissingRelation(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Insert(context.Background(), "Missing", noteRow("a", false))
	assert.Error(t, err)
}

func TestQuery_RoundTripsKinds(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	row := noteRow("buy milk", true)
	row["weight"] = value.Real(1.5)
	row["tags"] = value.Blob(`["a"]`)
	id, err := s.Insert(ctx, "Note", row)
	require.NoError(t, err)

	rows, err := s.Query(ctx, "Note", queryir.Equal("ID", id))
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	get := func(name string) value.Primitive {
		p, ok := rows.Column(name)
		require.True(t, ok, name)
		return p
	}
	assert.Equal(t, value.Integer(id), get("ID"))
	assert.Equal(t, value.Text("buy milk"), get("title"))
	assert.Equal(t, value.Integer(1), get("done"))
	assert.Equal(t, value.Real(1.5), get("weight"))
	assert.Equal(t, value.Blob(`["a"]`), get("tags"))

	_, ok := rows.Column("nope")
	assert.False(t, ok)

	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

func TestQuery_NullColumns(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	_, err := s.Insert(ctx, "Note", Values{"ParentID": value.Integer(0)})
	require.NoError(t, err)

	rows, err := s.Query(ctx, "Note", nil)
	require.NoError(t, err)
	assert.Equal(t, []value.Primitive{value.Null{}}, collect(t, rows, "title"))
}

func TestQuery_OrderedByID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	for _, title := range []string{"c", "a", "b"} {
		_, err := s.Insert(ctx, "Note", noteRow(title, false))
		require.NoError(t, err)
	}

	rows, err := s.Query(ctx, "Note", nil)
	require.NoError(t, err)
	assert.Equal(t, []value.Primitive{value.Text("c"), value.Text("a"), value.Text("b")}, collect(t, rows, "title"))
}

func TestQuery_AndOr(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	for _, r := range []Values{noteRow("x", true), noteRow("y", false), noteRow("x", true)} {
		_, err := s.Insert(ctx, "Note", r)
		require.NoError(t, err)
	}
	_, err := s.Update(ctx, "Note", Values{"done": value.Integer(0)}, queryir.Equal("ID", 3))
	require.NoError(t, err)

	rows, err := s.Query(ctx, "Note", queryir.And(queryir.Equal("done", true), queryir.Equal("title", "x")))
	require.NoError(t, err)
	assert.Len(t, collect(t, rows, "ID"), 1)

	rows, err = s.Query(ctx, "Note", queryir.Or(queryir.Equal("done", true), queryir.Equal("title", "x")))
	require.NoError(t, err)
	assert.Len(t, collect(t, rows, "ID"), 2)

	rows, err = s.Query(ctx, "Note", queryir.In("title", "x", "y"))
	require.NoError(t, err)
	assert.Len(t, collect(t, rows, "ID"), 3)

	rows, err = s.Query(ctx, "Note", queryir.Like("title", "y%"))
	require.NoError(t, err)
	assert.Len(t, collect(t, rows, "ID"), 1)
}

func TestQuery_InvalidPredicate(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	_, err := s.Query(ctx, "Note", queryir.And())
	assert.Error(t, err)
}

func TestUpdate_AffectedCount(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	id, err := s.Insert(ctx, "Note", noteRow("a", false))
	require.NoError(t, err)

	n, err := s.Update(ctx, "Note", Values{"title": value.Text("b")}, queryir.Equal("ID", id))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Update(ctx, "Note", Values{"title": value.Text("b")}, queryir.Equal("ID", 99))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = s.Update(ctx, "Note", Values{"title": value.Text("b")}, nil)
	assert.ErrorIs(t, err, querysql.ErrNoFilter)
}

func TestDelete_AffectedCount(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, "Note", noteRow("a", false))
		require.NoError(t, err)
	}

	n, err := s.Delete(ctx, "Note", queryir.In("ID", 1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.RowCount(ctx, "Note")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = s.Delete(ctx, "Note", nil)
	assert.ErrorIs(t, err, querysql.ErrNoFilter)
}

func TestDropRelation(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))
	_, err := s.Insert(ctx, "Note", noteRow("a", false))
	require.NoError(t, err)

	require.NoError(t, s.DropRelation(ctx, "Note"))
	require.NoError(t, s.DropRelation(ctx, "Note"))

	_, err = s.RowCount(ctx, "Note")
	assert.Error(t, err)

	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))
	n, err := s.RowCount(ctx, "Note")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStatementCache(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithStatementCache(2))
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))
	assert.Equal(t, 0, s.stmts.len())

	_, err := s.Insert(ctx, "Note", noteRow("a", false))
	require.NoError(t, err)
	_, err = s.Insert(ctx, "Note", noteRow("b", false))
	require.NoError(t, err)
	assert.Equal(t, 1, s.stmts.len(), "same SQL reuses one statement")

	_, err = s.RowCount(ctx, "Note")
	require.NoError(t, err)
	_, err = s.Query(ctx, "Note", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.stmts.len(), "cache is bounded")

	require.NoError(t, s.DropRelation(ctx, "Note"))
	assert.Equal(t, 0, s.stmts.len())
}

func TestStatementCache_Disabled(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithStatementCache(0))
	require.NoError(t, s.CreateRelation(ctx, "Note", noteColumns))

	id, err := s.Insert(ctx, "Note", noteRow("a", false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Nil(t, s.stmts)
	assert.Equal(t, 0, s.stmts.len())
}

func TestNewRows(t *testing.T) {
	rows := NewRows([]Values{{"a": value.Integer(1)}, {"a": value.Integer(2)}})

	_, ok := rows.Column("a")
	assert.False(t, ok, "no current row before Next")

	assert.Equal(t, []value.Primitive{value.Integer(1), value.Integer(2)}, collect(t, rows, "a"))
	assert.False(t, rows.Next())
	_, ok = rows.Column("a")
	assert.False(t, ok)
}
