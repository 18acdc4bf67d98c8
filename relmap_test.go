package relmap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap"
)

type Task struct {
	relmap.Record
	Title    string `relmap:"title"`
	Done     bool   `relmap:"done"`
	Estimate float64

	owner string
}

func (t *Task) Owner() string     { return t.owner }
func (t *Task) SetOwner(o string) { t.owner = o }

func (t *Task) StorageMembers() []relmap.Member {
	return []relmap.Member{
		relmap.Setter("owner", (*Task).SetOwner),
		relmap.Getter("owner", (*Task).Owner),
	}
}

type Board struct {
	relmap.Members[*Task]
	Name string `relmap:"name"`
}

type Bad struct {
	relmap.Record
	Fn func() `relmap:"fn"`
}

// Shadow maps a field onto the reserved ID column under another case.
type Shadow struct {
	relmap.Record
	Ident int64 `relmap:"id"`
}

func openTestDB(t *testing.T, defs ...relmap.Definition) *relmap.DB {
	t.Helper()
	db, err := relmap.OpenSQLite(filepath.Join(t.TempDir(), "relmap.db"), defs...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPlainRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, relmap.Type[Task]())

	a := &Task{Title: "write", Estimate: 1.5}
	a.SetOwner("ana")
	b := &Task{Title: "review", Done: true}

	ok, err := relmap.SaveAll(ctx, db, []*Task{a, b})
	require.NoError(t, err)
	require.True(t, ok)

	got, found, err := relmap.Get[Task](ctx, db, a.ID())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "write", got.Title)
	assert.Equal(t, "ana", got.Owner())
	assert.Zero(t, got.Estimate, "untagged fields are not stored")

	all, err := relmap.All[Task](ctx, db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "review", all[1].Title)

	done, err := relmap.Where[Task](ctx, db, relmap.Equal("done", true))
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, b.ID(), done[0].ID())

	n, err := relmap.Count[Task](ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err = db.Delete(ctx, a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, relmap.InvalidID, a.ID())

	_, found, err = relmap.Get[Task](ctx, db, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, relmap.CollectionOf[Board, Task]())

	board := &Board{Name: "sprint"}
	board.Add(&Task{Title: "a"}, &Task{Title: "b"})

	ok, err := db.Save(ctx, board)
	require.NoError(t, err)
	require.True(t, ok)

	tasks, err := relmap.Where[Task](ctx, db, relmap.Equal("ParentID", board.ID()))
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	got, found, err := relmap.Get[Board](ctx, db, board.ID())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, board, got)

	ok, err = relmap.DeleteAll(ctx, db, []*Board{got})
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := relmap.Count[Task](ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_SchemaErrorsKeepValidTypes(t *testing.T) {
	ctx := context.Background()
	db, err := relmap.Open("sqlite", filepath.Join(t.TempDir(), "relmap.db"),
		[]relmap.Definition{relmap.Type[Bad](), relmap.Type[Task](relmap.WithName("work items"))},
		relmap.WithStatementCache(0),
	)
	require.Error(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { db.Close() })

	assert.True(t, relmap.IsSchemaError(err))
	errs := relmap.SchemaErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "relmap_test.Bad", errs[0].Type)

	ok, err := db.Save(ctx, &Task{Title: "x"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = db.Save(ctx, &Bad{})
	assert.ErrorIs(t, err, relmap.ErrNotRegistered)

	tbl, ok := db.Table(db.Types()[0])
	require.True(t, ok)
	assert.Equal(t, "workitems", tbl.Relation())
}

func TestOpen_CaseInsensitiveCollisionKeepsValidTypes(t *testing.T) {
	ctx := context.Background()
	db, err := relmap.OpenSQLite(filepath.Join(t.TempDir(), "relmap.db"),
		relmap.Type[Shadow](), relmap.Type[Task]())
	require.Error(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { db.Close() })

	errs := relmap.SchemaErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "relmap_test.Shadow", errs[0].Type)

	ok, err := db.Save(ctx, &Task{Title: "still usable"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWhere_InvalidPredicate(t *testing.T) {
	db := openTestDB(t, relmap.Type[Task]())

	_, err := relmap.Where[Task](context.Background(), db, relmap.Equal("missing", 1))
	assert.ErrorIs(t, err, relmap.ErrInvalidPredicate)

	_, err = relmap.Where[Task](context.Background(), db, relmap.Or())
	assert.ErrorIs(t, err, relmap.ErrInvalidPredicate)
}

func TestOpen_Recreate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "relmap.db")

	db, err := relmap.OpenSQLite(path, relmap.Type[Task]())
	require.NoError(t, err)
	_, err = db.Save(ctx, &Task{Title: "old"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = relmap.Open("sqlite3", path, []relmap.Definition{relmap.Type[Task]()}, relmap.WithRecreate())
	require.NoError(t, err)
	defer db.Close()

	n, err := relmap.Count[Task](ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNew_ExternalStore(t *testing.T) {
	owner := openTestDB(t)

	db, err := relmap.New(owner.Store(), relmap.Type[Task]())
	require.NoError(t, err)
	require.NoError(t, db.CreateRelations(context.Background()))
	assert.NoError(t, db.Close(), "closing a DB over a foreign store is a no-op")

	ok, err := db.Save(context.Background(), &Task{Title: "x"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_UnknownDriver(t *testing.T) {
	db, err := relmap.Open("oracle", "x", nil)
	assert.Error(t, err)
	assert.Nil(t, db)
}
