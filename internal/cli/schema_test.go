package cli

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaGolden(t *testing.T) {
	clearEnv(t)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, driver := range []string{"sqlite3", "pgx", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			out, err := execute(t, "--driver", driver, "schema")
			require.NoError(t, err)
			g.Assert(t, "schema_"+driver, []byte(out))
		})
	}
}

func TestSchemaJSON(t *testing.T) {
	clearEnv(t)
	out, err := execute(t, "--format", "json", "--driver", "postgres", "schema")
	require.NoError(t, err)

	var result SchemaResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "pgx", result.Dialect)
	require.Len(t, result.Relations, 2)

	list := result.Relations[0]
	assert.Equal(t, "todolists", list.Relation)
	assert.Equal(t, "collection", list.Kind)
	assert.Equal(t, ColumnView{Name: "ID", Kind: "INTEGER", Type: "BIGINT", PrimaryKey: true}, list.Columns[0])
	assert.Equal(t, ColumnView{Name: "token", Kind: "TEXT", Type: "TEXT"}, list.Columns[3])

	note := result.Relations[1]
	assert.Equal(t, "Note", note.Relation)
	assert.Equal(t, "plain", note.Kind)
	assert.Len(t, note.Columns, 6)
}
