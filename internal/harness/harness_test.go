package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap/internal/demo"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/testutil"
	"github.com/roach88/relmap/internal/value"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario, demo.Definitions())
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func parse(t *testing.T, content string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	return scenario
}

func TestRun_FailedExpectations(t *testing.T) {
	scenario := parse(t, `
name: failing
description: Every expectation is wrong
flow:
  - op: save
    type: Note
    ref: n
    set: {title: milk}
    expect: {ok: false}
  - op: count
    type: Note
    expect: {count: 2}
  - op: get
    type: Note
    id: 1
    expect: {found: false}
  - op: where
    type: Note
    where: [{column: title, op: "=", value: milk}]
    expect: {ids: [2]}
  - op: where
    type: Note
    where: [{column: title, op: "=", value: milk}]
    expect: {error: invalid predicate}
assertions:
  - {type: count, relation: Note, count: 0}
  - {type: missing, relation: Note, id: 1}
  - {type: row, relation: Note, id: 1, expect: {title: bread}}
  - {type: row, relation: Note, id: 7, expect: {title: milk}}
`)

	result, err := Run(context.Background(), scenario, demo.Definitions())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 5)
	assert.Equal(t, []string{
		"flow[0] save: ok: expected false, got true",
		"flow[1] count: count: expected 2, got 1",
		"flow[2] get: found: expected false, got true",
		"flow[3] where: ids: expected [2], got [1]",
		`flow[4] where: error: expected "invalid predicate", got ""`,
		"assertions[0]: count: expected 0 rows in Note, got 1",
		"assertions[1]: missing: expected no Note 1, got row exists",
		`assertions[2]: row: expected title = "bread", got "milk"`,
		"assertions[3]: row: expected Note 7, got no row",
	}, result.Errors)
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := parse(t, `
name: unexpected
description: An error nobody expected
flow:
  - op: where
    type: Note
    where: [{column: nosuch, op: "=", value: 1}]
    expect: {count: 0}
`)

	result, err := Run(context.Background(), scenario, demo.Definitions())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error: expected none, got invalid predicate")
}

func TestRun_MalformedSteps(t *testing.T) {
	testCases := []struct {
		name    string
		flow    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown relation",
			flow:    "[{op: count, type: Notes}]",
			wantErr: ErrUnknownType,
		},
		{
			name:    "unknown ref",
			flow:    "[{op: delete, ref: ghost}]",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "unknown parent",
			flow:    "[{op: save, type: Note, parent: ghost}]",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "unknown column",
			flow:    "[{op: save, type: Note, set: {color: red}}]",
			wantMsg: `Note has no column "color"`,
		},
		{
			name:    "identity column",
			flow:    "[{op: save, type: Note, set: {ID: 4}}]",
			wantMsg: "column ID is managed by relmap",
		},
		{
			name:    "parent of wrong type",
			flow:    "[{op: save, type: Note, ref: a}, {op: save, type: Note, parent: a}]",
			wantMsg: "a is not a collection of Note",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			scenario := parse(t, "name: n\ndescription: d\nflow: "+tc.flow+"\n")

			_, err := Run(context.Background(), scenario, demo.Definitions())
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestRun_SchemaErrors(t *testing.T) {
	type broken struct {
		schema.Record
		Events chan int `relmap:"events"`
	}
	scenario := parse(t, "name: n\ndescription: d\nflow: [{op: count, type: Note}]\n")

	defs := append(demo.Definitions(), schema.Plain[broken]())
	_, err := Run(context.Background(), scenario, defs)
	require.Error(t, err)
	assert.True(t, schema.HasCode(err, schema.ErrCodeUnsupportedType))
}

func TestRunOn_ExistingStore(t *testing.T) {
	st := testutil.TempSQLite(t)
	scenario := parse(t, `
name: existing
description: Runs against a file database
flow:
  - {op: save, type: todolists, ref: l, set: {name: home}}
  - {op: save, type: Note, parent: l, set: {title: sweep}}
assertions:
  - {type: children, relation: todolists, id: 1, count: 1}
`)

	for range 2 {
		result, err := RunOn(context.Background(), st, scenario, demo.Definitions())
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	}
}

func TestPrimitiveOf(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want value.Primitive
	}{
		{"nil", nil, value.Null{}},
		{"string", "x", value.Text("x")},
		{"true", true, value.Integer(1)},
		{"false", false, value.Integer(0)},
		{"int", 7, value.Integer(7)},
		{"float", 2.5, value.Real(2.5)},
		{"sequence", []any{"a", 1}, value.Blob(`["a",1]`)},
		{"mapping", map[string]any{"k": "v"}, value.Blob(`{"k":"v"}`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := primitiveOf(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSamePrimitive(t *testing.T) {
	assert.True(t, samePrimitive(value.Integer(2), value.Real(2)))
	assert.True(t, samePrimitive(value.Text("a"), value.Text("a")))
	assert.True(t, samePrimitive(value.Blob(`["a"]`), value.Blob(`["a"]`)))
	assert.True(t, samePrimitive(value.Null{}, value.Null{}))
	assert.False(t, samePrimitive(value.Integer(1), value.Text("1")))
	assert.False(t, samePrimitive(value.Text("a"), value.Blob("a")))
}
