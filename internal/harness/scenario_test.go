package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Saves one note"
flow:
  - op: save
    type: Note
    ref: n
    set:
      title: milk
      tags: [a, b]
    expect:
      ok: true
assertions:
  - type: count
    relation: Note
    count: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	require.Len(t, scenario.Flow, 1)
	assert.Equal(t, OpSave, scenario.Flow[0].Op)
	assert.Equal(t, "milk", scenario.Flow[0].Set["title"])
	assert.Equal(t, []any{"a", "b"}, scenario.Flow[0].Set["tags"])
	require.NotNil(t, scenario.Flow[0].Expect)
	assert.True(t, *scenario.Flow[0].Expect.OK)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, int64(1), *scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nflow: [{op: count, type: Note}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nflow: [{op: count, type: Note}]\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			content: "name: n\ndescription: d\nflow: []\n",
			wantErr: "flow list is required",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\nflows: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nflow: [{op: upsert, type: Note}]\n",
			wantErr: `unknown op "upsert"`,
		},
		{
			name:    "missing op",
			content: "name: n\ndescription: d\nflow: [{type: Note}]\n",
			wantErr: "op is required",
		},
		{
			name:    "save without type",
			content: "name: n\ndescription: d\nflow: [{op: save}]\n",
			wantErr: "type is required for save",
		},
		{
			name:    "delete without ref",
			content: "name: n\ndescription: d\nflow: [{op: delete}]\n",
			wantErr: "ref is required for delete",
		},
		{
			name:    "get without id",
			content: "name: n\ndescription: d\nflow: [{op: get, type: Note}]\n",
			wantErr: "type and id are required for get",
		},
		{
			name:    "where without conditions",
			content: "name: n\ndescription: d\nflow: [{op: where, type: Note}]\n",
			wantErr: "where list is required",
		},
		{
			name:    "where with unknown operator",
			content: "name: n\ndescription: d\nflow: [{op: where, type: Note, where: [{column: title, op: '~', value: x}]}]\n",
			wantErr: `unknown operator "~"`,
		},
		{
			name:    "parent outside save",
			content: "name: n\ndescription: d\nflow: [{op: update, ref: a, parent: b}]\n",
			wantErr: "parent is only valid for save",
		},
		{
			name:    "set outside save and update",
			content: "name: n\ndescription: d\nflow: [{op: count, type: Note, set: {title: x}}]\n",
			wantErr: "set is only valid for save and update",
		},
		{
			name:    "assertion without relation",
			content: "name: n\ndescription: d\nflow: [{op: count, type: Note}]\nassertions: [{type: count, count: 1}]\n",
			wantErr: "relation is required",
		},
		{
			name:    "row assertion without expect",
			content: "name: n\ndescription: d\nflow: [{op: count, type: Note}]\nassertions: [{type: row, relation: Note, id: 1}]\n",
			wantErr: "id and expect are required for row",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nflow: [{op: count, type: Note}]\nassertions: [{type: trace, relation: Note}]\n",
			wantErr: `unknown assertion type "trace"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
