package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteLifecycle(t *testing.T) {
	dsn := testDSN(t)
	run := func(args ...string) (string, error) {
		return execute(t, append([]string{"--dsn", dsn, "--format", "json"}, args...)...)
	}

	out, err := run("note", "add", "buy milk", "--tag", "shop", "--tag", "today", "--priority", "3")
	require.NoError(t, err)
	var added NoteView
	decode(t, out, &added)
	assert.Equal(t, NoteView{ID: 1, Title: "buy milk", Priority: 3, Tags: []string{"shop", "today"}}, added)

	_, err = run("note", "add", "call plumber", "-p", "12")
	require.NoError(t, err)

	out, err = run("note", "done", "1")
	require.NoError(t, err)
	var done NoteView
	decode(t, out, &done)
	assert.True(t, done.Done)

	out, err = run("note", "ls", "--open")
	require.NoError(t, err)
	var open NoteList
	decode(t, out, &open)
	require.Len(t, open, 1)
	assert.Equal(t, "call plumber", open[0].Title)
	assert.Equal(t, 9, open[0].Priority, "priority is clamped")

	out, err = run("note", "ls", "--tag", "shop")
	require.NoError(t, err)
	var tagged NoteList
	decode(t, out, &tagged)
	require.Len(t, tagged, 1)
	assert.Equal(t, int64(1), tagged[0].ID)

	out, err = run("note", "ls", "--match", "%plumb%", "--min-priority", "5")
	require.NoError(t, err)
	var matched NoteList
	decode(t, out, &matched)
	require.Len(t, matched, 1)
	assert.Equal(t, int64(2), matched[0].ID)

	_, err = run("note", "rm", "1")
	require.NoError(t, err)

	out, err = run("count")
	require.NoError(t, err)
	var counts Counts
	decode(t, out, &counts)
	assert.Equal(t, Counts{Notes: 1}, counts)
}

func TestNoteErrors(t *testing.T) {
	dsn := testDSN(t)

	testCases := []struct {
		name     string
		args     []string
		exitCode int
		code     string
	}{
		{"done missing", []string{"note", "done", "42"}, ExitFailure, ErrCodeNotFound},
		{"rm bad id", []string{"note", "rm", "abc"}, ExitCommandError, ErrCodeInvalidArgs},
		{"rm zero id", []string{"note", "rm", "0"}, ExitCommandError, ErrCodeInvalidArgs},
		{"add to missing list", []string{"note", "add", "x", "--list", "5"}, ExitFailure, ErrCodeNotFound},
		{"exclusive filters", []string{"note", "ls", "--open", "--done"}, ExitCommandError, ErrCodeInvalidArgs},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--dsn", dsn, "--format", "json"}, tc.args...)...)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))

			resp := decode(t, out, nil)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestListLifecycle(t *testing.T) {
	dsn := testDSN(t)
	run := func(args ...string) (string, error) {
		return execute(t, append([]string{"--dsn", dsn, "--format", "json"}, args...)...)
	}

	out, err := run("list", "new", "groceries")
	require.NoError(t, err)
	var created ListView
	decode(t, out, &created)
	assert.Equal(t, int64(1), created.ID)
	_, err = uuid.Parse(created.Token)
	assert.NoError(t, err)

	for _, title := range []string{"milk", "eggs"} {
		_, err = run("note", "add", title, "--list", "1")
		require.NoError(t, err)
	}
	_, err = run("note", "add", "unlisted")
	require.NoError(t, err)
	_, err = run("note", "done", "2")
	require.NoError(t, err)

	out, err = run("list", "show", "1")
	require.NoError(t, err)
	var shown ListView
	decode(t, out, &shown)
	assert.Equal(t, created.Token, shown.Token)
	assert.Equal(t, 1, shown.Open)
	require.Len(t, shown.Notes, 2)
	assert.Equal(t, "milk", shown.Notes[0].Title)
	assert.Equal(t, int64(1), shown.Notes[1].List)

	out, err = run("note", "ls", "--list", "1")
	require.NoError(t, err)
	var inList NoteList
	decode(t, out, &inList)
	assert.Len(t, inList, 2)

	_, err = run("list", "rm", "1")
	require.NoError(t, err)

	out, err = run("count")
	require.NoError(t, err)
	var counts Counts
	decode(t, out, &counts)
	assert.Equal(t, Counts{Lists: 0, Notes: 1}, counts)

	_, err = run("list", "show", "1")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTextOutput(t *testing.T) {
	dsn := testDSN(t)
	run := func(args ...string) string {
		out, err := execute(t, append([]string{"--dsn", dsn}, args...)...)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, "no notes\n", run("note", "ls"))
	assert.Equal(t, "no lists\n", run("list", "ls"))

	run("list", "new", "home")
	assert.Equal(t, "   1 [ ] sweep !1 #chores (list 1)\n", run("note", "add", "sweep", "-t", "chores", "-p", "1", "-l", "1"))
	assert.Equal(t, "   1 [x] sweep !1 #chores (list 1)\n", run("note", "done", "1"))
	assert.Equal(t, "1 home (0/1 open)\n   1 [x] sweep !1 #chores\n", run("list", "show", "1"))
	assert.Equal(t, "   1 home (0/1 open)\n", run("list", "ls"))
	assert.Equal(t, "lists: 1\nnotes: 1\n", run("count"))
	assert.Equal(t, "removed list 1 and 1 note(s)\n", run("list", "rm", "1"))
}

func TestInit(t *testing.T) {
	dsn := testDSN(t)

	out, err := execute(t, "--dsn", dsn, "init")
	require.NoError(t, err)
	assert.Equal(t, "relations ready: todolists, Note\n", out)

	_, err = execute(t, "--dsn", dsn, "note", "add", "keep?")
	require.NoError(t, err)

	out, err = execute(t, "--dsn", dsn, "init", "--recreate")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "relations recreated"))

	out, err = execute(t, "--dsn", dsn, "count")
	require.NoError(t, err)
	assert.Equal(t, "lists: 0\nnotes: 0\n", out)
}

func TestConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dsn := filepath.Join(dir, "from-config.db")
	path := filepath.Join(dir, "relmap.cue")
	require.NoError(t, writeFile(path, `dsn: "`+filepath.ToSlash(dsn)+`"
statement_cache: 0
`))

	_, err := execute(t, "--config", path, "note", "add", "configured")
	require.NoError(t, err)

	out, err := execute(t, "--dsn", dsn, "note", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "configured")
}

func TestOpenFailure(t *testing.T) {
	clearEnv(t)
	dsn := filepath.Join(t.TempDir(), "missing", "dir", "relmap.db")

	out, err := execute(t, "--dsn", dsn, "--format", "json", "count")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeOpen, decode(t, out, nil).Error.Code)
}
