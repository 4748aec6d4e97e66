package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConsole_Lines(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	store := filepath.Join(dir, "store.json")

	input := strings.Join([]string{
		"!ping",
		"",
		"hello there",
		"!echo  one two ",
		`{"name":"whois","options":[{"name":"user","value":"111111111111111111"}]}`,
		`{"name":`,
		"!prefix set ?",
	}, "\n")
	out, err := execute(t, input, "--storage", store)
	require.NoError(t, err)

	assert.Contains(t, out, "bot> 🏓 Pong!")
	assert.Contains(t, out, "(no command matched)")
	assert.Contains(t, out, "bot> one two")
	assert.Contains(t, out, "user-111111111111111111")
	assert.Contains(t, out, "error: slash payload")
	assert.Contains(t, out, "You need the following permissions: Manage Server")
}

func TestConsole_OwnerAndDM(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	store := filepath.Join(dir, "store.json")

	out, err := execute(t, "!prefix set ?\n?ping\n", "--storage", store, "--owner")
	require.NoError(t, err)
	assert.Contains(t, out, "Prefix set to `?`.")
	assert.Contains(t, out, "Pong!")

	out, err = execute(t, "!prefix show\n", "--storage", store, "--guild", "")
	require.NoError(t, err)
	assert.Contains(t, out, "This command only works in a server.")
}

func TestSlashCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	store := filepath.Join(dir, "store.json")

	out, err := execute(t, "", "--storage", store, "slash", `{"name":"roll","options":[{"name":"formula","value":"2d1"}]}`)
	require.NoError(t, err)
	assert.Contains(t, out, "bot> ")

	_, err = execute(t, "", "--storage", store, "slash", `{"name":"nope"}`)
	assert.Error(t, err)
}

func TestReadmeCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "", "--storage", filepath.Join(dir, "store.json"), "readme", "--out", filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, out, "README.md updated")

	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "**`!ping`**")
	assert.NotContains(t, string(data), "shutdown")
}
