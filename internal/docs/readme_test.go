package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"botcore/pkg/cmd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *cmd.Invocation, cmd.Args) error { return nil }

func testRegistry(t *testing.T) *cmd.Registry {
	t.Helper()
	reg := cmd.NewRegistry()
	reg.MustRegister(
		cmd.New("roll").Category("Fun").Description("Roll dice").Optional("formula", cmd.KindString, "1d6", "").Handler(noop),
		cmd.New("ping").Category("Information").Description("Pong!").Handler(noop),
		cmd.New("shutdown").Category("Maintenance").Hidden().Style(cmd.StylePrefix).Handler(noop),
		cmd.New("prefix").Category("Maintenance").Description("Manage the prefix").
			Subcommand(cmd.New("set").Param("prefix", cmd.KindString, "").Handler(noop)).
			Build(),
		cmd.New("sync").Category("Maintenance").Style(cmd.StylePrefix).Handler(noop),
	)
	return reg
}

func TestCommandSections(t *testing.T) {
	got := CommandSections(testRegistry(t), "!")

	want := strings.Join([]string{
		"### Information",
		"",
		"- **`!ping`** - Pong!",
		"",
		"### Fun",
		"",
		"- **`!roll [formula]`** - Roll dice",
		"",
		"### Maintenance",
		"",
		"- **`!prefix`** - Manage the prefix",
		"  - **`!prefix set <prefix>`**",
		"- **`!sync`** _(prefix only)_",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestUpdateReadme(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "README.md")

	require.NoError(t, UpdateReadme(filepath.Join(dir, "missing.tmpl"), out, testRegistry(t), "!", "botcore"))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# botcore\n\n## Commands\n\n### Information"))

	tmpl := filepath.Join(dir, "README.md.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("Intro\n{{.CommandSections}}"), 0o644))
	require.NoError(t, UpdateReadme(tmpl, out, testRegistry(t), "/", "botcore"))
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Intro\n### Information\n\n- **`/ping`**")

	require.NoError(t, os.WriteFile(tmpl, []byte("{{.Nope"), 0o644))
	assert.Error(t, UpdateReadme(tmpl, out, testRegistry(t), "!", "botcore"))
}
