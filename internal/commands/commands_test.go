package commands

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcore/datastore"
	"botcore/internal/storage"
	"botcore/pkg/cmd"
)

type harness struct {
	t       *testing.T
	disp    *cmd.Dispatcher
	store   *storage.Storage
	replies []string
	stopped bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	cfg.AutoSaveInterval = 0
	cfg.BackupCount = 0
	st, err := storage.NewWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	h := &harness{t: t, store: st}
	reg := cmd.NewRegistry()
	deps := &Deps{
		Registry: reg,
		Store:    st,
		Prefix:   "!",
		Latency:  func() time.Duration { return 42 * time.Millisecond },
		Shutdown: func() { h.stopped = true },
		Intn:     func(n int) int { return n - 1 },
	}
	require.NoError(t, Register(deps))

	perms := cmd.PermissionResolverFunc(func(_ context.Context, inv *cmd.Invocation) (int64, error) {
		if inv.Author.ID == "admin" {
			return PermManageGuild, nil
		}
		return 0, nil
	})
	resolver := cmd.EntityResolverFunc(func(_ context.Context, kind cmd.Kind, id string, _ *cmd.Invocation) (cmd.Entity, error) {
		return cmd.Entity{Kind: kind, ID: id, Name: "user-" + id[:3]}, nil
	})
	h.disp = cmd.NewDispatcher(reg,
		cmd.WithMatcher(cmd.NewMatcher(reg, cmd.WithPrefixes(cmd.Literal("!")), cmd.WithDynamicPrefix(GuildPrefixes(st)))),
		cmd.WithPermissions(perms),
		cmd.WithEntityResolver(resolver),
		cmd.WithOwners("owner"),
	)
	return h
}

func (h *harness) run(author, text string) cmd.Outcome {
	h.t.Helper()
	inv := &cmd.Invocation{
		Style:     cmd.StylePrefix,
		Text:      text,
		Author:    cmd.Author{ID: author, Name: author},
		GuildID:   "g1",
		ChannelID: "c1",
		Responder: cmd.ResponderFunc(func(_ context.Context, s string) error {
			h.replies = append(h.replies, s)
			return nil
		}),
	}
	return h.disp.Dispatch(context.Background(), inv)
}

func (h *harness) last() string {
	if len(h.replies) == 0 {
		return ""
	}
	return h.replies[len(h.replies)-1]
}

func TestPingAndEcho(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.run("u1", "!ping").OK())
	assert.Equal(t, "🏓 Pong! Response time: `42ms`", h.last())

	assert.Equal(t, cmd.OutcomeArgumentError, h.run("u1", "!ping now").Kind)

	require.True(t, h.run("u1", "!say hello   world").OK())
	assert.Equal(t, "hello   world", h.last())
}

func TestRoll(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.run("u1", "!roll 2d6+1d4*2-3").OK())
	// Intn always returns the highest face: 12 + 4*2 - 3.
	assert.Contains(t, h.last(), "**17**")
	assert.Contains(t, h.last(), "`2d6` [6, 6]")

	o := h.run("u1", "!roll")
	assert.Equal(t, cmd.OutcomeOnCooldown, o.Kind)

	require.True(t, h.run("u2", "!roll").OK())
	assert.Contains(t, h.last(), "**6**")

	o = h.run("u3", "!roll 2d6+")
	require.Equal(t, cmd.OutcomeArgumentError, o.Kind)
	ae, _ := o.ArgumentError()
	assert.Equal(t, cmd.ReasonCustom, ae.Reason)
}

func TestParseFormula(t *testing.T) {
	bad := []string{"", "abc", "2d6+", "*3", "2d1", "101d6", "0d6", "2d6 x", "3++4"}
	for _, in := range bad {
		_, err := parseFormula(context.Background(), in, nil)
		assert.Error(t, err, in)
	}

	v, err := parseFormula(context.Background(), "10 / 0", nil)
	require.NoError(t, err)
	_, _, err = v.(formula).roll(func(int) int { return 0 })
	assert.ErrorContains(t, err, "division by zero")

	v, err = parseFormula(context.Background(), "7-2*3", nil)
	require.NoError(t, err)
	total, _, err := v.(formula).roll(func(int) int { return 0 })
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestWhois(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.run("u1", "!whois <@123456789012345678>").OK())
	assert.Equal(t, "**user-123** (`123456789012345678`)", h.last())

	require.True(t, h.run("u1", "!whois").OK())
	assert.Equal(t, "**u1** (`u1`)", h.last())
}

func TestHelp(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.run("u1", "!HELP").OK())
	out := h.last()
	assert.Contains(t, out, "`ping` - Pong!")
	assert.NotContains(t, out, "shutdown")
	assert.Less(t, strings.Index(out, "**Information**"), strings.Index(out, "**Maintenance**"))

	require.True(t, h.run("u1", "!help roll").OK())
	assert.Contains(t, h.last(), "Usage: `!roll [formula]`")
	assert.Contains(t, h.last(), "Cooldown: 3s per user")

	require.True(t, h.run("u1", "!help prefix").OK())
	assert.Contains(t, h.last(), "`!prefix set <prefix>`")

	require.True(t, h.run("u1", "!help prefix set").OK())
	assert.Contains(t, h.last(), "**prefix set**")

	require.True(t, h.run("u1", "!help shutdown").OK())
	assert.Equal(t, "No command called `shutdown`.", h.last())
}

func TestPrefixCommand(t *testing.T) {
	h := newHarness(t)

	o := h.run("u1", "!prefix set ?")
	assert.Equal(t, cmd.OutcomePermissionDenied, o.Kind)

	require.True(t, h.run("admin", "!prefix set ?").OK())
	p, err := h.store.GuildPrefix("g1")
	require.NoError(t, err)
	assert.Equal(t, "?", p)

	require.True(t, h.run("admin", "!prefix show").OK())
	assert.Contains(t, h.last(), "`?`")
	assert.True(t, h.run("u1", "?ping").OK(), "guild prefix works")
	assert.True(t, h.run("u1", "!ping").OK(), "default prefix still works")

	require.True(t, h.run("admin", "!prefix set waytoolong").OK())
	assert.Contains(t, h.last(), "1 to 5 characters")

	require.True(t, h.run("admin", "!prefix reset").OK())
	p, _ = h.store.GuildPrefix("g1")
	assert.Empty(t, p)
	assert.Equal(t, cmd.OutcomeNoMatch, h.run("u1", "?ping").Kind)

	assert.Equal(t, cmd.OutcomeNoMatch, h.run("admin", "!prefix").Kind)
}

func TestCategoriesCommand(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.run("admin", "!categories disable fun").OK())
	assert.Equal(t, "Category **Fun** disabled.", h.last())
	off, _ := h.store.IsCategoryDisabled("g1", "Fun")
	assert.True(t, off)

	require.True(t, h.run("admin", "!categories disable maintenance").OK())
	assert.Contains(t, h.last(), "always on")

	require.True(t, h.run("admin", "!categories disable nope").OK())
	assert.Contains(t, h.last(), "Unknown category")

	require.True(t, h.run("admin", "!categories status").OK())
	assert.Equal(t, "Disabled: fun", h.last())

	require.True(t, h.run("admin", "!categories enable Fun").OK())
	off, _ = h.store.IsCategoryDisabled("g1", "Fun")
	assert.False(t, off)
}

func TestLogCommand(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.run("admin", "!log").OK())
	assert.Equal(t, "No command logs found.", h.last())

	require.NoError(t, h.store.AppendCommandToHistory("g1", storage.CommandHistoryRecord{
		Username: "alice", Command: "roll", Param: "2d6", Style: "prefix", Datetime: time.Now(),
	}))
	require.True(t, h.run("admin", "!log").OK())
	assert.Contains(t, h.last(), "roll 2d6")
	assert.True(t, strings.HasPrefix(h.last(), "```md\n"))
}

func TestFormatHistoryFitsOneMessage(t *testing.T) {
	var recs []storage.CommandHistoryRecord
	for range 200 {
		recs = append(recs, storage.CommandHistoryRecord{Username: "someone", Command: "echo", Param: strings.Repeat("x", 60)})
	}
	assert.LessOrEqual(t, len(formatHistory(recs)), discordMaxMessageLength)
}

func TestShutdown(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, cmd.OutcomePermissionDenied, h.run("u1", "!shutdown").Kind)
	assert.False(t, h.stopped)

	require.True(t, h.run("owner", "!shutdown").OK())
	assert.True(t, h.stopped)
}

func TestAbout(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.run("u1", "!about").OK())
	assert.Contains(t, h.last(), "botcore")
}

func TestUsage(t *testing.T) {
	d := cmd.New("echo").Param("text", cmd.KindGreedy, "").Handler(func(context.Context, *cmd.Invocation, cmd.Args) error { return nil })
	assert.Equal(t, "?echo <text...>", Usage(d, "?"))
}
