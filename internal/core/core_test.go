package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"botcore/datastore"
	"botcore/internal/config"
	"botcore/internal/storage"
	"botcore/pkg/cmd"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCore(t *testing.T, cfg *config.Config) (*Core, *storage.Storage) {
	t.Helper()
	dsCfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	dsCfg.AutoSaveInterval = 0
	st, err := storage.NewWithConfig(dsCfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	c, err := New(Options{Config: cfg, Store: st, Log: zerolog.Nop()})
	require.NoError(t, err)
	return c, st
}

func baseConfig() *config.Config {
	return &config.Config{
		CommandPrefix:         "!",
		CommandPrefixes:       []string{">>"},
		Owners:                []string{"owner"},
		CooldownSweepInterval: time.Hour,
	}
}

func run(c *Core, author, text string) cmd.Outcome {
	return c.Dispatcher.Dispatch(context.Background(), &cmd.Invocation{
		Style:     cmd.StylePrefix,
		Text:      text,
		Author:    cmd.Author{ID: author, Name: author},
		GuildID:   "g1",
		ChannelID: "c1",
	})
}

func TestCore_Prefixes(t *testing.T) {
	c, st := newCore(t, baseConfig())

	assert.True(t, run(c, "u1", "!ping").OK())
	assert.True(t, run(c, "u1", ">>ping").OK())
	assert.Equal(t, cmd.OutcomeNoMatch, run(c, "u1", "?ping").Kind)

	require.NoError(t, st.SetGuildPrefix("g1", "?"))
	assert.True(t, run(c, "u1", "?ping").OK())

	assert.Equal(t, cmd.OutcomeNoMatch, run(c, "u1", "!PING").Kind)
}

func TestCore_CaseInsensitive(t *testing.T) {
	cfg := baseConfig()
	cfg.CaseInsensitiveCommands = true
	c, _ := newCore(t, cfg)
	assert.True(t, run(c, "u1", "!PING").OK())
}

func TestCore_CategoryToggleAndHistory(t *testing.T) {
	c, st := newCore(t, baseConfig())

	require.True(t, run(c, "u1", "!roll 1d6").OK())
	assert.Equal(t, cmd.OutcomePermissionDenied, run(c, "u1", "!categories disable fun").Kind)
	require.True(t, run(c, "owner", "!categories disable fun").OK())

	o := run(c, "u2", "!roll")
	assert.Equal(t, cmd.OutcomePermissionDenied, o.Kind)
	assert.True(t, run(c, "u2", "!ping").OK())

	history, err := st.FetchCommandHistory("g1")
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "roll", history[0].Command)
}

func TestCore_CooldownsSurviveRestart(t *testing.T) {
	c, st := newCore(t, baseConfig())
	require.True(t, run(c, "u1", "!roll").OK())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunMaintenance(ctx)
		close(done)
	}()
	cancel()
	<-done

	restarted, err := New(Options{Config: baseConfig(), Store: st, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, cmd.OutcomeOnCooldown, run(restarted, "u1", "!roll").Kind)
	assert.True(t, run(restarted, "u2", "!roll").OK())
}

func TestCore_HelpWhenMentioned(t *testing.T) {
	cfg := baseConfig()
	cfg.HelpWhenMentioned = true
	c, _ := newCore(t, cfg)

	assert.Equal(t, cmd.OutcomeNoMatch, run(c, "u1", "<@42424242424242424>").Kind)

	c.Dispatcher.Matcher().SetSelfID("42424242424242424")
	o := run(c, "u1", "<@42424242424242424>")
	require.True(t, o.OK())
	assert.Equal(t, "help", o.Command.Name)

	o = run(c, "u1", "<@42424242424242424> ping")
	require.True(t, o.OK())
	assert.Equal(t, "ping", o.Command.Name)
}
