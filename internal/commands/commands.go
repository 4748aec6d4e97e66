// Package commands holds the bot's built-in commands. They only talk to the
// core through Invocation.Reply, so every command works for both prefix and
// slash invocations.
package commands

import (
	"context"
	"math/rand/v2"
	"time"

	"botcore/internal/storage"
	"botcore/pkg/cmd"
)

const (
	CategoryInformation = "Information"
	CategoryUtilities   = "Utilities"
	CategoryFun         = "Fun"
	CategoryMaintenance = "Maintenance"
)

// Discord's MANAGE_GUILD permission bit.
const PermManageGuild int64 = 1 << 5

const (
	discordMaxMessageLength = 2000
	codeBlockOverhead       = len("```md\n") + len("```")
)

// Store is the guild state the commands read and write.
type Store interface {
	FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error)
	SetGuildPrefix(guildID, prefix string) error
	GuildPrefix(guildID string) (string, error)
	DisableCategory(guildID, category string) error
	EnableCategory(guildID, category string) error
	DisabledCategories(guildID string) ([]string, error)
}

// Deps carries what the commands need from the running bot.
type Deps struct {
	Registry *cmd.Registry
	Store    Store
	// Prefix is shown in help output.
	Prefix string
	// Latency reports the gateway heartbeat latency, if known.
	Latency func() time.Duration
	// Shutdown stops the bot.
	Shutdown func()
	// Intn returns a number in [0, n); defaults to math/rand/v2.
	Intn func(n int) int
}

// Register adds every built-in command to deps.Registry.
func Register(deps *Deps) error {
	if deps.Intn == nil {
		deps.Intn = rand.IntN
	}
	if deps.Prefix == "" {
		deps.Prefix = "!"
	}
	all := []*cmd.Descriptor{
		pingCommand(deps),
		echoCommand(),
		rollCommand(deps),
		whoisCommand(),
		helpCommand(deps),
		aboutCommand(),
		prefixCommand(deps),
		categoriesCommand(deps),
		logCommand(deps),
		shutdownCommand(deps),
	}
	for _, d := range all {
		if err := deps.Registry.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func reply(ctx context.Context, inv *cmd.Invocation, msg string) error {
	return inv.Reply(ctx, msg)
}
