// Package core assembles the registry, built-in commands and dispatcher that
// every front end (Discord, the local CLI) shares.
package core

import (
	"context"
	"fmt"
	"time"

	"botcore/internal/commands"
	"botcore/internal/config"
	"botcore/internal/middleware"
	"botcore/internal/storage"
	"botcore/pkg/cmd"

	"github.com/rs/zerolog"
)

// Options are the front end specific pieces.
type Options struct {
	Config *config.Config
	Store  *storage.Storage

	Entities    cmd.EntityResolver
	Permissions cmd.PermissionResolver
	Reporter    cmd.Reporter

	Latency  func() time.Duration
	Shutdown func()

	// Extra is applied after the defaults.
	Extra []cmd.DispatcherOption
	Log   zerolog.Logger
}

// Core is a ready to use command pipeline.
type Core struct {
	Registry   *cmd.Registry
	Dispatcher *cmd.Dispatcher
	Cooldowns  *cmd.MemoryCooldowns

	store *storage.Storage
	cfg   *config.Config
}

func New(opts Options) (*Core, error) {
	cfg := opts.Config

	var regOpts []cmd.RegistryOption
	if cfg.CaseInsensitiveCommands {
		regOpts = append(regOpts, cmd.WithCaseInsensitive())
	}
	reg := cmd.NewRegistry(regOpts...)

	err := commands.Register(&commands.Deps{
		Registry: reg,
		Store:    opts.Store,
		Prefix:   cfg.CommandPrefix,
		Latency:  opts.Latency,
		Shutdown: opts.Shutdown,
	})
	if err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}

	prefixes, err := cfg.Prefixes()
	if err != nil {
		return nil, err
	}
	matcherOpts := []cmd.MatcherOption{
		cmd.WithPrefixes(prefixes...),
		cmd.WithDynamicPrefix(commands.GuildPrefixes(opts.Store)),
	}
	if cfg.HelpWhenMentioned {
		matcherOpts = append(matcherOpts, cmd.WithHelpWhenMentioned("help"))
	}
	matcher := cmd.NewMatcher(reg, matcherOpts...)

	cooldowns := cmd.NewMemoryCooldowns()
	if err := storage.RestoreCooldowns(cooldowns, opts.Store, time.Now()); err != nil {
		opts.Log.Warn().Err(err).Msg("failed to restore cooldowns")
	}

	dispOpts := []cmd.DispatcherOption{
		cmd.WithMatcher(matcher),
		cmd.WithCooldowns(cooldowns),
		cmd.WithOwners(cfg.Owners...),
		cmd.WithCheck(middleware.CategoryCheck(opts.Store, commands.CategoryMaintenance)),
		cmd.WithMiddleware(
			middleware.WithCommandLogger(opts.Log),
			middleware.WithHistory(opts.Store),
		),
		cmd.WithLogger(opts.Log),
	}
	if opts.Entities != nil {
		dispOpts = append(dispOpts, cmd.WithEntityResolver(opts.Entities))
	}
	if opts.Permissions != nil {
		dispOpts = append(dispOpts, cmd.WithPermissions(opts.Permissions))
	}
	if opts.Reporter != nil {
		dispOpts = append(dispOpts, cmd.WithReporter(opts.Reporter))
	}
	dispOpts = append(dispOpts, opts.Extra...)

	return &Core{
		Registry:   reg,
		Dispatcher: cmd.NewDispatcher(reg, dispOpts...),
		Cooldowns:  cooldowns,
		store:      opts.Store,
		cfg:        cfg,
	}, nil
}

// RunMaintenance sweeps and persists cooldowns until ctx is done.
func (c *Core) RunMaintenance(ctx context.Context) {
	storage.RunCooldownCleaner(ctx, c.Cooldowns, c.store, c.cfg.CooldownSweepInterval)
}
