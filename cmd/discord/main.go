// Command discord runs the bot against the Discord gateway.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botcore/datastore"
	"botcore/internal/config"
	"botcore/internal/core"
	"botcore/internal/discord"
	"botcore/internal/logger"
	"botcore/internal/storage"
	v "botcore/internal/version"
	"botcore/pkg/cmd"
	"botcore/pkg/jobmgr"
)

func main() {
	if err := run(); err != nil {
		logger.L.Error().Err(err).Msg("bot stopped")
		os.Exit(1)
	}
}

func run() error {
	cfg, loaded, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	defer logger.Close()

	log := logger.Component("main")
	log.Info().Str("version", v.Version).Bool("dotenv", loaded).Msgf("Starting %s bot", v.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsCfg := datastore.DefaultConfig(cfg.StoragePath)
	dsCfg.Logger = logger.Component("datastore")
	store, err := storage.NewWithConfig(dsCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	edits := discord.NewEditTracker(cfg.EditTrackWindow)
	resolver := discord.NewResolver(session)
	c, err := core.New(core.Options{
		Config:      cfg,
		Store:       store,
		Entities:    resolver,
		Permissions: resolver,
		Reporter:    discord.NewReporter(cfg.CommandPrefix, logger.Component("reporter")),
		Latency:     session.HeartbeatLatency,
		Shutdown:    stop,
		Extra:       []cmd.DispatcherOption{cmd.WithOnInvoke(discord.TrackEditsHook(edits, time.Now))},
		Log:         logger.Component("dispatch"),
	})
	if err != nil {
		return err
	}

	jobs := jobmgr.NewManager(ctx, func(name string, state jobmgr.State, err error) {
		log.Debug().Err(err).Str("job", name).Stringer("state", state).Msg("job")
	})
	if err := jobs.StartAsync("maintenance", func(ctx context.Context) error {
		c.RunMaintenance(ctx)
		return nil
	}); err != nil {
		return err
	}

	bot := discord.New(session, cfg, c.Dispatcher, edits, logger.Component("discord"))
	err = bot.Run(ctx)
	stop()
	jobs.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Bot stopped cleanly")
	return nil
}
