package discord

import (
	"context"
	"fmt"

	"botcore/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

type commandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// SyncResult counts what a sync changed on Discord.
type SyncResult struct {
	Created int
	Deleted int
}

// CommandSyncer pushes slash command definitions to a guild. Commands whose
// hash matches the cache and that still exist remotely are left alone.
type CommandSyncer struct {
	api     commandAPI
	cache   *HashCache
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig
	log     zerolog.Logger
}

func NewCommandSyncer(api commandAPI, cache *HashCache, log zerolog.Logger) *CommandSyncer {
	retry := retrylimit.DefaultRetryConfig()
	retry.Logger = log
	return &CommandSyncer{
		api:     api,
		cache:   cache,
		limiter: retrylimit.NewAdaptiveLimiter(20, 1, 40, 1, 0.5),
		retry:   retry,
		log:     log,
	}
}

func (c *CommandSyncer) do(ctx context.Context, fn func() error) error {
	return retrylimit.WithRetryConfig(ctx, func() error {
		return classifyREST(fn())
	}, c.limiter, c.retry)
}

// Sync makes the guild's commands match wanted.
func (c *CommandSyncer) Sync(ctx context.Context, appID, guildID string, wanted []*discordgo.ApplicationCommand) (SyncResult, error) {
	var res SyncResult
	opt := discordgo.WithContext(ctx)

	var remote []*discordgo.ApplicationCommand
	err := c.do(ctx, func() (err error) {
		remote, err = c.api.ApplicationCommands(appID, guildID, opt)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("list commands: %w", err)
	}

	hashes := c.cache.Load(guildID)
	wantedHashes := make(map[string]string, len(wanted))
	for _, def := range wanted {
		wantedHashes[def.Name] = commandHash(def)
	}

	existing := make(map[string]bool, len(remote))
	for _, old := range remote {
		if _, ok := wantedHashes[old.Name]; ok {
			existing[old.Name] = true
			continue
		}
		err := c.do(ctx, func() error {
			return c.api.ApplicationCommandDelete(appID, guildID, old.ID, opt)
		})
		if err != nil {
			c.log.Error().Err(err).Str("guild", guildID).Str("command", old.Name).Msg("failed to delete obsolete command")
			continue
		}
		c.log.Info().Str("guild", guildID).Str("command", old.Name).Msg("deleted obsolete command")
		delete(hashes, old.Name)
		res.Deleted++
	}

	var firstErr error
	for _, def := range wanted {
		hash := wantedHashes[def.Name]
		if existing[def.Name] && hashes[def.Name] == hash {
			continue
		}
		err := c.do(ctx, func() error {
			_, err := c.api.ApplicationCommandCreate(appID, guildID, def, opt)
			return err
		})
		if err != nil {
			c.log.Error().Err(err).Str("guild", guildID).Str("command", def.Name).Msg("failed to create command")
			if firstErr == nil {
				firstErr = fmt.Errorf("create %s: %w", def.Name, err)
			}
			continue
		}
		hashes[def.Name] = hash
		res.Created++
	}

	if err := c.cache.Save(guildID, hashes); err != nil {
		c.log.Warn().Err(err).Str("guild", guildID).Msg("failed to save command cache")
	}
	return res, firstErr
}
