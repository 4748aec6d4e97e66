// Package discord connects the command core to the Discord gateway: it turns
// messages and interactions into invocations, answers them, resolves
// mentions and permissions, and keeps guild slash commands in sync.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"botcore/internal/config"
	"botcore/pkg/cmd"
	"botcore/pkg/jobmgr"
	"botcore/pkg/util"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const (
	syncWorkers   = 4
	editPurgeTick = time.Minute
)

// NewSession creates a gateway session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return dg, nil
}

// Bot feeds Discord events into a dispatcher.
type Bot struct {
	dg     *discordgo.Session
	cfg    *config.Config
	disp   *cmd.Dispatcher
	edits  *EditTracker
	syncer *CommandSyncer
	cache  *HashCache
	log    zerolog.Logger

	ctx    context.Context
	jobs   *jobmgr.Manager
	events chan *cmd.Invocation

	mu     sync.Mutex
	synced map[string]bool
}

func New(dg *discordgo.Session, cfg *config.Config, disp *cmd.Dispatcher, edits *EditTracker, log zerolog.Logger) *Bot {
	cache := NewHashCache(cfg.CommandCacheDir)
	return &Bot{
		dg:     dg,
		cfg:    cfg,
		disp:   disp,
		edits:  edits,
		cache:  cache,
		syncer: NewCommandSyncer(dg, cache, log),
		log:    log,
		ctx:    context.Background(),
		events: make(chan *cmd.Invocation, 64),
		synced: make(map[string]bool),
	}
}

// Latency is the last gateway heartbeat round trip.
func (b *Bot) Latency() time.Duration {
	return b.dg.HeartbeatLatency()
}

// Run opens the gateway and dispatches events until ctx is done. In-flight
// commands finish before it returns.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onGuildDelete)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onMessageUpdate)
	b.dg.AddHandler(b.onInteractionCreate)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.ctx = ctx
	b.jobs = jobmgr.NewManager(ctx, b.reportJob)
	b.startJob("dispatch", func(ctx context.Context) error {
		b.disp.Run(ctx, b.events)
		return nil
	})
	b.startJob("edit-purge", func(ctx context.Context) error {
		b.edits.Run(ctx, editPurgeTick)
		return nil
	})

	if err := b.dg.Open(); err != nil {
		cancel()
		b.jobs.Wait()
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing session")
	err := b.dg.Close()
	b.jobs.Wait()
	return err
}

func (b *Bot) reportJob(name string, state jobmgr.State, err error) {
	switch state {
	case jobmgr.StateFailed:
		b.log.Error().Err(err).Str("job", name).Msg("job failed")
	default:
		b.log.Debug().Str("job", name).Stringer("state", state).Msg("job")
	}
}

// startJob runs fn as a named job; a job already running under the same
// name wins.
func (b *Bot) startJob(name string, fn func(ctx context.Context) error) {
	if b.jobs == nil {
		return
	}
	if err := b.jobs.StartAsync(name, fn); err != nil {
		b.log.Debug().Err(err).Msg("job not started")
	}
}

func (b *Bot) enqueue(inv *cmd.Invocation) {
	select {
	case b.events <- inv:
	case <-b.ctx.Done():
	}
}

func (b *Bot) selfID() string {
	if b.dg.State == nil || b.dg.State.User == nil {
		return ""
	}
	return b.dg.State.User.ID
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if b.cfg.MentionAsPrefix {
		b.disp.Matcher().SetSelfID(r.User.ID)
	}

	var guilds []string
	for _, g := range r.Guilds {
		if b.leaveIfBlacklisted(s, g.ID) {
			continue
		}
		guilds = append(guilds, g.ID)
	}

	if b.cfg.InitSlashCommands {
		b.startJob("sync-commands", func(ctx context.Context) error {
			return b.syncGuilds(ctx, guilds)
		})
	} else {
		b.log.Info().Msg("slash command registration skipped")
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	if b.cfg.InitSlashCommands {
		b.startJob("sync-commands:"+g.ID, func(ctx context.Context) error {
			b.syncGuild(ctx, g.ID, Definitions(b.disp.Registry()))
			return nil
		})
	}
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		return
	}
	b.log.Info().Str("guild", g.ID).Msg("removed from guild")
	b.mu.Lock()
	delete(b.synced, g.ID)
	b.mu.Unlock()
	if err := b.cache.Forget(g.ID); err != nil {
		b.log.Warn().Err(err).Str("guild", g.ID).Msg("failed to drop command cache")
	}
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !b.cfg.IsBlacklisted(guildID) {
		return false
	}
	b.log.Info().Str("guild", guildID).Msg("leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("failed to leave guild")
	}
	return true
}

func (b *Bot) syncGuilds(ctx context.Context, guildIDs []string) error {
	defs := Definitions(b.disp.Registry())
	err := util.Parallel(ctx, guildIDs, syncWorkers, func(ctx context.Context, id string) error {
		b.syncGuild(ctx, id, defs)
		return nil
	})
	if err != nil {
		return fmt.Errorf("slash command sync interrupted: %w", err)
	}
	return nil
}

// syncGuild registers slash commands once per guild per session.
func (b *Bot) syncGuild(ctx context.Context, guildID string, defs []*discordgo.ApplicationCommand) {
	b.mu.Lock()
	if b.synced[guildID] {
		b.mu.Unlock()
		return
	}
	b.synced[guildID] = true
	b.mu.Unlock()

	res, err := b.syncer.Sync(ctx, b.selfID(), guildID, defs)
	if err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("failed to sync slash commands")
		return
	}
	if res.Created > 0 || res.Deleted > 0 {
		b.log.Info().Str("guild", guildID).Int("created", res.Created).Int("deleted", res.Deleted).Msg("slash commands synced")
	}
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if !acceptAuthor(m.Author, b.selfID(), b.cfg) {
		return
	}
	b.enqueue(b.messageInvocation(m.Message, false))
}

// onMessageUpdate re-runs commands whose message is still being tracked.
func (b *Bot) onMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Message == nil || !acceptAuthor(m.Author, b.selfID(), b.cfg) {
		return
	}
	if !b.edits.Tracked(m.ID, time.Now()) {
		return
	}
	b.enqueue(b.messageInvocation(m.Message, true))
}

func (b *Bot) messageInvocation(m *discordgo.Message, edited bool) *cmd.Invocation {
	inv := messageInvocation(m, edited)
	inv.Responder = &messageResponder{s: b.dg, msg: m, edits: b.edits, edited: edited}
	return inv
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	inv, ok := interactionInvocation(i.Interaction)
	if !ok {
		b.log.Debug().Int("type", int(i.Type)).Msg("ignoring interaction")
		return
	}
	inv.Responder = &interactionResponder{s: s, i: i.Interaction}
	b.enqueue(inv)
}
