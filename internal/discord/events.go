package discord

import (
	"botcore/internal/config"
	"botcore/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Event is the Discord payload carried in cmd.Invocation.Data.
type Event struct {
	Message     *discordgo.Message
	Interaction *discordgo.Interaction
}

// eventOf returns the Discord payload of inv, if it came from this adapter.
func eventOf(inv *cmd.Invocation) (*Event, bool) {
	ev, ok := inv.Data.(*Event)
	return ev, ok && ev != nil
}

// acceptAuthor applies the bot and self filters to a message author.
func acceptAuthor(author *discordgo.User, selfID string, cfg *config.Config) bool {
	switch {
	case author == nil:
		return false
	case author.ID == selfID:
		return cfg.ExecuteSelfMessages
	case author.Bot:
		return !cfg.IgnoreBots
	}
	return true
}

func authorOf(u *discordgo.User, m *discordgo.Member) cmd.Author {
	if u == nil && m != nil {
		u = m.User
	}
	if u == nil {
		return cmd.Author{}
	}
	name := u.Username
	switch {
	case m != nil && m.Nick != "":
		name = m.Nick
	case u.GlobalName != "":
		name = u.GlobalName
	}
	return cmd.Author{ID: u.ID, Name: name, Bot: u.Bot}
}

// messageInvocation builds a prefix invocation from a created or edited
// message. The responder is filled in by the caller.
func messageInvocation(m *discordgo.Message, edited bool) *cmd.Invocation {
	return &cmd.Invocation{
		Style:     cmd.StylePrefix,
		Text:      m.Content,
		Author:    authorOf(m.Author, m.Member),
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Edited:    edited,
		Data:      &Event{Message: m},
	}
}

// interactionInvocation builds a slash invocation from an application
// command interaction. Subcommand and group options are folded into Path; the
// leaf options become Options. It returns false for other interaction types.
func interactionInvocation(i *discordgo.Interaction) (*cmd.Invocation, bool) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	data := i.ApplicationCommandData()
	if data.CommandType != 0 && data.CommandType != discordgo.ChatApplicationCommand {
		return nil, false
	}

	path := []string{data.Name}
	opts := data.Options
	for len(opts) == 1 && isSubcommand(opts[0].Type) {
		path = append(path, opts[0].Name)
		opts = opts[0].Options
	}
	options := make([]cmd.Option, 0, len(opts))
	for _, o := range opts {
		options = append(options, cmd.Option{Name: o.Name, Value: o.Value})
	}

	return &cmd.Invocation{
		Style:     cmd.StyleSlash,
		Path:      path,
		Options:   options,
		Author:    authorOf(i.User, i.Member),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Data:      &Event{Interaction: i},
	}, true
}

func isSubcommand(t discordgo.ApplicationCommandOptionType) bool {
	return t == discordgo.ApplicationCommandOptionSubCommand ||
		t == discordgo.ApplicationCommandOptionSubCommandGroup
}
