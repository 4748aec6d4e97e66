package discord

import (
	"strings"

	"botcore/pkg/cmd"
	"botcore/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const maxDescriptionLength = 100

var optionTypes = map[cmd.Kind]discordgo.ApplicationCommandOptionType{
	cmd.KindString:  discordgo.ApplicationCommandOptionString,
	cmd.KindGreedy:  discordgo.ApplicationCommandOptionString,
	cmd.KindCustom:  discordgo.ApplicationCommandOptionString,
	cmd.KindInt:     discordgo.ApplicationCommandOptionInteger,
	cmd.KindBool:    discordgo.ApplicationCommandOptionBoolean,
	cmd.KindUser:    discordgo.ApplicationCommandOptionUser,
	cmd.KindChannel: discordgo.ApplicationCommandOptionChannel,
	cmd.KindRole:    discordgo.ApplicationCommandOptionRole,
}

// Definitions returns the application commands for every registered command
// that can be invoked as a slash command.
func Definitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, d := range reg.All() {
		if def := Definition(d); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

// Definition maps a top level descriptor to a chat input command. It returns
// nil for prefix-only commands. Subcommands become SubCommand options and a
// second level becomes a SubCommandGroup.
func Definition(d *cmd.Descriptor) *discordgo.ApplicationCommand {
	if !d.Allows(cmd.StyleSlash) {
		return nil
	}
	def := &discordgo.ApplicationCommand{
		Type:        discordgo.ChatApplicationCommand,
		Name:        strings.ToLower(d.Name),
		Description: describe(d.Description),
		Options:     options(d, 0),
	}
	if d.Permissions != 0 {
		perms := d.Permissions
		def.DefaultMemberPermissions = &perms
	}
	if d.GuildOnly {
		dm := false
		def.DMPermission = &dm
	}
	return def
}

func options(d *cmd.Descriptor, depth int) []*discordgo.ApplicationCommandOption {
	if len(d.Subcommands) == 0 {
		return params(d.Params)
	}
	var opts []*discordgo.ApplicationCommandOption
	for _, sub := range d.Subcommands {
		if !sub.Allows(cmd.StyleSlash) {
			continue
		}
		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        strings.ToLower(sub.Name),
			Description: describe(sub.Description),
		}
		if len(sub.Subcommands) > 0 && depth == 0 {
			opt.Type = discordgo.ApplicationCommandOptionSubCommandGroup
			opt.Options = options(sub, depth+1)
		} else {
			opt.Options = params(sub.Params)
		}
		opts = append(opts, opt)
	}
	return opts
}

func params(ps []cmd.Param) []*discordgo.ApplicationCommandOption {
	if len(ps) == 0 {
		return nil
	}
	opts := make([]*discordgo.ApplicationCommandOption, 0, len(ps))
	for _, p := range ps {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        optionTypes[p.Kind],
			Name:        strings.ToLower(p.Name),
			Description: describe(p.Description),
			Required:    !p.Optional,
		})
	}
	return opts
}

func describe(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "No description"
	}
	return util.Truncate(s, maxDescriptionLength)
}
