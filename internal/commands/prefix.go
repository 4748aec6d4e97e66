package commands

import (
	"context"
	"fmt"
	"strings"

	"botcore/pkg/cmd"
)

const maxPrefixLength = 5

func prefixCommand(deps *Deps) *cmd.Descriptor {
	show := cmd.New("show").
		Description("Show this server's prefix").
		Handler(func(ctx context.Context, inv *cmd.Invocation, _ cmd.Args) error {
			p, err := deps.Store.GuildPrefix(inv.GuildID)
			if err != nil {
				return err
			}
			if p == "" {
				return reply(ctx, inv, fmt.Sprintf("This server uses the default prefix `%s`.", deps.Prefix))
			}
			return reply(ctx, inv, fmt.Sprintf("This server's prefix is `%s`; `%s` works too.", p, deps.Prefix))
		})

	set := cmd.New("set").
		Description("Set an extra prefix for this server").
		Param("prefix", cmd.KindString, "Up to 5 characters, no spaces").
		Strict().
		Handler(func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			p := args.String("prefix")
			if p == "" || len([]rune(p)) > maxPrefixLength || strings.ContainsAny(p, " \t\n") {
				return reply(ctx, inv, fmt.Sprintf("A prefix must be 1 to %d characters without spaces.", maxPrefixLength))
			}
			if err := deps.Store.SetGuildPrefix(inv.GuildID, p); err != nil {
				return err
			}
			return reply(ctx, inv, fmt.Sprintf("Prefix set to `%s`.", p))
		})

	reset := cmd.New("reset").
		Description("Remove this server's extra prefix").
		Handler(func(ctx context.Context, inv *cmd.Invocation, _ cmd.Args) error {
			if err := deps.Store.SetGuildPrefix(inv.GuildID, ""); err != nil {
				return err
			}
			return reply(ctx, inv, "Prefix reset.")
		})

	return cmd.New("prefix").
		Description("Manage this server's command prefix").
		Category(CategoryMaintenance).
		GuildOnly().
		Permissions(PermManageGuild).
		Subcommand(show).
		Subcommand(set).
		Subcommand(reset).
		Build()
}

// GuildPrefixes returns a matcher callback that adds the guild's own prefix,
// if one is set.
func GuildPrefixes(store interface {
	GuildPrefix(guildID string) (string, error)
}) func(inv *cmd.Invocation) []cmd.Prefix {
	return func(inv *cmd.Invocation) []cmd.Prefix {
		if !inv.InGuild() {
			return nil
		}
		p, err := store.GuildPrefix(inv.GuildID)
		if err != nil || p == "" {
			return nil
		}
		return []cmd.Prefix{cmd.Literal(p)}
	}
}
