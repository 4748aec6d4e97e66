package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"botcore/internal/config"
	"botcore/internal/version"
	"botcore/pkg/cmd"
	"botcore/pkg/util"
)

func helpCommand(deps *Deps) *cmd.Descriptor {
	return cmd.New("help").
		Aliases("commands").
		Description("Get a list of available commands").
		Category(CategoryInformation).
		CaseInsensitive().
		Optional("command", cmd.KindGreedy, "", "Show details for one command").
		Handler(func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			if name := args.String("command"); name != "" {
				d, ok := deps.Registry.ResolvePath(strings.Fields(name))
				if !ok || d.Hidden {
					return reply(ctx, inv, fmt.Sprintf("No command called `%s`.", name))
				}
				return reply(ctx, inv, commandHelp(d, deps.Prefix))
			}
			return reply(ctx, inv, buildHelpByCategory(deps.Registry.All(), deps.Prefix))
		})
}

func buildHelpByCategory(all []*cmd.Descriptor, prefix string) string {
	categoryMap := make(map[string][]*cmd.Descriptor)
	for _, d := range all {
		if d.Hidden {
			continue
		}
		cat := d.Category
		if cat == "" {
			cat = "Other"
		}
		categoryMap[cat] = append(categoryMap[cat], d)
	}

	cats := make([]string, 0, len(categoryMap))
	for c := range categoryMap {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeight(cats[i]), config.CategoryWeight(cats[j])
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s Help**\n\n", version.AppName)
	for _, cat := range cats {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		for _, d := range categoryMap[cat] {
			fmt.Fprintf(&sb, "`%s` - %s\n", d.Name, d.Description)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Type `%shelp <command>` for details.", prefix)
	return sb.String()
}

func commandHelp(d *cmd.Descriptor, prefix string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", d.QualifiedName())
	if d.Description != "" {
		fmt.Fprintf(&sb, " - %s", d.Description)
	}
	sb.WriteString("\n")

	if d.Handler != nil {
		fmt.Fprintf(&sb, "Usage: `%s`\n", Usage(d, prefix))
		for _, p := range d.Params {
			if p.Description != "" {
				fmt.Fprintf(&sb, "• `%s` (%s): %s\n", p.Name, p.Kind, p.Description)
			}
		}
	}
	if len(d.Subcommands) > 0 {
		sb.WriteString("Subcommands:\n")
		for _, sub := range d.Subcommands {
			fmt.Fprintf(&sb, "`%s` - %s\n", Usage(sub, prefix), sub.Description)
		}
	}
	if len(d.Aliases) > 0 {
		fmt.Fprintf(&sb, "Aliases: %s\n", strings.Join(d.Aliases, ", "))
	}
	if d.Cooldown.Duration > 0 {
		fmt.Fprintf(&sb, "Cooldown: %s per %s\n", util.HumanDuration(d.Cooldown.Duration), d.Cooldown.Scope)
	}
	if !d.Allows(cmd.StylePrefix) {
		sb.WriteString("Slash command only.\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Usage renders e.g. "!roll [formula]" or "!echo <text...>".
func Usage(d *cmd.Descriptor, prefix string) string {
	parts := []string{prefix + d.QualifiedName()}
	for _, p := range d.Params {
		name := p.Name
		if p.Kind == cmd.KindGreedy {
			name += "..."
		}
		if p.Optional {
			parts = append(parts, "["+name+"]")
		} else {
			parts = append(parts, "<"+name+">")
		}
	}
	return strings.Join(parts, " ")
}
