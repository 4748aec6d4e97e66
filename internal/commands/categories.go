package commands

import (
	"context"
	"fmt"
	"strings"

	"botcore/pkg/cmd"
)

// categoriesCommand toggles whole command categories per server. The
// Maintenance category can't be disabled.
func categoriesCommand(deps *Deps) *cmd.Descriptor {
	known := func(name string) (string, bool) {
		for _, d := range deps.Registry.All() {
			if strings.EqualFold(d.Category, name) {
				return d.Category, true
			}
		}
		return "", false
	}

	toggle := func(enable bool) cmd.HandlerFunc {
		return func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			cat, ok := known(args.String("category"))
			if !ok {
				return reply(ctx, inv, fmt.Sprintf("Unknown category `%s`.", args.String("category")))
			}
			if strings.EqualFold(cat, CategoryMaintenance) {
				return reply(ctx, inv, "The Maintenance category is always on.")
			}
			var err error
			if enable {
				err = deps.Store.EnableCategory(inv.GuildID, cat)
			} else {
				err = deps.Store.DisableCategory(inv.GuildID, cat)
			}
			if err != nil {
				return err
			}
			state := "disabled"
			if enable {
				state = "enabled"
			}
			return reply(ctx, inv, fmt.Sprintf("Category **%s** %s.", cat, state))
		}
	}

	enable := cmd.New("enable").
		Description("Enable a command category").
		Param("category", cmd.KindGreedy, "Category name").
		Handler(toggle(true))
	disable := cmd.New("disable").
		Description("Disable a command category").
		Param("category", cmd.KindGreedy, "Category name").
		Handler(toggle(false))
	status := cmd.New("status").
		Description("List disabled categories").
		Handler(func(ctx context.Context, inv *cmd.Invocation, _ cmd.Args) error {
			off, err := deps.Store.DisabledCategories(inv.GuildID)
			if err != nil {
				return err
			}
			if len(off) == 0 {
				return reply(ctx, inv, "All categories are enabled.")
			}
			return reply(ctx, inv, "Disabled: "+strings.Join(off, ", "))
		})

	return cmd.New("categories").
		Description("Turn command categories on or off for this server").
		Category(CategoryMaintenance).
		GuildOnly().
		Permissions(PermManageGuild).
		Subcommand(enable).
		Subcommand(disable).
		Subcommand(status).
		Build()
}
