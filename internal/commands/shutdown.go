package commands

import (
	"context"

	"botcore/pkg/cmd"
)

func shutdownCommand(deps *Deps) *cmd.Descriptor {
	return cmd.New("shutdown").
		Description("Stop the bot").
		Category(CategoryMaintenance).
		OwnersOnly().
		Hidden().
		Style(cmd.StylePrefix).
		Handler(func(ctx context.Context, inv *cmd.Invocation, _ cmd.Args) error {
			if err := reply(ctx, inv, "Shutting down."); err != nil {
				return err
			}
			if deps.Shutdown != nil {
				deps.Shutdown()
			}
			return nil
		})
}
