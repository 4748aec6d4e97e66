package commands

import (
	"context"

	"botcore/pkg/cmd"
)

func echoCommand() *cmd.Descriptor {
	return cmd.New("echo").
		Aliases("say").
		Description("Repeat what you said").
		Category(CategoryUtilities).
		Param("text", cmd.KindGreedy, "What to repeat").
		TrackEdits().
		Handler(func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			return reply(ctx, inv, args.String("text"))
		})
}
