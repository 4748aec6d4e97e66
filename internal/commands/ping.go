package commands

import (
	"context"
	"fmt"

	"botcore/pkg/cmd"
)

func pingCommand(deps *Deps) *cmd.Descriptor {
	return cmd.New("ping").
		Description("Pong!").
		Category(CategoryInformation).
		Strict().
		Handler(func(ctx context.Context, inv *cmd.Invocation, _ cmd.Args) error {
			msg := "🏓 Pong!"
			if deps.Latency != nil {
				msg += fmt.Sprintf(" Response time: `%dms`", deps.Latency().Milliseconds())
			}
			return reply(ctx, inv, msg)
		})
}
