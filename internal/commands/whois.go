package commands

import (
	"context"
	"fmt"

	"botcore/pkg/cmd"
)

func whoisCommand() *cmd.Descriptor {
	return cmd.New("whois").
		Description("Show who a user is").
		Category(CategoryInformation).
		Optional("user", cmd.KindUser, nil, "User to look up, defaults to you").
		Handler(func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			u, ok := args.Entity("user")
			if !ok {
				u = cmd.Entity{Kind: cmd.KindUser, ID: inv.Author.ID, Name: inv.Author.Name}
			}
			return reply(ctx, inv, fmt.Sprintf("**%s** (`%s`)", u.Name, u.ID))
		})
}
