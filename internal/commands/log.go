package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"botcore/internal/storage"
	"botcore/pkg/cmd"
)

func logCommand(deps *Deps) *cmd.Descriptor {
	return cmd.New("log").
		Description("Review recent commands").
		Category(CategoryMaintenance).
		GuildOnly().
		Permissions(PermManageGuild).
		Handler(func(ctx context.Context, inv *cmd.Invocation, _ cmd.Args) error {
			records, err := deps.Store.FetchCommandHistory(inv.GuildID)
			if errors.Is(err, storage.ErrNoHistory) {
				return reply(ctx, inv, "No command logs found.")
			}
			if err != nil {
				return fmt.Errorf("fetch command logs: %w", err)
			}
			return reply(ctx, inv, formatHistory(records))
		})
}

// formatHistory renders the latest records first, dropping older lines that
// would not fit in one message.
func formatHistory(records []storage.CommandHistoryRecord) string {
	maxContent := discordMaxMessageLength - codeBlockOverhead

	var b strings.Builder
	fmt.Fprintf(&b, "%-19s  %-15s  %-6s  %s\n", "# Datetime", "# Username", "# Via", "# Command")
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		line := fmt.Sprintf("%-19s  %-15s  %-6s  %s %s\n",
			r.Datetime.Format("2006-01-02 15:04:05"), r.Username, r.Style, r.Command, r.Param)
		if b.Len()+len(line) > maxContent {
			break
		}
		b.WriteString(line)
	}
	return "```md\n" + b.String() + "```"
}
