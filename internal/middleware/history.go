package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"botcore/internal/logger"
	"botcore/internal/storage"
	"botcore/pkg/cmd"
	"botcore/pkg/util"
)

// HistoryStore is where command runs are recorded.
type HistoryStore interface {
	AppendCommandToHistory(guildID string, rec storage.CommandHistoryRecord) error
}

// WithHistory records guild command runs after the handler returns.
// Direct messages are not recorded.
func WithHistory(store HistoryStore) cmd.Middleware {
	return func(d *cmd.Descriptor, next cmd.HandlerFunc) cmd.HandlerFunc {
		return func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			err := next(ctx, inv, args)
			if !inv.InGuild() {
				return err
			}
			rec := storage.CommandHistoryRecord{
				ChannelID: inv.ChannelID,
				UserID:    inv.Author.ID,
				Username:  inv.Author.Name,
				Command:   d.QualifiedName(),
				Style:     inv.Style.String(),
				Param:     util.Truncate(formatArgs(args), 100),
				Datetime:  time.Now(),
			}
			if e := store.AppendCommandToHistory(inv.GuildID, rec); e != nil {
				logger.Warnf("Failed to log command %s: %v", d.QualifiedName(), e)
			}
			return err
		}
	}
}

func formatArgs(args cmd.Args) string {
	var parts []string
	for _, v := range args.Values() {
		switch x := v.(type) {
		case nil:
			continue
		case cmd.Entity:
			parts = append(parts, x.Name)
		default:
			parts = append(parts, fmt.Sprint(x))
		}
	}
	return strings.Join(parts, " ")
}
