package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"botcore/pkg/cmd"
)

// WithCommandLogger logs every handler run with its duration.
func WithCommandLogger(log zerolog.Logger) cmd.Middleware {
	return func(d *cmd.Descriptor, next cmd.HandlerFunc) cmd.HandlerFunc {
		return func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			start := time.Now()
			err := next(ctx, inv, args)

			ev := log.Info()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			ev.Str("command", d.QualifiedName()).
				Str("style", inv.Style.String()).
				Str("user", inv.Author.Name).
				Str("guild", inv.GuildID).
				Bool("edited", inv.Edited).
				Dur("took", time.Since(start)).
				Msg("command run")
			return err
		}
	}
}
