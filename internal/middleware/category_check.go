package middleware

import (
	"context"

	"botcore/pkg/cmd"
)

// CategoryStore reports per-guild disabled command categories.
type CategoryStore interface {
	IsCategoryDisabled(guildID, category string) (bool, error)
}

// CategoryCheck returns a global check that rejects commands whose category
// is disabled in the invoking guild. Commands in the protected categories
// always pass so a guild can re-enable what it turned off.
func CategoryCheck(store CategoryStore, protected ...string) cmd.CheckFunc {
	keep := make(map[string]bool, len(protected))
	for _, c := range protected {
		keep[c] = true
	}
	return func(_ context.Context, inv *cmd.Invocation, d *cmd.Descriptor) (bool, error) {
		category := rootOf(d).Category
		if !inv.InGuild() || category == "" || keep[category] {
			return true, nil
		}
		off, err := store.IsCategoryDisabled(inv.GuildID, category)
		if err != nil {
			return false, err
		}
		return !off, nil
	}
}

func rootOf(d *cmd.Descriptor) *cmd.Descriptor {
	for d.Parent() != nil {
		d = d.Parent()
	}
	return d
}
