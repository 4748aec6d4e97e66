package discord

import (
	"context"
	"testing"

	"botcore/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withResolved(i *discordgo.Interaction, res *discordgo.ApplicationCommandInteractionDataResolved) *cmd.Invocation {
	data := i.Data.(discordgo.ApplicationCommandInteractionData)
	data.Resolved = res
	i.Data = data
	inv, _ := interactionInvocation(i)
	return inv
}

func TestResolver_LookupResolved(t *testing.T) {
	inv := withResolved(slashInteraction("whois"), &discordgo.ApplicationCommandInteractionDataResolved{
		Users:    map[string]*discordgo.User{"u2": {ID: "u2", Username: "bob"}},
		Members:  map[string]*discordgo.Member{"u2": {Nick: "Bobby"}},
		Channels: map[string]*discordgo.Channel{"c9": {ID: "c9", Name: "general"}},
		Roles:    map[string]*discordgo.Role{"r1": {ID: "r1", Name: "mods"}},
	})
	r := NewResolver(nil)
	ctx := context.Background()

	user, err := r.Lookup(ctx, cmd.KindUser, "u2", inv)
	require.NoError(t, err)
	assert.Equal(t, "Bobby", user.Name)
	assert.IsType(t, &discordgo.Member{}, user.Raw)

	ch, err := r.Lookup(ctx, cmd.KindChannel, "c9", inv)
	require.NoError(t, err)
	assert.Equal(t, cmd.Entity{Kind: cmd.KindChannel, ID: "c9", Name: "general", Raw: &discordgo.Channel{ID: "c9", Name: "general"}}, ch)

	role, err := r.Lookup(ctx, cmd.KindRole, "r1", inv)
	require.NoError(t, err)
	assert.Equal(t, "mods", role.Name)

	_, err = r.Lookup(ctx, cmd.KindUser, "u3", inv)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_Permissions(t *testing.T) {
	r := NewResolver(nil)
	inv, ok := interactionInvocation(slashInteraction("ping"))
	require.True(t, ok)

	perms, err := r.Permissions(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<5), perms)

	_, err = r.Permissions(context.Background(), &cmd.Invocation{Style: cmd.StylePrefix})
	assert.Error(t, err)
}
