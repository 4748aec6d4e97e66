package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"botcore/pkg/cmd"
	"botcore/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
)

var ErrNotFound = errors.New("not found")

// Resolver looks up users, channels and roles and the author's permissions.
// Data Discord already sent with an interaction is used first, then the
// session state cache, then the REST API.
type Resolver struct {
	s *discordgo.Session
}

func NewResolver(s *discordgo.Session) *Resolver {
	return &Resolver{s: s}
}

// Lookup implements cmd.EntityResolver.
func (r *Resolver) Lookup(ctx context.Context, kind cmd.Kind, id string, inv *cmd.Invocation) (cmd.Entity, error) {
	if e, ok := resolvedEntity(kind, id, inv); ok {
		return e, nil
	}
	if r.s == nil {
		return cmd.Entity{}, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}

	opt := discordgo.WithContext(ctx)
	switch kind {
	case cmd.KindUser:
		if inv.InGuild() {
			m, err := r.s.State.Member(inv.GuildID, id)
			if err != nil {
				m, err = r.s.GuildMember(inv.GuildID, id, opt)
			}
			if err == nil {
				return memberEntity(m), nil
			}
		}
		u, err := r.s.User(id, opt)
		if err != nil {
			return cmd.Entity{}, lookupError(kind, id, err)
		}
		return userEntity(u), nil

	case cmd.KindChannel:
		c, err := r.s.State.Channel(id)
		if err != nil {
			c, err = r.s.Channel(id, opt)
		}
		if err != nil {
			return cmd.Entity{}, lookupError(kind, id, err)
		}
		return channelEntity(c), nil

	case cmd.KindRole:
		if !inv.InGuild() {
			return cmd.Entity{}, fmt.Errorf("roles only exist in servers: %w", ErrNotFound)
		}
		if role, err := r.s.State.Role(inv.GuildID, id); err == nil {
			return roleEntity(role), nil
		}
		roles, err := r.s.GuildRoles(inv.GuildID, opt)
		if err != nil {
			return cmd.Entity{}, lookupError(kind, id, err)
		}
		for _, role := range roles {
			if role.ID == id {
				return roleEntity(role), nil
			}
		}
		return cmd.Entity{}, fmt.Errorf("role %s: %w", id, ErrNotFound)
	}
	return cmd.Entity{}, fmt.Errorf("unsupported entity kind %s", kind)
}

// Permissions implements cmd.PermissionResolver. Interactions carry the
// member's channel permissions; messages are computed from state.
func (r *Resolver) Permissions(ctx context.Context, inv *cmd.Invocation) (int64, error) {
	if ev, ok := eventOf(inv); ok && ev.Interaction != nil && ev.Interaction.Member != nil {
		return ev.Interaction.Member.Permissions, nil
	}
	if r.s == nil {
		return 0, errors.New("no session")
	}
	return r.s.UserChannelPermissions(inv.Author.ID, inv.ChannelID, discordgo.WithContext(ctx))
}

func resolvedEntity(kind cmd.Kind, id string, inv *cmd.Invocation) (cmd.Entity, bool) {
	ev, ok := eventOf(inv)
	if !ok || ev.Interaction == nil || ev.Interaction.Type != discordgo.InteractionApplicationCommand {
		return cmd.Entity{}, false
	}
	res := ev.Interaction.ApplicationCommandData().Resolved
	if res == nil {
		return cmd.Entity{}, false
	}
	switch kind {
	case cmd.KindUser:
		u, ok := res.Users[id]
		if !ok {
			return cmd.Entity{}, false
		}
		if m, ok := res.Members[id]; ok {
			m.User = u
			return memberEntity(m), true
		}
		return userEntity(u), true
	case cmd.KindChannel:
		if c, ok := res.Channels[id]; ok {
			return channelEntity(c), true
		}
	case cmd.KindRole:
		if role, ok := res.Roles[id]; ok {
			return roleEntity(role), true
		}
	}
	return cmd.Entity{}, false
}

func memberEntity(m *discordgo.Member) cmd.Entity {
	e := cmd.Entity{Kind: cmd.KindUser, Raw: m}
	if m.User != nil {
		e.ID = m.User.ID
		e.Name = authorOf(m.User, m).Name
	}
	return e
}

func userEntity(u *discordgo.User) cmd.Entity {
	return cmd.Entity{Kind: cmd.KindUser, ID: u.ID, Name: authorOf(u, nil).Name, Raw: u}
}

func channelEntity(c *discordgo.Channel) cmd.Entity {
	return cmd.Entity{Kind: cmd.KindChannel, ID: c.ID, Name: c.Name, Raw: c}
}

func roleEntity(role *discordgo.Role) cmd.Entity {
	return cmd.Entity{Kind: cmd.KindRole, ID: role.ID, Name: role.Name, Raw: role}
}

func lookupError(kind cmd.Kind, id string, err error) error {
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}

// restError exposes a discordgo REST failure to retrylimit.
type restError struct {
	*discordgo.RESTError
}

func (e restError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

func (e restError) Unwrap() error { return e.RESTError }

// classifyREST wraps REST errors for retrylimit. Client errors other than
// 429 will not succeed on retry and are marked fatal.
func classifyREST(err error) error {
	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		return err
	}
	he := restError{re}
	code := he.StatusCode()
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return retrylimit.Fatal(he)
	}
	return he
}
