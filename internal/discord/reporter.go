package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"botcore/internal/commands"
	"botcore/pkg/cmd"
	"botcore/pkg/util"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

var permissionNames = []struct {
	bit  int64
	name string
}{
	{discordgo.PermissionAdministrator, "Administrator"},
	{commands.PermManageGuild, "Manage Server"},
	{discordgo.PermissionManageChannels, "Manage Channels"},
	{discordgo.PermissionManageRoles, "Manage Roles"},
	{discordgo.PermissionManageMessages, "Manage Messages"},
	{discordgo.PermissionKickMembers, "Kick Members"},
	{discordgo.PermissionBanMembers, "Ban Members"},
}

// Reporter tells users why their command did not run. Interaction replies
// are ephemeral.
type Reporter struct {
	prefix string
	log    zerolog.Logger
}

func NewReporter(prefix string, log zerolog.Logger) *Reporter {
	return &Reporter{prefix: prefix, log: log}
}

// Report implements cmd.Reporter.
func (r *Reporter) Report(ctx context.Context, inv *cmd.Invocation, o cmd.Outcome) {
	prefix := r.prefix
	if inv.Style == cmd.StyleSlash {
		prefix = "/"
	}
	msg, ok := FormatOutcome(o, prefix)
	if !ok {
		return
	}

	var err error
	if e, ok := inv.Responder.(ephemeralResponder); ok {
		err = e.Ephemeral(ctx, msg)
	} else {
		err = inv.Reply(ctx, msg)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("outcome", o.Kind.String()).Msg("failed to report outcome")
	}
}

// FormatOutcome renders the user-facing message for a failed outcome. It
// returns false for outcomes that should stay silent.
func FormatOutcome(o cmd.Outcome, prefix string) (string, bool) {
	switch o.Kind {
	case cmd.OutcomePermissionDenied:
		return permissionMessage(o.Err), true
	case cmd.OutcomeOnCooldown:
		return fmt.Sprintf("Slow down! Try again in %s.", util.HumanDuration(o.Remaining)), true
	case cmd.OutcomeArgumentError:
		ae, ok := o.ArgumentError()
		if !ok {
			return "Invalid arguments.", true
		}
		return argumentMessage(ae, o.Command, prefix), true
	case cmd.OutcomeHandlerError:
		var pe *cmd.PanicError
		if errors.As(o.Err, &pe) {
			return "Something went wrong while running this command.", true
		}
		return fmt.Sprintf("Error running command: %v", o.Err), true
	}
	return "", false
}

func permissionMessage(err error) string {
	var pe *cmd.PermissionError
	if !errors.As(err, &pe) {
		return "You can't use this command."
	}
	switch pe.Reason {
	case cmd.DenyGuildOnly:
		return "This command only works in a server."
	case cmd.DenyOwnersOnly:
		return "This command is reserved for the bot owners."
	case cmd.DenyMissingPermissions:
		if pe.Err != nil {
			return "Couldn't check your permissions, try again later."
		}
		return "You need the following permissions: " + PermissionNames(pe.Missing)
	}
	return "You can't use this command here."
}

// PermissionNames lists the readable names of the bits in mask.
func PermissionNames(mask int64) string {
	var names []string
	for _, p := range permissionNames {
		if mask&p.bit != 0 {
			names = append(names, p.name)
			mask &^= p.bit
		}
	}
	if mask != 0 {
		names = append(names, fmt.Sprintf("0x%x", mask))
	}
	return strings.Join(names, ", ")
}

func argumentMessage(ae *cmd.ArgumentError, d *cmd.Descriptor, prefix string) string {
	var msg string
	switch ae.Reason {
	case cmd.ReasonMissing:
		msg = fmt.Sprintf("Missing argument `%s`.", ae.Param)
	case cmd.ReasonTrailing:
		msg = fmt.Sprintf("Too many arguments: `%s`.", ae.Input)
	case cmd.ReasonLookup:
		msg = fmt.Sprintf("Couldn't find `%s`.", ae.Input)
	default:
		msg = fmt.Sprintf("Invalid value for `%s`", ae.Param)
		if ae.Err != nil {
			msg += ": " + ae.Err.Error()
		}
		msg += "."
	}
	if d != nil {
		msg += fmt.Sprintf("\nUsage: `%s`", commands.Usage(d, prefix))
	}
	return msg
}
