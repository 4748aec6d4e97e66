package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"botcore/internal/core"
	"botcore/internal/discord"
	"botcore/pkg/cmd"
)

// console feeds lines to the dispatcher as if they came from one user in
// one channel. Lines starting with "{" are slash payloads.
type console struct {
	disp   *cmd.Dispatcher
	out    io.Writer
	author cmd.Author
	guild  string
	perms  int64
}

func (c *console) responder() cmd.Responder {
	return cmd.ResponderFunc(func(_ context.Context, content string) error {
		_, err := fmt.Fprintf(c.out, "bot> %s\n", strings.ReplaceAll(content, "\n", "\n     "))
		return err
	})
}

// reporter prints failures the way the Discord adapter words them.
func (c *console) reporter(prefix string) cmd.Reporter {
	return cmd.ReporterFunc(func(ctx context.Context, inv *cmd.Invocation, o cmd.Outcome) {
		p := prefix
		if inv.Style == cmd.StyleSlash {
			p = "/"
		}
		if msg, ok := discord.FormatOutcome(o, p); ok {
			_ = inv.Reply(ctx, msg)
		}
	})
}

func (c *console) permissions() cmd.PermissionResolver {
	return cmd.PermissionResolverFunc(func(context.Context, *cmd.Invocation) (int64, error) {
		return c.perms, nil
	})
}

// entities resolves any well-formed ID to an entity named after it.
func entities() cmd.EntityResolver {
	return cmd.EntityResolverFunc(func(_ context.Context, kind cmd.Kind, id string, _ *cmd.Invocation) (cmd.Entity, error) {
		return cmd.Entity{Kind: kind, ID: id, Name: kind.String() + "-" + id}, nil
	})
}

func (c *console) invocation(line string) (*cmd.Invocation, error) {
	inv := &cmd.Invocation{
		Style:     cmd.StylePrefix,
		Text:      line,
		Author:    c.author,
		GuildID:   c.guild,
		ChannelID: "console",
		Responder: c.responder(),
	}
	if strings.HasPrefix(line, "{") {
		path, opts, err := parseSlash(line)
		if err != nil {
			return nil, err
		}
		inv.Style, inv.Text, inv.Path, inv.Options = cmd.StyleSlash, "", path, opts
	}
	return inv, nil
}

// Exec dispatches one line and returns its outcome.
func (c *console) Exec(ctx context.Context, line string) (cmd.Outcome, error) {
	inv, err := c.invocation(line)
	if err != nil {
		return cmd.Outcome{}, err
	}
	return c.disp.Dispatch(ctx, inv), nil
}

// Run reads lines from r until EOF or ctx is done.
func (c *console) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		o, err := c.Exec(ctx, line)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}
		if o.Kind == cmd.OutcomeNoMatch {
			fmt.Fprintln(c.out, "(no command matched)")
		}
	}
	return sc.Err()
}

func newConsole(opts core.Options, out io.Writer, author cmd.Author, guild string, perms int64) (*console, *core.Core, error) {
	c := &console{out: out, author: author, guild: guild, perms: perms}
	opts.Entities = entities()
	opts.Permissions = c.permissions()
	opts.Reporter = c.reporter(opts.Config.CommandPrefix)
	cr, err := core.New(opts)
	if err != nil {
		return nil, nil, err
	}
	c.disp = cr.Dispatcher
	return c, cr, nil
}
