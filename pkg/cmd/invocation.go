// Package cmd provides a transport-agnostic command core: commands are declared
// as descriptors, resolved from raw invocations, have their parameters decoded
// in declaration order and are dispatched to their handler. How events reach
// the core (Discord gateway, CLI, HTTP) is defined by adapters that build an
// Invocation and call Dispatcher.Dispatch.
package cmd

import "context"

// Style says how a command may be invoked. It is a bitmask.
type Style uint8

const (
	// StylePrefix is free text starting with a configured prefix.
	StylePrefix Style = 1 << iota
	// StyleSlash is a structured, pre-parsed interaction.
	StyleSlash

	StyleBoth = StylePrefix | StyleSlash
)

// Allows reports whether s permits the other style.
func (s Style) Allows(other Style) bool { return s&other != 0 }

func (s Style) String() string {
	switch s {
	case StylePrefix:
		return "prefix"
	case StyleSlash:
		return "slash"
	case StyleBoth:
		return "both"
	}
	return "none"
}

// Author identifies who sent the invocation.
type Author struct {
	ID   string
	Name string
	Bot  bool
}

// Option is one structured (name, raw value) pair.
type Option struct {
	Name  string
	Value any
}

// Responder lets handlers reply without knowing the transport.
type Responder interface {
	Reply(ctx context.Context, content string) error
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, content string) error

func (f ResponderFunc) Reply(ctx context.Context, content string) error { return f(ctx, content) }

// Invocation is the normalized inbound event. Adapters fill it; the core only
// reads it. Text is used for StylePrefix, Path and Options for StyleSlash.
type Invocation struct {
	Style Style

	// Text is the full message content, prefix included.
	Text string

	// Path is the command name followed by any subcommand names.
	Path    []string
	Options []Option

	Author    Author
	GuildID   string
	ChannelID string
	MessageID string

	// Edited is set when a tracked message was edited and is dispatched again.
	Edited bool

	Responder Responder

	// Data carries the adapter payload (e.g. session and event).
	Data any
}

// Reply sends content through the invocation's responder, if any.
func (inv *Invocation) Reply(ctx context.Context, content string) error {
	if inv.Responder == nil {
		return nil
	}
	return inv.Responder.Reply(ctx, content)
}

// InGuild reports whether the invocation came from a guild rather than a DM.
func (inv *Invocation) InGuild() bool { return inv.GuildID != "" }
