package cmd

import (
	"context"
	"time"
)

// Kind is the declared type of a parameter.
type Kind int

const (
	KindString Kind = iota
	KindGreedy
	KindInt
	KindBool
	KindUser
	KindChannel
	KindRole
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindGreedy:
		return "text"
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindUser:
		return "user"
	case KindChannel:
		return "channel"
	case KindRole:
		return "role"
	case KindCustom:
		return "custom"
	}
	return "unknown"
}

// Entity reports whether values of this kind are platform references.
func (k Kind) Entity() bool {
	return k == KindUser || k == KindChannel || k == KindRole
}

// DecodeFunc converts a raw value for a custom parameter.
type DecodeFunc func(ctx context.Context, raw string, inv *Invocation) (any, error)

// Param declares one command parameter.
type Param struct {
	Name        string
	Description string
	Kind        Kind
	Optional    bool
	Default     any

	// Decode is required for KindCustom and ignored otherwise.
	Decode DecodeFunc
	// Async marks a custom decoder that talks to the platform.
	Async bool
}

// CooldownScope is the identity a cooldown is tracked against.
type CooldownScope int

const (
	ScopeUser CooldownScope = iota
	ScopeChannel
	ScopeGlobal
)

func (s CooldownScope) String() string {
	switch s {
	case ScopeUser:
		return "user"
	case ScopeChannel:
		return "channel"
	case ScopeGlobal:
		return "global"
	}
	return "unknown"
}

// Cooldown is a per-command rate policy. A zero Duration disables it.
type Cooldown struct {
	Duration time.Duration
	Scope    CooldownScope
}

// HandlerFunc runs a command with its decoded arguments.
type HandlerFunc func(ctx context.Context, inv *Invocation, args Args) error

// CheckFunc decides whether an invocation may proceed.
type CheckFunc func(ctx context.Context, inv *Invocation, d *Descriptor) (bool, error)

// Descriptor is the static description of a command. It must not be
// modified once registered.
type Descriptor struct {
	Name        string
	Aliases     []string
	Description string
	Category    string

	Params []Param

	// Permissions is a platform permission bitmask the author must hold.
	Permissions int64
	OwnersOnly  bool
	GuildOnly   bool
	Cooldown    Cooldown

	// Style defaults to StyleBoth when zero.
	Style Style
	// Strict turns leftover argument text into an error.
	Strict bool
	// CaseInsensitive lets the name and aliases match regardless of case.
	CaseInsensitive bool
	// TrackEdits re-dispatches the command when its message is edited.
	TrackEdits bool
	Hidden     bool

	Check   CheckFunc
	Handler HandlerFunc
	// OnError replaces the dispatcher's reporter for this command's failures.
	OnError func(ctx context.Context, inv *Invocation, o Outcome)

	Subcommands []*Descriptor

	parent   *Descriptor
	children *index
}

// Parent returns the enclosing command for a subcommand.
func (d *Descriptor) Parent() *Descriptor { return d.parent }

// QualifiedName is the space separated chain of names from the root command.
func (d *Descriptor) QualifiedName() string {
	if d.parent == nil {
		return d.Name
	}
	return d.parent.QualifiedName() + " " + d.Name
}

func (d *Descriptor) style() Style {
	if d.Style == 0 {
		return StyleBoth
	}
	return d.Style
}

// Allows reports whether the command accepts the given invocation style.
func (d *Descriptor) Allows(s Style) bool { return d.style().Allows(s) }

// Builder assembles a Descriptor.
type Builder struct {
	d Descriptor
}

// New starts a descriptor with the given primary name.
func New(name string) *Builder {
	return &Builder{d: Descriptor{Name: name}}
}

func (b *Builder) Description(s string) *Builder { b.d.Description = s; return b }
func (b *Builder) Category(s string) *Builder    { b.d.Category = s; return b }
func (b *Builder) Aliases(a ...string) *Builder {
	b.d.Aliases = append(b.d.Aliases, a...)
	return b
}

// Param appends a required parameter.
func (b *Builder) Param(name string, kind Kind, description string) *Builder {
	b.d.Params = append(b.d.Params, Param{Name: name, Kind: kind, Description: description})
	return b
}

// Optional appends an optional parameter with a default value.
func (b *Builder) Optional(name string, kind Kind, def any, description string) *Builder {
	b.d.Params = append(b.d.Params, Param{Name: name, Kind: kind, Optional: true, Default: def, Description: description})
	return b
}

// Custom appends a parameter decoded by fn.
func (b *Builder) Custom(name string, fn DecodeFunc, optional bool, def any, description string) *Builder {
	b.d.Params = append(b.d.Params, Param{
		Name:        name,
		Kind:        KindCustom,
		Decode:      fn,
		Optional:    optional,
		Default:     def,
		Description: description,
	})
	return b
}

func (b *Builder) Permissions(mask int64) *Builder { b.d.Permissions = mask; return b }
func (b *Builder) OwnersOnly() *Builder            { b.d.OwnersOnly = true; return b }
func (b *Builder) GuildOnly() *Builder             { b.d.GuildOnly = true; return b }
func (b *Builder) Style(s Style) *Builder          { b.d.Style = s; return b }
func (b *Builder) Strict() *Builder                { b.d.Strict = true; return b }
func (b *Builder) CaseInsensitive() *Builder       { b.d.CaseInsensitive = true; return b }
func (b *Builder) TrackEdits() *Builder            { b.d.TrackEdits = true; return b }
func (b *Builder) Hidden() *Builder                { b.d.Hidden = true; return b }
func (b *Builder) Check(fn CheckFunc) *Builder     { b.d.Check = fn; return b }

// OnError sets a per-command failure handler.
func (b *Builder) OnError(fn func(ctx context.Context, inv *Invocation, o Outcome)) *Builder {
	b.d.OnError = fn
	return b
}

func (b *Builder) Cooldown(d time.Duration, scope CooldownScope) *Builder {
	b.d.Cooldown = Cooldown{Duration: d, Scope: scope}
	return b
}

func (b *Builder) Subcommand(sub *Descriptor) *Builder {
	b.d.Subcommands = append(b.d.Subcommands, sub)
	return b
}

// Handler sets the handler and returns the finished descriptor.
func (b *Builder) Handler(fn HandlerFunc) *Descriptor {
	b.d.Handler = fn
	return b.Build()
}

// Build returns the descriptor. Validation happens at registration.
func (b *Builder) Build() *Descriptor {
	d := b.d
	d.Aliases = append([]string(nil), b.d.Aliases...)
	d.Params = append([]Param(nil), b.d.Params...)
	d.Subcommands = append([]*Descriptor(nil), b.d.Subcommands...)
	return &d
}
