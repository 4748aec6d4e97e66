package cmd

import (
	"regexp"
	"strings"
	"sync/atomic"
)

// Prefix is either a literal string or a pattern that must match at the
// start of the message.
type Prefix struct {
	Literal string
	Pattern *regexp.Regexp
}

// Literal returns a case-sensitive literal prefix.
func Literal(s string) Prefix { return Prefix{Literal: s} }

// Pattern returns a regular expression prefix.
func Pattern(re *regexp.Regexp) Prefix { return Prefix{Pattern: re} }

// strip returns text without the prefix, or false if it does not match.
func (p Prefix) strip(text string) (string, bool) {
	if p.Pattern != nil {
		loc := p.Pattern.FindStringIndex(text)
		if loc == nil || loc[0] != 0 || loc[1] == 0 {
			return "", false
		}
		return text[loc[1]:], true
	}
	if p.Literal == "" {
		return "", false
	}
	return strings.CutPrefix(text, p.Literal)
}

// Match is a resolved command together with its argument source.
type Match struct {
	Command *Descriptor
	// Invoked is the name or alias the user typed for the deepest command.
	Invoked string
	Prefix  string
	Cursor  Cursor
}

// Matcher turns invocations into matches.
type Matcher struct {
	registry *Registry
	prefixes []Prefix
	dynamic  func(inv *Invocation) []Prefix
	mention  atomic.Pointer[regexp.Regexp]
	// mentionHelp is run for a message that is only a mention of the bot.
	mentionHelp string
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithPrefixes adds prefixes, tried in order.
func WithPrefixes(ps ...Prefix) MatcherOption {
	return func(m *Matcher) { m.prefixes = append(m.prefixes, ps...) }
}

// WithDynamicPrefix sets a callback returning extra prefixes per event,
// e.g. a per-guild prefix. They are tried before the static ones.
func WithDynamicPrefix(fn func(inv *Invocation) []Prefix) MatcherOption {
	return func(m *Matcher) { m.dynamic = fn }
}

// WithHelpWhenMentioned makes a bare mention of the bot invoke the named
// command, usually help. It has no effect until SetSelfID is called.
func WithHelpWhenMentioned(name string) MatcherOption {
	return func(m *Matcher) { m.mentionHelp = name }
}

// NewMatcher returns a matcher over reg.
func NewMatcher(reg *Registry, opts ...MatcherOption) *Matcher {
	m := &Matcher{registry: reg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetSelfID enables a mention of the bot as a prefix. It may be called once
// the platform reports the bot's identity, concurrently with Match.
func (m *Matcher) SetSelfID(id string) {
	if id == "" {
		m.mention.Store(nil)
		return
	}
	m.mention.Store(regexp.MustCompile(`^<@!?` + regexp.QuoteMeta(id) + `>`))
}

// Match resolves inv to a command. ok is false for NoMatch.
func (m *Matcher) Match(inv *Invocation) (*Match, bool) {
	if inv == nil {
		return nil, false
	}
	switch inv.Style {
	case StylePrefix:
		return m.matchPrefix(inv)
	case StyleSlash:
		return m.matchSlash(inv)
	}
	return nil, false
}

func (m *Matcher) candidates(inv *Invocation) []Prefix {
	var ps []Prefix
	if m.dynamic != nil {
		ps = append(ps, m.dynamic(inv)...)
	}
	ps = append(ps, m.prefixes...)
	if re := m.mention.Load(); re != nil {
		ps = append(ps, Pattern(re))
	}
	return ps
}

func (m *Matcher) matchPrefix(inv *Invocation) (*Match, bool) {
	mention := m.mention.Load()
	for _, p := range m.candidates(inv) {
		rest, ok := p.strip(inv.Text)
		if !ok {
			continue
		}
		used := inv.Text[:len(inv.Text)-len(rest)]
		if m.mentionHelp != "" && mention != nil && p.Pattern == mention && strings.TrimSpace(rest) == "" {
			return m.resolveText(m.mentionHelp, used)
		}
		return m.resolveText(rest, used)
	}
	return nil, false
}

// resolveText resolves the command token and descends into subcommands as
// far as the following tokens name them.
func (m *Matcher) resolveText(rest, prefix string) (*Match, bool) {
	cur := NewTextCursor(rest)
	name, ok := cur.Next()
	if !ok {
		return nil, false
	}
	d, ok := m.registry.Resolve(name)
	if !ok {
		return nil, false
	}

	invoked := name
	for d.children != nil {
		ahead := cur.Fork()
		next, ok := ahead.Next()
		if !ok {
			break
		}
		sub, ok := m.registry.ResolveSub(d, next)
		if !ok {
			break
		}
		d, invoked, cur = sub, next, ahead
	}

	if !d.Allows(StylePrefix) || d.Handler == nil {
		return nil, false
	}
	return &Match{Command: d, Invoked: invoked, Prefix: prefix, Cursor: cur}, true
}

func (m *Matcher) matchSlash(inv *Invocation) (*Match, bool) {
	d, ok := m.registry.ResolvePath(inv.Path)
	if !ok || !d.Allows(StyleSlash) || d.Handler == nil {
		return nil, false
	}
	return &Match{Command: d, Invoked: inv.Path[len(inv.Path)-1], Cursor: NewOptionCursor(inv.Options)}, true
}
