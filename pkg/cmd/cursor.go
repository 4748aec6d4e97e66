package cmd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Cursor is the read position into an invocation's argument source. It only
// moves forward. A cursor belongs to one popping operation and is not safe
// for concurrent use.
type Cursor interface {
	// take returns the raw value for p. greedy asks for all remaining text.
	take(p *Param, greedy bool) (any, bool)
	// rest describes unconsumed input; empty means nothing is left.
	rest() string
	// Pos is where the next read starts, for error reporting.
	Pos() int
}

// TextCursor pops whitespace separated tokens from prefix command text.
// A token wrapped in double quotes may contain whitespace.
type TextCursor struct {
	text string
	pos  int
}

// NewTextCursor returns a cursor over the argument text.
func NewTextCursor(text string) *TextCursor {
	return &TextCursor{text: text}
}

// Pos is the byte offset of the next unread token.
func (c *TextCursor) Pos() int {
	rest := c.text[c.pos:]
	return c.pos + len(rest) - len(strings.TrimLeftFunc(rest, unicode.IsSpace))
}

func (c *TextCursor) skipSpace() {
	for c.pos < len(c.text) {
		r, size := utf8.DecodeRuneInString(c.text[c.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		c.pos += size
	}
}

func (c *TextCursor) take(_ *Param, greedy bool) (any, bool) {
	c.skipSpace()
	if c.pos >= len(c.text) {
		return nil, false
	}
	if greedy {
		s := strings.TrimRightFunc(c.text[c.pos:], unicode.IsSpace)
		c.pos = len(c.text)
		return s, true
	}
	return c.token(), true
}

// token reads one token at c.pos, which must not be whitespace.
func (c *TextCursor) token() string {
	rest := c.text[c.pos:]
	if strings.HasPrefix(rest, `"`) {
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			after := 1 + end + 1
			if after == len(rest) || startsWithSpace(rest[after:]) {
				c.pos += after
				return rest[1 : 1+end]
			}
		}
	}
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}
	c.pos += end
	return rest[:end]
}

// Next pops the next plain token. It is used by the matcher for command and
// subcommand names.
func (c *TextCursor) Next() (string, bool) {
	c.skipSpace()
	if c.pos >= len(c.text) {
		return "", false
	}
	rest := c.text[c.pos:]
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}
	c.pos += end
	return rest[:end], true
}

// Fork returns an independent cursor at the same position.
func (c *TextCursor) Fork() *TextCursor {
	cp := *c
	return &cp
}

// Remaining returns the unconsumed text with surrounding whitespace removed.
func (c *TextCursor) Remaining() string {
	return strings.TrimSpace(c.text[c.pos:])
}

func (c *TextCursor) rest() string { return c.Remaining() }

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

// OptionCursor serves structured options by parameter name.
type OptionCursor struct {
	opts []Option
	used []bool
	n    int
}

// NewOptionCursor returns a cursor over structured options.
func NewOptionCursor(opts []Option) *OptionCursor {
	return &OptionCursor{opts: opts, used: make([]bool, len(opts))}
}

func (c *OptionCursor) Pos() int { return c.n }

func (c *OptionCursor) take(p *Param, _ bool) (any, bool) {
	for i, o := range c.opts {
		if c.used[i] || o.Name != p.Name {
			continue
		}
		c.used[i] = true
		c.n++
		if o.Value == nil {
			return nil, false
		}
		return o.Value, true
	}
	return nil, false
}

func (c *OptionCursor) rest() string {
	var names []string
	for i, o := range c.opts {
		if !c.used[i] {
			names = append(names, o.Name)
		}
	}
	return strings.Join(names, ", ")
}
