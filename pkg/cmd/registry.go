package cmd

import (
	"fmt"
	"sort"
	"strings"
)

// index maps names and aliases to descriptors at one level of the tree.
type index struct {
	exact  map[string]*Descriptor
	folded map[string]*Descriptor
	list   []*Descriptor
}

func newIndex() *index {
	return &index{
		exact:  make(map[string]*Descriptor),
		folded: make(map[string]*Descriptor),
	}
}

// lookup matches case-sensitively first, then case-folded for descriptors
// that allow it (or for every descriptor when fold is set).
func (ix *index) lookup(name string, fold bool) (*Descriptor, bool) {
	if ix == nil {
		return nil, false
	}
	if d, ok := ix.exact[name]; ok {
		return d, true
	}
	d, ok := ix.folded[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	if fold || d.CaseInsensitive {
		return d, true
	}
	return nil, false
}

func keys(d *Descriptor) []string {
	return append([]string{d.Name}, d.Aliases...)
}

// claims holds keys taken by descriptors validated in the same Register call.
type claims struct {
	exact  map[string]bool
	folded map[string]*Descriptor
}

func newClaims() *claims {
	return &claims{exact: make(map[string]bool), folded: make(map[string]*Descriptor)}
}

func clashes(a, b *Descriptor, fold bool) bool {
	return a != b && (fold || a.CaseInsensitive || b.CaseInsensitive)
}

// check validates d against ix without modifying either.
func (ix *index) check(d *Descriptor, fold bool, taken *claims) error {
	if err := validate(d); err != nil {
		return err
	}
	for _, k := range keys(d) {
		if k == "" || strings.ContainsAny(k, " \t\n") {
			return &RegistrationError{Command: d.Name, Name: k, Err: ErrInvalidDescriptor, Detail: fmt.Sprintf("bad name %q", k)}
		}
		if _, ok := ix.exact[k]; ok || taken.exact[k] {
			return &RegistrationError{Command: d.Name, Name: k, Err: ErrDuplicateName}
		}
		lk := strings.ToLower(k)
		if other, ok := ix.folded[lk]; ok && clashes(d, other, fold) {
			return &RegistrationError{Command: d.Name, Name: k, Err: ErrDuplicateName}
		}
		if other, ok := taken.folded[lk]; ok && clashes(d, other, fold) {
			return &RegistrationError{Command: d.Name, Name: k, Err: ErrDuplicateName}
		}
		taken.exact[k] = true
		taken.folded[lk] = d
	}

	siblings := newClaims()
	for _, sub := range d.Subcommands {
		if err := newIndex().check(sub, fold, siblings); err != nil {
			return err
		}
	}
	return nil
}

func (ix *index) insert(d *Descriptor, parent *Descriptor) {
	d.parent = parent
	for _, k := range keys(d) {
		ix.exact[k] = d
		ix.folded[strings.ToLower(k)] = d
	}
	ix.list = append(ix.list, d)

	if len(d.Subcommands) > 0 {
		d.children = newIndex()
		for _, sub := range d.Subcommands {
			d.children.insert(sub, d)
		}
	}
}

func validate(d *Descriptor) error {
	fail := func(format string, a ...any) error {
		return &RegistrationError{Command: d.Name, Err: ErrInvalidDescriptor, Detail: fmt.Sprintf(format, a...)}
	}
	if d == nil {
		return &RegistrationError{Err: ErrInvalidDescriptor, Detail: "nil descriptor"}
	}
	if d.Name == "" {
		return fail("empty name")
	}
	if d.Handler == nil && len(d.Subcommands) == 0 {
		return fail("no handler")
	}
	seenOptional := false
	names := make(map[string]bool, len(d.Params))
	for i, p := range d.Params {
		if p.Name == "" {
			return fail("parameter %d has no name", i+1)
		}
		if names[p.Name] {
			return fail("parameter %q declared twice", p.Name)
		}
		names[p.Name] = true
		if p.Kind == KindGreedy && i != len(d.Params)-1 {
			return fail("greedy parameter %q must be last", p.Name)
		}
		if p.Kind == KindCustom && p.Decode == nil {
			return fail("custom parameter %q has no decoder", p.Name)
		}
		if p.Optional {
			seenOptional = true
		} else if seenOptional {
			return fail("required parameter %q follows an optional one", p.Name)
		}
	}
	return nil
}

// Registry stores command descriptors by name and alias. It is written only
// during startup; once dispatch begins it is read-only and safe for
// concurrent readers. Do not call Register after the first Dispatch.
type Registry struct {
	root *index
	fold bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCaseInsensitive makes every command match regardless of case,
// overriding the per-descriptor opt-in.
func WithCaseInsensitive() RegistryOption {
	return func(r *Registry) { r.fold = true }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{root: newIndex()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a command and its subcommands. Either the whole tree is
// added or, on error, nothing is.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return &RegistrationError{Err: ErrInvalidDescriptor, Detail: "nil descriptor"}
	}
	if err := r.root.check(d, r.fold, newClaims()); err != nil {
		return err
	}
	r.root.insert(d, nil)
	return nil
}

// MustRegister registers every descriptor and panics on the first error.
func (r *Registry) MustRegister(ds ...*Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Resolve looks up a top-level command by name or alias.
func (r *Registry) Resolve(name string) (*Descriptor, bool) {
	return r.root.lookup(name, r.fold)
}

// ResolveSub looks up a subcommand of d.
func (r *Registry) ResolveSub(d *Descriptor, name string) (*Descriptor, bool) {
	return d.children.lookup(name, r.fold)
}

// ResolvePath walks a name path such as ["config", "set"].
func (r *Registry) ResolvePath(path []string) (*Descriptor, bool) {
	if len(path) == 0 {
		return nil, false
	}
	d, ok := r.Resolve(path[0])
	for _, name := range path[1:] {
		if !ok {
			return nil, false
		}
		d, ok = r.ResolveSub(d, name)
	}
	return d, ok
}

// All returns every top-level command once, sorted by name.
func (r *Registry) All() []*Descriptor {
	list := append([]*Descriptor(nil), r.root.list...)
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Len returns the number of top-level commands.
func (r *Registry) Len() int { return len(r.root.list) }
