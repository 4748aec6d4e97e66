package cmd

// Entity is a resolved platform reference (user, channel or role).
type Entity struct {
	Kind Kind
	ID   string
	Name string
	// Raw is the adapter's own object, e.g. *discordgo.Member.
	Raw any
}

// Args is the decoded argument set handed to a handler, in declaration order.
type Args struct {
	params []Param
	values []any
}

// NewArgs pairs values with their parameters. It is meant for tests and
// adapters that call handlers directly.
func NewArgs(params []Param, values []any) Args {
	return Args{params: params, values: values}
}

func (a Args) Len() int { return len(a.values) }

// Values returns a copy of the decoded values.
func (a Args) Values() []any { return append([]any(nil), a.values...) }

// At returns the value at index i, or nil when out of range.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a.values) {
		return nil
	}
	return a.values[i]
}

// Get returns the value of the named parameter.
func (a Args) Get(name string) (any, bool) {
	for i, p := range a.params {
		if p.Name == name && i < len(a.values) {
			return a.values[i], true
		}
	}
	return nil, false
}

func (a Args) String(name string) string {
	v, _ := a.Get(name)
	s, _ := v.(string)
	return s
}

func (a Args) Int(name string) int64 {
	v, _ := a.Get(name)
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func (a Args) Bool(name string) bool {
	v, _ := a.Get(name)
	b, _ := v.(bool)
	return b
}

// Entity returns the named entity argument; ok is false when the parameter
// was omitted or is not an entity.
func (a Args) Entity(name string) (Entity, bool) {
	v, _ := a.Get(name)
	e, ok := v.(Entity)
	return e, ok
}
