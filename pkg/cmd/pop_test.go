package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	calls    int
	entities map[string]Entity
}

func (f *fakeResolver) Lookup(_ context.Context, kind Kind, id string, _ *Invocation) (Entity, error) {
	f.calls++
	e, ok := f.entities[id]
	if !ok || e.Kind != kind {
		return Entity{}, errors.New("unknown entity")
	}
	return e, nil
}

func pop(t *testing.T, d *Descriptor, text string, dec *Decoder) (Args, error) {
	t.Helper()
	if dec == nil {
		dec = &Decoder{}
	}
	return PopAll(context.Background(), d, NewTextCursor(text), &Invocation{Style: StylePrefix}, dec)
}

func TestPopAll_Order(t *testing.T) {
	d := New("t").
		Param("a", KindString, "").
		Param("n", KindInt, "").
		Param("flag", KindBool, "").
		Param("rest", KindGreedy, "").
		Handler(noop)

	args, err := pop(t, d, `"first word" -12 yes  the   remaining text  `, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"first word", int64(-12), true, "the   remaining text"}, args.Values())
	assert.Equal(t, "first word", args.String("a"))
	assert.Equal(t, int64(-12), args.Int("n"))
	assert.True(t, args.Bool("flag"))
}

func TestPopAll_MissingArgument(t *testing.T) {
	d := New("t").
		Param("a", KindString, "").
		Param("b", KindString, "").
		Param("c", KindString, "").
		Handler(noop)

	for tokens, wantIndex := range map[string]int{"": 0, "x": 1, "x y": 2} {
		args, err := pop(t, d, tokens, nil)
		var ae *ArgumentError
		require.True(t, errors.As(err, &ae), "input %q", tokens)
		assert.Equal(t, ReasonMissing, ae.Reason)
		assert.Equal(t, wantIndex, ae.Index)
		assert.Equal(t, len(tokens), ae.Pos, "input %q", tokens)
		assert.Zero(t, args.Len(), "partial arguments returned for %q", tokens)
	}
}

func TestPopAll_AllOrNothing(t *testing.T) {
	d := New("t").
		Param("a", KindInt, "").
		Param("b", KindInt, "").
		Param("c", KindInt, "").
		Handler(noop)

	args, err := pop(t, d, "1 two 3", nil)
	var ae *ArgumentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 1, ae.Index)
	assert.Equal(t, "b", ae.Param)
	assert.Equal(t, ReasonSyntax, ae.Reason)
	assert.Equal(t, 2, ae.Pos, "offset of %q", "two")
	assert.Zero(t, args.Len())
	assert.Nil(t, args.Values())
}

func TestPopAll_Greedy(t *testing.T) {
	d := New("t").Param("text", KindGreedy, "").Handler(noop)

	for _, in := range []string{"hello world", "  hello \t world  ", "a\nb c"} {
		args, err := pop(t, d, in, nil)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(in), args.String("text"))
		assert.Equal(t, 1, args.Len())
	}

	_, err := pop(t, d, "   ", nil)
	assert.ErrorIs(t, err, &ArgumentError{Reason: ReasonMissing})
}

func TestPopAll_Trailing(t *testing.T) {
	lax := New("lax").Param("word", KindString, "").Handler(noop)
	strict := New("strict").Param("word", KindString, "").Strict().Handler(noop)

	args, err := pop(t, lax, "hello extra stuff", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", args.String("word"))

	args, err = pop(t, strict, "hello extra stuff", nil)
	var ae *ArgumentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ReasonTrailing, ae.Reason)
	assert.Equal(t, 1, ae.Index)
	assert.Equal(t, "extra stuff", ae.Input)
	assert.Equal(t, len("hello "), ae.Pos)
	assert.Zero(t, args.Len())

	_, err = pop(t, strict, "hello   ", nil)
	assert.NoError(t, err)
}

func TestPopAll_OptionalDefaults(t *testing.T) {
	d := New("t").
		Optional("count", KindInt, int64(0), "").
		Optional("who", KindUser, nil, "").
		Handler(noop)

	args, err := pop(t, d, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), nil}, args.Values())

	_, ok := args.Entity("who")
	assert.False(t, ok)
}

func TestPopAll_Structured(t *testing.T) {
	res := &fakeResolver{entities: map[string]Entity{
		"111111111111111111": {Kind: KindUser, ID: "111111111111111111", Name: "alice"},
	}}
	d := New("t").
		Param("user", KindUser, "").
		Param("n", KindInt, "").
		Optional("flag", KindBool, false, "").
		Handler(noop)

	opts := []Option{
		{Name: "n", Value: float64(3)},
		{Name: "user", Value: "111111111111111111"},
	}
	args, err := PopAll(context.Background(), d, NewOptionCursor(opts), &Invocation{Style: StyleSlash}, &Decoder{Resolver: res})
	require.NoError(t, err)

	u, ok := args.Entity("user")
	require.True(t, ok)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, int64(3), args.Int("n"))
	assert.False(t, args.Bool("flag"))

	t.Run("unknown option in strict mode", func(t *testing.T) {
		strict := New("s").Param("n", KindInt, "").Strict().Handler(noop)
		cur := NewOptionCursor([]Option{{Name: "n", Value: float64(1)}, {Name: "bogus", Value: "x"}})
		_, err := PopAll(context.Background(), strict, cur, &Invocation{}, &Decoder{})
		assert.ErrorIs(t, err, &ArgumentError{Reason: ReasonTrailing})
		var ae *ArgumentError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, 1, ae.Pos, "one option consumed")
	})
}

func TestPopAll_StopsOnCancelledContext(t *testing.T) {
	d := New("t").Param("a", KindString, "").Handler(noop)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PopAll(ctx, d, NewTextCursor("x"), &Invocation{}, &Decoder{})
	assert.ErrorIs(t, err, context.Canceled)
}
