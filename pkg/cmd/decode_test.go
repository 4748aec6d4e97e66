package cmd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceID = "111111111111111111"

func TestDecoder_Scalars(t *testing.T) {
	dec := &Decoder{}
	tests := []struct {
		name   string
		kind   Kind
		raw    any
		want   any
		reason Reason
	}{
		{name: "string", kind: KindString, raw: "hi", want: "hi"},
		{name: "int", kind: KindInt, raw: "42", want: int64(42)},
		{name: "negative int", kind: KindInt, raw: "-7", want: int64(-7)},
		{name: "int from option", kind: KindInt, raw: float64(9), want: int64(9)},
		{name: "int64 from option", kind: KindInt, raw: int64(5), want: int64(5)},
		{name: "fractional option", kind: KindInt, raw: 1.5, reason: ReasonSyntax},
		{name: "not an int", kind: KindInt, raw: "4x", reason: ReasonSyntax},
		{name: "bool yes", kind: KindBool, raw: "YES", want: true},
		{name: "bool off", kind: KindBool, raw: "off", want: false},
		{name: "bool option", kind: KindBool, raw: true, want: true},
		{name: "bad bool", kind: KindBool, raw: "maybe", reason: ReasonSyntax},
		{name: "string from number", kind: KindString, raw: 3, reason: ReasonSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Param{Name: "p", Kind: tt.kind}
			got, err := dec.Decode(context.Background(), 2, p, tt.raw, &Invocation{})
			if tt.reason != 0 {
				var ae *ArgumentError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, tt.reason, ae.Reason)
				assert.Equal(t, 2, ae.Index)
				assert.Equal(t, "p", ae.Param)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		kind Kind
		raw  string
		id   string
		ok   bool
	}{
		{KindUser, "<@" + aliceID + ">", aliceID, true},
		{KindUser, "<@!" + aliceID + ">", aliceID, true},
		{KindUser, aliceID, aliceID, true},
		{KindUser, "<#" + aliceID + ">", "", false},
		{KindChannel, "<#" + aliceID + ">", aliceID, true},
		{KindRole, "<@&" + aliceID + ">", aliceID, true},
		{KindRole, "<@" + aliceID + ">", "", false},
		{KindUser, "alice", "", false},
		{KindUser, "123", "", false},
	}
	for _, tt := range tests {
		id, ok := ExtractID(tt.kind, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.id, id, tt.raw)
	}
}

func TestDecoder_Entities(t *testing.T) {
	res := &fakeResolver{entities: map[string]Entity{
		aliceID: {Kind: KindUser, ID: aliceID, Name: "alice"},
	}}
	dec := &Decoder{Resolver: res}
	user := &Param{Name: "who", Kind: KindUser}

	got, err := dec.Decode(context.Background(), 0, user, "<@"+aliceID+">", &Invocation{})
	require.NoError(t, err)
	assert.Equal(t, Entity{Kind: KindUser, ID: aliceID, Name: "alice"}, got)
	assert.Equal(t, 1, res.calls)

	t.Run("syntax failure skips lookup", func(t *testing.T) {
		res.calls = 0
		_, err := dec.Decode(context.Background(), 0, user, "@alice", &Invocation{})
		assert.ErrorIs(t, err, &ArgumentError{Reason: ReasonSyntax})
		assert.Zero(t, res.calls)
	})

	t.Run("lookup failure", func(t *testing.T) {
		_, err := dec.Decode(context.Background(), 0, user, "222222222222222222", &Invocation{})
		assert.ErrorIs(t, err, &ArgumentError{Reason: ReasonLookup})
	})

	t.Run("no resolver", func(t *testing.T) {
		_, err := (&Decoder{}).Decode(context.Background(), 0, user, aliceID, &Invocation{})
		assert.ErrorIs(t, err, ErrNoResolver)
	})
}

func TestDecoder_Custom(t *testing.T) {
	duration := func(_ context.Context, raw string, _ *Invocation) (any, error) {
		return time.ParseDuration(raw)
	}
	p := &Param{Name: "after", Kind: KindCustom, Decode: duration}
	dec := &Decoder{}

	got, err := dec.Decode(context.Background(), 1, p, "90s", &Invocation{})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, got)

	_, err = dec.Decode(context.Background(), 1, p, "soon", &Invocation{})
	var ae *ArgumentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ReasonCustom, ae.Reason)
	assert.Equal(t, 1, ae.Index)
	assert.Contains(t, err.Error(), "soon")
}

func TestDecoder_CustomArgumentErrorIsReindexed(t *testing.T) {
	strictColor := func(_ context.Context, raw string, _ *Invocation) (any, error) {
		return nil, &ArgumentError{Reason: ReasonSyntax, Input: raw, Err: errors.New("not a hex color")}
	}
	p := &Param{Name: "color", Kind: KindCustom, Decode: strictColor}

	_, err := (&Decoder{}).Decode(context.Background(), 3, p, "red", &Invocation{})
	var ae *ArgumentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ReasonSyntax, ae.Reason)
	assert.Equal(t, 3, ae.Index)
	assert.Equal(t, "color", ae.Param)
}

var errNotHex = &ArgumentError{Reason: ReasonSyntax, Err: errors.New("not a hex color")}

func TestDecoder_CustomArgumentErrorIsCopied(t *testing.T) {
	hex := func(context.Context, string, *Invocation) (any, error) { return nil, errNotHex }
	d := New("paint").
		Custom("fg", hex, false, nil, "").
		Custom("bg", hex, false, nil, "").
		Handler(noop)
	dec := &Decoder{}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := dec.Decode(context.Background(), i%2, &d.Params[i%2], "red", &Invocation{})
			var ae *ArgumentError
			if assert.True(t, errors.As(err, &ae)) {
				assert.Equal(t, d.Params[i%2].Name, ae.Param)
				assert.NotSame(t, errNotHex, ae)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, errNotHex.Index)
	assert.Empty(t, errNotHex.Param)
}
