package cmd

import (
	"context"
	"errors"
	"fmt"
)

// PopAll decodes every parameter of d from the cursor, strictly in
// declaration order. It returns either the complete argument set or the
// first *ArgumentError; a partial set is never returned.
func PopAll(ctx context.Context, d *Descriptor, cur Cursor, inv *Invocation, dec *Decoder) (Args, error) {
	values := make([]any, 0, len(d.Params))

	for i := range d.Params {
		p := &d.Params[i]
		if err := ctx.Err(); err != nil {
			return Args{}, err
		}

		greedy := p.Kind == KindGreedy && i == len(d.Params)-1
		at := cur.Pos()
		raw, ok := cur.take(p, greedy)
		if !ok {
			if p.Optional {
				values = append(values, p.Default)
				continue
			}
			return Args{}, &ArgumentError{Index: i, Param: p.Name, Reason: ReasonMissing, Pos: at}
		}

		v, err := dec.Decode(ctx, i, p, raw, inv)
		if err != nil {
			var ae *ArgumentError
			if errors.As(err, &ae) {
				ae.Pos = at
			}
			return Args{}, err
		}
		values = append(values, v)
	}

	if d.Strict {
		if left := cur.rest(); left != "" {
			return Args{}, &ArgumentError{
				Index:  len(d.Params),
				Reason: ReasonTrailing,
				Pos:    cur.Pos(),
				Input:  left,
				Err:    fmt.Errorf("unexpected %q", left),
			}
		}
	}

	return Args{params: d.Params, values: values}, nil
}
