package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// EntityResolver looks platform entities up by ID. It is the only outward
// call the decoder makes. Implementations own any caching.
type EntityResolver interface {
	Lookup(ctx context.Context, kind Kind, id string, inv *Invocation) (Entity, error)
}

// EntityResolverFunc adapts a function to EntityResolver.
type EntityResolverFunc func(ctx context.Context, kind Kind, id string, inv *Invocation) (Entity, error)

func (f EntityResolverFunc) Lookup(ctx context.Context, kind Kind, id string, inv *Invocation) (Entity, error) {
	return f(ctx, kind, id, inv)
}

var ErrNoResolver = errors.New("no entity resolver configured")

var (
	snowflakeRe = regexp.MustCompile(`^[0-9]{15,21}$`)
	userRe      = regexp.MustCompile(`^<@!?([0-9]{15,21})>$`)
	channelRe   = regexp.MustCompile(`^<#([0-9]{15,21})>$`)
	roleRe      = regexp.MustCompile(`^<@&([0-9]{15,21})>$`)
)

// ExtractID pulls the ID out of a mention of the given kind or a bare ID.
func ExtractID(kind Kind, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if snowflakeRe.MatchString(raw) {
		return raw, true
	}
	var re *regexp.Regexp
	switch kind {
	case KindUser:
		re = userRe
	case KindChannel:
		re = channelRe
	case KindRole:
		re = roleRe
	default:
		return "", false
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Decoder converts raw tokens and option values into typed values.
// It holds no state between calls.
type Decoder struct {
	Resolver EntityResolver
}

// Decode converts raw for parameter p at position index. raw is a string for
// prefix invocations and whatever the adapter supplied for structured ones.
// Every failure is an *ArgumentError.
func (dec *Decoder) Decode(ctx context.Context, index int, p *Param, raw any, inv *Invocation) (any, error) {
	fail := func(reason Reason, err error) error {
		return &ArgumentError{Index: index, Param: p.Name, Reason: reason, Input: fmt.Sprint(raw), Err: err}
	}

	switch p.Kind {
	case KindString, KindGreedy:
		switch v := raw.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return nil, fail(ReasonSyntax, fmt.Errorf("expected text, got %T", raw))

	case KindInt:
		n, err := decodeInt(raw)
		if err != nil {
			return nil, fail(ReasonSyntax, err)
		}
		return n, nil

	case KindBool:
		b, err := decodeBool(raw)
		if err != nil {
			return nil, fail(ReasonSyntax, err)
		}
		return b, nil

	case KindUser, KindChannel, KindRole:
		s, ok := raw.(string)
		if !ok {
			return nil, fail(ReasonSyntax, fmt.Errorf("expected %s reference, got %T", p.Kind, raw))
		}
		id, ok := ExtractID(p.Kind, s)
		if !ok {
			return nil, fail(ReasonSyntax, fmt.Errorf("%q is not a %s mention or ID", s, p.Kind))
		}
		if dec == nil || dec.Resolver == nil {
			return nil, fail(ReasonLookup, ErrNoResolver)
		}
		e, err := dec.Resolver.Lookup(ctx, p.Kind, id, inv)
		if err != nil {
			return nil, fail(ReasonLookup, err)
		}
		if e.Kind == 0 && p.Kind != 0 {
			e.Kind = p.Kind
		}
		if e.ID == "" {
			e.ID = id
		}
		return e, nil

	case KindCustom:
		s, ok := raw.(string)
		if !ok {
			s = fmt.Sprint(raw)
		}
		v, err := p.Decode(ctx, s, inv)
		if err != nil {
			var ae *ArgumentError
			if errors.As(err, &ae) {
				cp := *ae
				cp.Index, cp.Param = index, p.Name
				return nil, &cp
			}
			return nil, fail(ReasonCustom, err)
		}
		return v, nil
	}

	return nil, fail(ReasonSyntax, fmt.Errorf("unsupported parameter kind %d", p.Kind))
}

func decodeInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", raw)
}

func decodeBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "on", "1":
			return true, nil
		case "false", "no", "n", "off", "0":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", v)
	}
	return false, fmt.Errorf("expected boolean, got %T", raw)
}
