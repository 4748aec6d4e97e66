package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"botcore/pkg/cmd"
)

var (
	tokenRegex = regexp.MustCompile(`(?i)\d*d\d+|\d+|[+\-*/]`)
	diceRegex  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
)

const (
	maxDice  = 100
	maxSides = 1000
)

// term is one operand of a formula with the operator before it.
type term struct {
	op    string
	token string
	count int // 0 for a plain number
	sides int
	value int
}

// formula is a parsed dice expression such as 2d6+1d4*2-3.
type formula struct {
	text  string
	terms []term
}

func parseFormula(_ context.Context, raw string, _ *cmd.Invocation) (any, error) {
	text := strings.ReplaceAll(raw, " ", "")
	tokens := tokenRegex.FindAllString(text, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != text {
		return nil, errors.New("can't parse your formula, try something like `2d6+1d4*2-3`")
	}

	f := formula{text: text}
	op := "+"
	expectOperand := true
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "+-*/") {
			if expectOperand {
				return nil, fmt.Errorf("unexpected operator %q", tok)
			}
			op, expectOperand = tok, true
			continue
		}
		if !expectOperand {
			return nil, fmt.Errorf("missing operator before %q", tok)
		}
		t, err := parseTerm(tok)
		if err != nil {
			return nil, err
		}
		t.op = op
		f.terms = append(f.terms, t)
		expectOperand = false
	}
	if expectOperand {
		return nil, errors.New("formula ends with an operator")
	}
	return f, nil
}

func parseTerm(tok string) (term, error) {
	m := diceRegex.FindStringSubmatch(tok)
	if m == nil {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return term{}, fmt.Errorf("%q is not a number or dice", tok)
		}
		return term{token: tok, value: n}, nil
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 {
		return term{}, fmt.Errorf("invalid dice sides in %q", tok)
	}
	if count < 1 {
		return term{}, fmt.Errorf("invalid dice count in %q", tok)
	}
	if count > maxDice || sides > maxSides {
		return term{}, fmt.Errorf("too big, max %d dice with %d sides", maxDice, maxSides)
	}
	return term{token: tok, count: count, sides: sides}, nil
}

// roll evaluates f, multiplication and division first.
func (f formula) roll(intn func(int) int) (int, string, error) {
	type part struct {
		op    string
		value int
		desc  string
	}
	var parts []part
	for _, t := range f.terms {
		desc := fmt.Sprintf("`%s`", t.token)
		v := t.value
		if t.count > 0 {
			rolls := make([]string, t.count)
			v = 0
			for i := range t.count {
				r := intn(t.sides) + 1
				v += r
				rolls[i] = strconv.Itoa(r)
			}
			desc = fmt.Sprintf("`%s` [%s]", t.token, strings.Join(rolls, ", "))
		}

		if len(parts) > 0 && (t.op == "*" || t.op == "/") {
			last := &parts[len(parts)-1]
			if t.op == "/" {
				if v == 0 {
					return 0, "", errors.New("division by zero")
				}
				last.value /= v
			} else {
				last.value *= v
			}
			last.desc += " " + t.op + " " + desc
			continue
		}
		parts = append(parts, part{op: t.op, value: v, desc: desc})
	}

	total := 0
	var details []string
	for i, p := range parts {
		if i > 0 {
			details = append(details, p.op)
		}
		details = append(details, p.desc)
		if p.op == "-" {
			total -= p.value
		} else {
			total += p.value
		}
	}
	return total, strings.Join(details, " "), nil
}

func rollCommand(deps *Deps) *cmd.Descriptor {
	return cmd.New("roll").
		Description("Roll dice with formulas like `2d6+1d4*2`").
		Category(CategoryFun).
		Custom("formula", parseFormula, true, nil, "Dice formula, e.g. `2d6+1d4*2-3`, defaults to 1d6").
		Cooldown(3*time.Second, cmd.ScopeUser).
		Handler(func(ctx context.Context, inv *cmd.Invocation, args cmd.Args) error {
			f, ok := args.At(0).(formula)
			if !ok {
				f = formula{text: "1d6", terms: []term{{op: "+", token: "1d6", count: 1, sides: 6}}}
			}
			total, calc, err := f.roll(deps.Intn)
			if err != nil {
				return reply(ctx, inv, "Failed to roll: "+err.Error())
			}
			return reply(ctx, inv, fmt.Sprintf("🎲 `%s`: %s = **%d**", f.text, calc, total))
		})
}
