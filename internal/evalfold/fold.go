// Package evalfold folds constant expressions over token streams.
//
// The folder understands the subset of Go expressions that macro arguments
// are made of in practice: integer, string and boolean literals, the usual
// arithmetic, comparison and logical operators, parenthesised groups, and
// calls to min and max. Identifiers resolve through a caller-supplied
// environment. Anything outside that subset is an error, not a silent
// pass-through; the callers decide whether that error is fatal.
package evalfold

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/macrolang/macroc/internal/tokenize"
)

// Env supplies values for free identifiers during folding.
type Env map[string]Value

// Fold evaluates the token stream as a single constant expression.
func Fold(s tokenize.Stream, env Env) (Value, error) {
	f := &folder{c: tokenize.NewCursor(s), env: env}
	v, err := f.expr(0)
	if err != nil {
		return nil, err
	}
	if !f.c.Done() {
		t := f.c.Peek()
		return nil, fmt.Errorf("%s: unexpected %s after expression", t.Pos, t.Describe())
	}
	return v, nil
}

// FoldInt evaluates the stream and requires an integer result.
func FoldInt(s tokenize.Stream, env Env) (int64, error) {
	v, err := Fold(s, env)
	if err != nil {
		return 0, err
	}
	iv, ok := v.(IntValue)
	if !ok {
		return 0, fmt.Errorf("expression %q is %s, not int", s.String(), typeName(v))
	}
	return iv.Val, nil
}

type folder struct {
	c   *tokenize.Cursor
	env Env
}

// binding powers, higher binds tighter
var binaryPower = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

func (f *folder) expr(minPower int) (Value, error) {
	left, err := f.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := f.c.Peek()
		if op.Kind != tokenize.KindPunct {
			return left, nil
		}
		power, ok := binaryPower[op.Text]
		if !ok || power < minPower {
			return left, nil
		}
		f.c.Next()
		right, err := f.expr(power + 1)
		if err != nil {
			return nil, err
		}
		left, err = f.binary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (f *folder) unary() (Value, error) {
	t := f.c.Peek()
	switch {
	case t.IsPunct("-"):
		f.c.Next()
		v, err := f.unary()
		if err != nil {
			return nil, err
		}
		iv, ok := v.(IntValue)
		if !ok {
			return nil, fmt.Errorf("%s: cannot negate %s", t.Pos, typeName(v))
		}
		return IntValue{Val: -iv.Val}, nil
	case t.IsPunct("!"):
		f.c.Next()
		v, err := f.unary()
		if err != nil {
			return nil, err
		}
		bv, ok := v.(BoolValue)
		if !ok {
			return nil, fmt.Errorf("%s: cannot negate %s", t.Pos, typeName(v))
		}
		return BoolValue{Val: !bv.Val}, nil
	}
	return f.primary()
}

func (f *folder) primary() (Value, error) {
	t := f.c.Next()
	switch t.Kind {
	case tokenize.KindNumber:
		n, err := strconv.ParseInt(t.Text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot fold number %q", t.Pos, t.Text)
		}
		return IntValue{Val: n}, nil

	case tokenize.KindString:
		if strings.HasPrefix(t.Text, "'") {
			return nil, fmt.Errorf("%s: cannot fold rune literal %s", t.Pos, t.Text)
		}
		s, err := strconv.Unquote(t.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot fold string %s", t.Pos, t.Text)
		}
		return StringValue{Val: s}, nil

	case tokenize.KindIdent:
		switch t.Text {
		case "true":
			return BoolValue{Val: true}, nil
		case "false":
			return BoolValue{Val: false}, nil
		case "min", "max":
			if f.c.Peek().IsGroup(tokenize.DelimParen) {
				return f.call(t)
			}
		}
		if v, ok := f.env[t.Text]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("%s: unknown identifier %q", t.Pos, t.Text)

	case tokenize.KindGroup:
		if t.Delim != tokenize.DelimParen {
			return nil, fmt.Errorf("%s: cannot fold %s", t.Pos, t.Describe())
		}
		return Fold(t.Children, f.env)

	case tokenize.KindNone:
		return nil, fmt.Errorf("unexpected end of expression")

	default:
		return nil, fmt.Errorf("%s: cannot fold %s", t.Pos, t.Describe())
	}
}

// call folds min(...) or max(...). Both take one or more int arguments.
func (f *folder) call(name tokenize.Token) (Value, error) {
	group := f.c.Next()
	args, err := splitArgs(group.Children)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: %s needs at least one argument", name.Pos, name.Text)
	}
	var best int64
	for i, arg := range args {
		n, err := FoldInt(arg, f.env)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			best = n
			continue
		}
		if (name.Text == "min" && n < best) || (name.Text == "max" && n > best) {
			best = n
		}
	}
	return IntValue{Val: best}, nil
}

// splitArgs splits a paren group body on top-level commas. A trailing comma
// is allowed, empty arguments elsewhere are not.
func splitArgs(s tokenize.Stream) ([]tokenize.Stream, error) {
	var args []tokenize.Stream
	start := 0
	for i, t := range s {
		if t.IsPunct(",") {
			if i == start {
				return nil, fmt.Errorf("%s: empty argument", t.Pos)
			}
			args = append(args, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		args = append(args, s[start:])
	}
	return args, nil
}

func (f *folder) binary(op tokenize.Token, left, right Value) (Value, error) {
	switch op.Text {
	case "==":
		return BoolValue{Val: left.Equal(right)}, nil
	case "!=":
		return BoolValue{Val: !left.Equal(right)}, nil
	}

	switch l := left.(type) {
	case IntValue:
		r, ok := right.(IntValue)
		if !ok {
			return nil, f.mismatch(op, left, right)
		}
		switch op.Text {
		case "+":
			return IntValue{Val: l.Val + r.Val}, nil
		case "-":
			return IntValue{Val: l.Val - r.Val}, nil
		case "*":
			return IntValue{Val: l.Val * r.Val}, nil
		case "/":
			if r.Val == 0 {
				return nil, fmt.Errorf("%s: division by zero", op.Pos)
			}
			return IntValue{Val: l.Val / r.Val}, nil
		case "%":
			if r.Val == 0 {
				return nil, fmt.Errorf("%s: division by zero", op.Pos)
			}
			return IntValue{Val: l.Val % r.Val}, nil
		case "<":
			return BoolValue{Val: l.Val < r.Val}, nil
		case "<=":
			return BoolValue{Val: l.Val <= r.Val}, nil
		case ">":
			return BoolValue{Val: l.Val > r.Val}, nil
		case ">=":
			return BoolValue{Val: l.Val >= r.Val}, nil
		}

	case StringValue:
		r, ok := right.(StringValue)
		if !ok {
			return nil, f.mismatch(op, left, right)
		}
		switch op.Text {
		case "+":
			return StringValue{Val: l.Val + r.Val}, nil
		case "<":
			return BoolValue{Val: l.Val < r.Val}, nil
		case "<=":
			return BoolValue{Val: l.Val <= r.Val}, nil
		case ">":
			return BoolValue{Val: l.Val > r.Val}, nil
		case ">=":
			return BoolValue{Val: l.Val >= r.Val}, nil
		}

	case BoolValue:
		r, ok := right.(BoolValue)
		if !ok {
			return nil, f.mismatch(op, left, right)
		}
		switch op.Text {
		case "&&":
			return BoolValue{Val: l.Val && r.Val}, nil
		case "||":
			return BoolValue{Val: l.Val || r.Val}, nil
		}
	}
	return nil, fmt.Errorf("%s: operator %q is not defined on %s and %s",
		op.Pos, op.Text, typeName(left), typeName(right))
}

func (f *folder) mismatch(op tokenize.Token, left, right Value) error {
	return fmt.Errorf("%s: mismatched operands for %q: %s and %s",
		op.Pos, op.Text, typeName(left), typeName(right))
}
