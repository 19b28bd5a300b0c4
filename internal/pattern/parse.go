package pattern

import (
	"fmt"

	"github.com/macrolang/macroc/internal/tokenize"
)

// Macro is a named, parsed macro definition.
type Macro struct {
	Name  string
	Pos   tokenize.Pos
	Rules []Rule
}

// Rule is one pattern => template arm of a macro.
type Rule struct {
	Pattern  []Elem
	Template []Elem
	Pos      tokenize.Pos // of the pattern group
}

// DefError is a malformed macro definition.
type DefError struct {
	Pos tokenize.Pos
	Msg string
}

func (e *DefError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

func defErrorf(pos tokenize.Pos, format string, args ...any) error {
	return &DefError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ParseMacro parses the body of a macro definition, the tokens between the
// braces of
//
//	macro name { (pattern) => { template }; ... }
//
// Rules are separated by semicolons; a trailing semicolon is allowed.
func ParseMacro(name string, pos tokenize.Pos, body tokenize.Stream) (*Macro, error) {
	m := &Macro{Name: name, Pos: pos}
	c := tokenize.NewCursor(body)
	for !c.Done() {
		pat := c.Next()
		if pat.Kind != tokenize.KindGroup {
			return nil, defErrorf(pat.Pos, "macro %s: a rule starts with a delimited pattern, found %s", name, pat.Describe())
		}
		arrow := c.Next()
		if !arrow.IsPunct("=>") {
			return nil, defErrorf(posOr(arrow, pat.Pos), "macro %s: expected => after the pattern, found %s", name, arrow.Describe())
		}
		tmpl := c.Next()
		if tmpl.Kind != tokenize.KindGroup {
			return nil, defErrorf(posOr(tmpl, arrow.Pos), "macro %s: expected a delimited template after =>, found %s", name, tmpl.Describe())
		}
		rule, err := parseRule(name, pat, tmpl)
		if err != nil {
			return nil, err
		}
		m.Rules = append(m.Rules, rule)

		switch sep := c.Peek(); {
		case sep.IsPunct(";"):
			c.Next()
		case sep.Kind == tokenize.KindNone:
		default:
			return nil, defErrorf(sep.Pos, "macro %s: expected ; between rules, found %s", name, sep.Describe())
		}
	}
	if len(m.Rules) == 0 {
		return nil, defErrorf(pos, "macro %s has no rules", name)
	}
	return m, nil
}

func parseRule(name string, pat, tmpl tokenize.Token) (Rule, error) {
	pelems, err := parseElems(pat.Children, true)
	if err != nil {
		return Rule{}, err
	}
	telems, err := parseElems(tmpl.Children, false)
	if err != nil {
		return Rule{}, err
	}

	bound := make(map[string]bool)
	if err := checkPatternVars(pelems, bound); err != nil {
		return Rule{}, err
	}
	if c := firstUnbound(telems, bound); c != nil {
		return Rule{}, defErrorf(c.Pos, "macro %s: template uses $%s, which the pattern does not capture", name, c.Name)
	}
	return Rule{Pattern: pelems, Template: telems, Pos: pat.Pos}, nil
}

// parseElems parses one side of a rule. In pattern mode captures require a
// fragment kind; in template mode a bare $name is a substitution.
func parseElems(s tokenize.Stream, pattern bool) ([]Elem, error) {
	c := tokenize.NewCursor(s)
	var elems []Elem
	for !c.Done() {
		t := c.Next()
		if !t.IsPunct("$") {
			if t.Kind == tokenize.KindGroup {
				body, err := parseElems(t.Children, pattern)
				if err != nil {
					return nil, err
				}
				elems = append(elems, Group{Delim: t.Delim, Body: body, Pos: t.Pos, NL: t.NL})
				continue
			}
			elems = append(elems, Lit{Tok: t})
			continue
		}

		switch next := c.Peek(); {
		case next.IsPunct("$"):
			// $$ escapes a literal dollar sign.
			c.Next()
			lit := next
			lit.NL = t.NL
			elems = append(elems, Lit{Tok: lit})

		case next.Kind == tokenize.KindIdent:
			c.Next()
			capture := Capture{Name: next.Text, Pos: t.Pos, NL: t.NL}
			if pattern {
				kind, err := parseFragmentSpec(c, capture.Name, t.Pos)
				if err != nil {
					return nil, err
				}
				capture.Kind = kind
			}
			elems = append(elems, capture)

		case next.IsGroup(tokenize.DelimParen):
			c.Next()
			body, err := parseElems(next.Children, pattern)
			if err != nil {
				return nil, err
			}
			if len(body) == 0 {
				return nil, defErrorf(t.Pos, "empty repetition")
			}
			sep, op, err := parseRepTail(c, t.Pos)
			if err != nil {
				return nil, err
			}
			elems = append(elems, Rep{Body: body, Sep: sep, Op: op, Pos: t.Pos, NL: t.NL})

		default:
			return nil, defErrorf(t.Pos, "stray $: expected a name or a parenthesised repetition")
		}
	}
	return elems, nil
}

func parseFragmentSpec(c *tokenize.Cursor, name string, pos tokenize.Pos) (FragmentKind, error) {
	if !c.Peek().IsPunct(":") {
		return FragNone, defErrorf(pos, "capture $%s needs a fragment kind, e.g. $%s:expr", name, name)
	}
	c.Next()
	spec := c.Next()
	if spec.Kind != tokenize.KindIdent {
		return FragNone, defErrorf(posOr(spec, pos), "capture $%s: expected a fragment kind after the colon, found %s", name, spec.Describe())
	}
	kind, ok := ParseFragmentKind(spec.Text)
	if !ok {
		return FragNone, defErrorf(spec.Pos, "capture $%s: unknown fragment kind %q (want expr, ident, ty, lit, tt or block)", name, spec.Text)
	}
	return kind, nil
}

func parseRepTail(c *tokenize.Cursor, pos tokenize.Pos) (*tokenize.Token, RepOp, error) {
	t := c.Next()
	if op, ok := repOp(t); ok {
		return nil, op, nil
	}
	if t.Kind == tokenize.KindNone || t.Kind == tokenize.KindGroup {
		return nil, 0, defErrorf(posOr(t, pos), "repetition needs *, + or ? after the group")
	}
	opTok := c.Next()
	op, ok := repOp(opTok)
	if !ok {
		return nil, 0, defErrorf(posOr(opTok, t.Pos), "repetition separator %q must be followed by * or +", t.Text)
	}
	if op == RepZeroOrOne {
		return nil, 0, defErrorf(opTok.Pos, "the ? operator does not take a separator")
	}
	sep := t
	return &sep, op, nil
}

func repOp(t tokenize.Token) (RepOp, bool) {
	if t.Kind != tokenize.KindPunct {
		return 0, false
	}
	switch t.Text {
	case "*":
		return RepZeroOrMore, true
	case "+":
		return RepOneOrMore, true
	case "?":
		return RepZeroOrOne, true
	}
	return 0, false
}

// checkPatternVars walks a pattern and records every capture name, erroring
// on duplicates. Each name may be captured once per rule.
func checkPatternVars(elems []Elem, seen map[string]bool) error {
	for _, e := range elems {
		switch e := e.(type) {
		case Capture:
			if seen[e.Name] {
				return defErrorf(e.Pos, "capture $%s appears twice in one pattern", e.Name)
			}
			seen[e.Name] = true
		case Group:
			if err := checkPatternVars(e.Body, seen); err != nil {
				return err
			}
		case Rep:
			if err := checkPatternVars(e.Body, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstUnbound(elems []Elem, bound map[string]bool) *Capture {
	for _, e := range elems {
		switch e := e.(type) {
		case Capture:
			if !bound[e.Name] {
				return &e
			}
		case Group:
			if c := firstUnbound(e.Body, bound); c != nil {
				return c
			}
		case Rep:
			if c := firstUnbound(e.Body, bound); c != nil {
				return c
			}
		}
	}
	return nil
}

func posOr(t tokenize.Token, fallback tokenize.Pos) tokenize.Pos {
	if t.Pos.IsValid() {
		return t.Pos
	}
	return fallback
}
