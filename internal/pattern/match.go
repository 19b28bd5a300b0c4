package pattern

import (
	"fmt"
	"strings"

	"github.com/macrolang/macroc/internal/tokenize"
)

// Binding is what one capture variable matched: a leaf token run, or, when
// the capture sits inside repetitions, one list level per repetition depth.
type Binding struct {
	Leaf   bool
	Tokens tokenize.Stream
	List   []Binding
}

// Bindings maps capture names to their bindings.
type Bindings map[string]Binding

func leaf(toks ...tokenize.Token) Binding {
	return Binding{Leaf: true, Tokens: toks}
}

// NoMatchError reports that no rule of a macro matched an invocation. It
// keeps one failure reason per rule, in definition order.
type NoMatchError struct {
	Macro    string
	Args     string
	Failures []RuleFailure
}

// RuleFailure explains why a single rule did not match.
type RuleFailure struct {
	Pattern string
	Reason  string
}

func (e *NoMatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no rule of %s! matches (%s)", e.Macro, e.Args)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; rule %s: %s", f.Pattern, f.Reason)
	}
	return b.String()
}

// matchError is the reason one rule stopped matching. It aborts the rule,
// not the invocation; Expand records it and tries the next rule.
type matchError struct {
	msg string
}

func failf(format string, args ...any) *matchError {
	return &matchError{msg: fmt.Sprintf(format, args...)}
}

// Expand matches args against the rules in order and instantiates the
// template of the first rule that consumes the whole argument stream.
func (m *Macro) Expand(args tokenize.Stream) (tokenize.Stream, error) {
	var failures []RuleFailure
	for _, rule := range m.Rules {
		binds := make(Bindings)
		c := tokenize.NewCursor(args)
		if err := matchSeq(c, rule.Pattern, binds, nil); err != nil {
			failures = append(failures, RuleFailure{Pattern: rulePattern(rule), Reason: err.msg})
			continue
		}
		if !c.Done() {
			failures = append(failures, RuleFailure{
				Pattern: rulePattern(rule),
				Reason:  fmt.Sprintf("%s left over after the pattern", c.Peek().Describe()),
			})
			continue
		}
		return instantiate(m.Name, rule.Template, binds)
	}
	return nil, &NoMatchError{Macro: m.Name, Args: args.String(), Failures: failures}
}

func rulePattern(r Rule) string { return "(" + elemsString(r.Pattern) + ")" }

// matchSeq matches elems against the cursor, filling binds. repSep, when the
// sequence is a repetition body, is that repetition's separator; expression
// runs stop before it.
func matchSeq(c *tokenize.Cursor, elems []Elem, binds Bindings, repSep *tokenize.Token) *matchError {
	for i, e := range elems {
		switch e := e.(type) {
		case Lit:
			t := c.Next()
			if !tokenEq(t, e.Tok) {
				return failf("expected %q, found %s", e.Tok.Text, t.Describe())
			}

		case Group:
			t := c.Next()
			if !t.IsGroup(e.Delim) {
				return failf("expected a %s...%s group, found %s", e.Delim.Open(), e.Delim.Close(), t.Describe())
			}
			inner := tokenize.NewCursor(t.Children)
			if err := matchSeq(inner, e.Body, binds, nil); err != nil {
				return err
			}
			if !inner.Done() {
				return failf("%s left over inside %s...%s", inner.Peek().Describe(), e.Delim.Open(), e.Delim.Close())
			}

		case Capture:
			if err := matchCapture(c, e, elems[i+1:], binds, repSep); err != nil {
				return err
			}

		case Rep:
			if err := matchRep(c, e, binds); err != nil {
				return err
			}
		}
	}
	return nil
}

func matchCapture(c *tokenize.Cursor, e Capture, rest []Elem, binds Bindings, repSep *tokenize.Token) *matchError {
	switch e.Kind {
	case FragIdent:
		t := c.Next()
		if t.Kind != tokenize.KindIdent {
			return failf("$%s:ident: expected an identifier, found %s", e.Name, t.Describe())
		}
		binds[e.Name] = leaf(t)

	case FragLit:
		t := c.Next()
		switch {
		case t.Kind == tokenize.KindNumber || t.Kind == tokenize.KindString:
		case t.IsIdent("true") || t.IsIdent("false"):
		default:
			return failf("$%s:lit: expected a literal, found %s", e.Name, t.Describe())
		}
		binds[e.Name] = leaf(t)

	case FragToken:
		t := c.Next()
		if t.Kind == tokenize.KindNone {
			return failf("$%s:tt: expected a token, found end of input", e.Name)
		}
		binds[e.Name] = leaf(t)

	case FragBlock:
		t := c.Next()
		if !t.IsGroup(tokenize.DelimBrace) {
			return failf("$%s:block: expected a {...} block, found %s", e.Name, t.Describe())
		}
		binds[e.Name] = leaf(t)

	case FragExpr, FragType:
		run := scanRun(c, runStops(rest, repSep))
		if len(run) == 0 {
			return failf("$%s:%s: expected %s, found %s", e.Name, e.Kind, fragNoun(e.Kind), c.Peek().Describe())
		}
		if e.Kind == FragType && !startsType(run[0]) {
			return failf("$%s:ty: %s does not start a type", e.Name, run[0].Describe())
		}
		binds[e.Name] = Binding{Leaf: true, Tokens: run}

	default:
		return failf("$%s has no fragment kind", e.Name)
	}
	return nil
}

func fragNoun(k FragmentKind) string {
	if k == FragType {
		return "a type"
	}
	return "an expression"
}

// startsType filters out token runs that cannot possibly open a Go type.
func startsType(t tokenize.Token) bool {
	switch t.Kind {
	case tokenize.KindIdent:
		return true
	case tokenize.KindPunct:
		return t.Text == "*" || t.Text == "<-"
	case tokenize.KindGroup:
		return t.Delim == tokenize.DelimBracket || t.Delim == tokenize.DelimParen
	}
	return false
}

// runStops builds the stop set for an expression or type run: the separators
// that end an argument at this nesting level, the next literal token of the
// pattern, and the enclosing repetition separator.
func runStops(rest []Elem, repSep *tokenize.Token) []tokenize.Token {
	stops := []tokenize.Token{
		{Kind: tokenize.KindPunct, Text: ","},
		{Kind: tokenize.KindPunct, Text: ";"},
	}
	if len(rest) > 0 {
		if lit, ok := rest[0].(Lit); ok {
			stops = append(stops, lit.Tok)
		}
	}
	if repSep != nil {
		stops = append(stops, *repSep)
	}
	return stops
}

// scanRun consumes tokens up to the first stop token. Groups count as a
// single token, so a comma inside a call or a composite literal never stops
// a run.
func scanRun(c *tokenize.Cursor, stops []tokenize.Token) tokenize.Stream {
	mark := c.Mark()
	for {
		t := c.Peek()
		if t.Kind == tokenize.KindNone || isStop(t, stops) {
			return c.Since(mark)
		}
		c.Next()
	}
}

func isStop(t tokenize.Token, stops []tokenize.Token) bool {
	for _, s := range stops {
		if tokenEq(t, s) {
			return true
		}
	}
	return false
}

func tokenEq(t, want tokenize.Token) bool {
	return t.Kind == want.Kind && t.Kind != tokenize.KindGroup && t.Text == want.Text
}

func matchRep(c *tokenize.Cursor, e Rep, binds Bindings) *matchError {
	names := make(map[string]bool)
	vars(e.Body, names)

	var iters []Bindings
	limit := -1
	if e.Op == RepZeroOrOne {
		limit = 1
	}
	for limit < 0 || len(iters) < limit {
		mark := c.Mark()
		if len(iters) > 0 && e.Sep != nil {
			if !tokenEq(c.Peek(), *e.Sep) {
				break
			}
			c.Next()
		}
		iterBinds := make(Bindings)
		if err := matchSeq(c, e.Body, iterBinds, e.Sep); err != nil {
			c.Reset(mark)
			break
		}
		if c.Mark() == mark {
			// A body of nothing but zero-width repetitions would spin here.
			c.Reset(mark)
			break
		}
		iters = append(iters, iterBinds)
	}

	if e.Op == RepOneOrMore && len(iters) == 0 {
		return failf("expected at least one repetition of %s", "$("+elemsString(e.Body)+")")
	}
	for name := range names {
		list := make([]Binding, len(iters))
		for i, ib := range iters {
			list[i] = ib[name]
		}
		binds[name] = Binding{List: list}
	}
	return nil
}
