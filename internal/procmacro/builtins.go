package procmacro

import (
	"fmt"
	"strconv"

	"github.com/macrolang/macroc/internal/evalfold"
	"github.com/macrolang/macroc/internal/tokenize"
)

// Builtins returns a registry preloaded with the built-in procedural macros.
func Builtins() *Registry {
	r := NewRegistry()
	must := func(name string, fn Func, doc string) {
		if err := r.Register(name, fn, doc); err != nil {
			panic(err)
		}
	}
	must("reverse_exprs", reverseExprs, "reverse a comma-separated expression list, e.g. reverse_exprs!(1, 2) -> (2, 1)")
	must("splat", splat, "strip the parentheses off a parenthesised list, e.g. f(splat!((1, 2)))")
	must("stringify", stringify, "the argument tokens as written, quoted into a string literal")
	must("const_eval", constEval, "fold the argument to a single constant at generation time")
	must("const_repeat", constRepeat, "const_repeat!(elem; n) repeats elem n times, comma separated")
	return r
}

// reverseExprs reverses the top-level comma list of its arguments and wraps
// the result in parentheses. Nested invocations are expanded first, so
// reverse_exprs!(reverse_exprs!(1, 2)) round-trips.
func reverseExprs(ctx Context, args tokenize.Stream) (tokenize.Stream, error) {
	expanded, err := ctx.Expand(args)
	if err != nil {
		return nil, err
	}
	items, err := splitComma(expanded)
	if err != nil {
		return nil, err
	}
	var children tokenize.Stream
	for i := len(items) - 1; i >= 0; i-- {
		if len(children) > 0 {
			children = append(children, tokenize.Token{Kind: tokenize.KindPunct, Text: ","})
		}
		children = append(children, clearNL(items[i])...)
	}
	return tokenize.Stream{{Kind: tokenize.KindGroup, Delim: tokenize.DelimParen, Children: children, Pos: ctx.Pos()}}, nil
}

// splat unwraps a single parenthesised group so its contents can be spliced
// into an argument list. Anything else passes through unchanged.
func splat(ctx Context, args tokenize.Stream) (tokenize.Stream, error) {
	expanded, err := ctx.Expand(args)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 1 && expanded[0].IsGroup(tokenize.DelimParen) {
		return expanded[0].Children, nil
	}
	return expanded, nil
}

// stringify quotes its arguments as written, before any expansion.
func stringify(ctx Context, args tokenize.Stream) (tokenize.Stream, error) {
	return tokenize.Stream{{
		Kind: tokenize.KindString,
		Text: strconv.Quote(args.String()),
		Pos:  ctx.Pos(),
	}}, nil
}

// constEval folds its argument to one constant token.
func constEval(ctx Context, args tokenize.Stream) (tokenize.Stream, error) {
	expanded, err := ctx.Expand(args)
	if err != nil {
		return nil, err
	}
	v, err := evalfold.Fold(expanded, nil)
	if err != nil {
		return nil, fmt.Errorf("const_eval!: %w", err)
	}
	return lexFragment(v.String(), ctx.Pos())
}

// constRepeat expands const_repeat!(elem; n) to n copies of elem, comma
// separated. n must fold to a non-negative integer.
func constRepeat(ctx Context, args tokenize.Stream) (tokenize.Stream, error) {
	elemPart, countPart, err := splitSemi(args)
	if err != nil {
		return nil, err
	}
	elem, err := ctx.Expand(elemPart)
	if err != nil {
		return nil, err
	}
	countToks, err := ctx.Expand(countPart)
	if err != nil {
		return nil, err
	}
	n, err := evalfold.FoldInt(countToks, nil)
	if err != nil {
		return nil, fmt.Errorf("const_repeat!: count: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("const_repeat!: count is %d, want >= 0", n)
	}
	var out tokenize.Stream
	for i := int64(0); i < n; i++ {
		if i > 0 {
			out = append(out, tokenize.Token{Kind: tokenize.KindPunct, Text: ","})
		}
		out = append(out, clearNL(elem)...)
	}
	return out, nil
}

// splitComma splits a stream on top-level commas. Empty items are errors; a
// trailing comma is allowed.
func splitComma(s tokenize.Stream) ([]tokenize.Stream, error) {
	var items []tokenize.Stream
	start := 0
	for i, t := range s {
		if t.IsPunct(",") {
			if i == start {
				return nil, fmt.Errorf("empty element in list %q", s.String())
			}
			items = append(items, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		items = append(items, s[start:])
	}
	return items, nil
}

// splitSemi splits on the single top-level semicolon of elem; count forms.
func splitSemi(s tokenize.Stream) (tokenize.Stream, tokenize.Stream, error) {
	for i, t := range s {
		if t.IsPunct(";") {
			if i == 0 || i == len(s)-1 {
				return nil, nil, fmt.Errorf("want elem; count, got %q", s.String())
			}
			return s[:i], s[i+1:], nil
		}
	}
	return nil, nil, fmt.Errorf("want elem; count, got %q", s.String())
}

// lexFragment re-lexes rendered text into tokens at pos.
func lexFragment(text string, pos tokenize.Pos) (tokenize.Stream, error) {
	s, err := tokenize.Lex(pos.Filename, text)
	if err != nil {
		return nil, err
	}
	for i := range s {
		s[i].Pos = pos
	}
	return s, nil
}

// clearNL copies a fragment with line-break flags dropped, so list items
// splice onto one line.
func clearNL(s tokenize.Stream) tokenize.Stream {
	out := make(tokenize.Stream, len(s))
	copy(out, s)
	for i := range out {
		out[i].NL = false
	}
	return out
}
