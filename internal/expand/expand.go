// Package expand drives macro expansion over token streams.
//
// Expansion is outermost first: an invocation's arguments are handed to the
// macro as written, and the replacement is then expanded again until no
// invocation remains. Arguments are only pre-expanded when a procedural
// macro asks for it through its context. Each level of replacement counts
// against a recursion limit, so a macro that keeps producing invocations is
// reported instead of looping.
package expand

import (
	"fmt"
	"go/token"
	"sort"

	"github.com/macrolang/macroc/internal/pattern"
	"github.com/macrolang/macroc/internal/procmacro"
	"github.com/macrolang/macroc/internal/tokenize"
)

// DefaultLimit is the default expansion depth limit.
const DefaultLimit = 128

// Expander expands invocations against a set of declarative macros and a
// procedural macro registry.
type Expander struct {
	macros map[string]*pattern.Macro
	procs  *procmacro.Registry
	limit  int
}

// New returns an Expander using the given procedural registry. A limit of 0
// means DefaultLimit.
func New(procs *procmacro.Registry, limit int) *Expander {
	if procs == nil {
		procs = procmacro.NewRegistry()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Expander{
		macros: make(map[string]*pattern.Macro),
		procs:  procs,
		limit:  limit,
	}
}

// Define adds a declarative macro. Names are shared with procedural macros,
// so a definition cannot shadow either kind.
func (e *Expander) Define(m *pattern.Macro) error {
	if _, ok := e.macros[m.Name]; ok {
		return &pattern.DefError{Pos: m.Pos, Msg: fmt.Sprintf("macro %s is defined twice", m.Name)}
	}
	if _, ok := e.procs.Lookup(m.Name); ok {
		return &pattern.DefError{Pos: m.Pos, Msg: fmt.Sprintf("macro %s shadows a procedural macro", m.Name)}
	}
	e.macros[m.Name] = m
	return nil
}

// Macros returns the names of the defined declarative macros, sorted.
func (e *Expander) Macros() []string {
	names := make([]string, 0, len(e.macros))
	for name := range e.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Procs returns the procedural macro registry.
func (e *Expander) Procs() *procmacro.Registry { return e.procs }

// ExtractDefinitions splits a stream into macro definitions and the
// remaining tokens. A definition is the top-level form
//
//	macro name { rules }
//
// Definitions nested inside groups are not collected.
func ExtractDefinitions(s tokenize.Stream) ([]*pattern.Macro, tokenize.Stream, error) {
	var (
		defs []*pattern.Macro
		rest tokenize.Stream
	)
	c := tokenize.NewCursor(s)
	for !c.Done() {
		t := c.Peek()
		if t.IsIdent("macro") && c.PeekAt(1).Kind == tokenize.KindIdent && c.PeekAt(2).IsGroup(tokenize.DelimBrace) {
			kw := c.Next()
			name := c.Next()
			body := c.Next()
			m, err := pattern.ParseMacro(name.Text, kw.Pos, body.Children)
			if err != nil {
				return nil, nil, err
			}
			defs = append(defs, m)
			continue
		}
		rest = append(rest, c.Next())
	}
	return defs, rest, nil
}

// Expand expands every invocation in s to a fixed point.
func (e *Expander) Expand(s tokenize.Stream) (tokenize.Stream, error) {
	return e.expandStream(s, 0)
}

func (e *Expander) expandStream(s tokenize.Stream, depth int) (tokenize.Stream, error) {
	var out tokenize.Stream
	c := tokenize.NewCursor(s)
	for !c.Done() {
		if name, args, ok := peekInvocation(c); ok {
			rep, err := e.invoke(name, args, depth)
			if err != nil {
				return nil, err
			}
			out = spliceNL(out, rep, name.NL)
			continue
		}
		t := c.Next()
		if t.Kind == tokenize.KindGroup {
			children, err := e.expandStream(t.Children, depth)
			if err != nil {
				return nil, err
			}
			t.Children = children
		}
		out = append(out, t)
	}
	return out, nil
}

// peekInvocation recognises name!(...), name![...] and name!{...} and
// consumes the three tokens on success. Go keywords never name a macro, so
// forms like `return !(ok)` pass through untouched.
func peekInvocation(c *tokenize.Cursor) (name tokenize.Token, args tokenize.Token, ok bool) {
	t := c.Peek()
	if t.Kind != tokenize.KindIdent || token.Lookup(t.Text).IsKeyword() {
		return name, args, false
	}
	if !c.PeekAt(1).IsPunct("!") || c.PeekAt(2).Kind != tokenize.KindGroup {
		return name, args, false
	}
	name = c.Next()
	c.Next()
	args = c.Next()
	return name, args, true
}

func (e *Expander) invoke(name, group tokenize.Token, depth int) (tokenize.Stream, error) {
	if depth >= e.limit {
		return nil, &RecursionError{Pos: name.Pos, Macro: name.Text, Limit: e.limit}
	}
	args := group.Children

	if m, ok := e.macros[name.Text]; ok {
		rep, err := m.Expand(args)
		if err != nil {
			return nil, &ExpandError{Pos: name.Pos, Macro: name.Text, Err: err}
		}
		return e.expandStream(rep, depth+1)
	}

	if fn, ok := e.procs.Lookup(name.Text); ok {
		rep, err := fn(&procCtx{e: e, pos: name.Pos, depth: depth}, args)
		if err != nil {
			return nil, &ExpandError{Pos: name.Pos, Macro: name.Text, Err: err}
		}
		return e.expandStream(rep, depth+1)
	}

	return nil, &UndefinedError{Pos: name.Pos, Name: name.Text}
}

// procCtx is the Context handed to procedural macros.
type procCtx struct {
	e     *Expander
	pos   tokenize.Pos
	depth int
}

func (c *procCtx) Expand(s tokenize.Stream) (tokenize.Stream, error) {
	return c.e.expandStream(s, c.depth+1)
}

func (c *procCtx) Pos() tokenize.Pos { return c.pos }

// spliceNL appends a replacement, moving the invocation's line-break flag
// onto its first token so line structure survives expansion.
func spliceNL(out, rep tokenize.Stream, nl bool) tokenize.Stream {
	if len(rep) == 0 {
		return out
	}
	head := rep[0]
	head.NL = nl
	out = append(out, head)
	return append(out, rep[1:]...)
}
