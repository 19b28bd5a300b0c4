package procmacro

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"

	"github.com/macrolang/macroc/internal/tokenize"
)

// LoadStarlarkFile executes a Starlark file and registers every global
// function that does not start with an underscore as a procedural macro.
//
// A macro function receives one argument, the invocation tokens, and returns
// the replacement tokens. Tokens cross the boundary as tuples:
//
//	("ident", "x")  ("number", "42")  ("string", "\"s\"")  ("punct", "+")
//	("group", "(", [children...])
//
// The predeclared helpers ident, number, strlit, punct and group build
// these tuples so macro code does not have to spell them out.
func (r *Registry) LoadStarlarkFile(path string) error {
	thread := &starlark.Thread{Name: "load " + path}
	globals, err := starlark.ExecFile(thread, path, nil, predeclared())
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	registered := 0
	for _, name := range names {
		if strings.HasPrefix(name, "_") {
			continue
		}
		fn, ok := globals[name].(*starlark.Function)
		if !ok {
			continue
		}
		doc := fn.Doc()
		if doc == "" {
			doc = "defined in " + path
		}
		if err := r.Register(name, starlarkMacro(path, fn), doc); err != nil {
			return err
		}
		registered++
	}
	if registered == 0 {
		return fmt.Errorf("%s defines no macro functions", path)
	}
	return nil
}

func predeclared() starlark.StringDict {
	leaf := func(kind string) *starlark.Builtin {
		return starlark.NewBuiltin(kind, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var text string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
				return nil, err
			}
			return starlark.Tuple{starlark.String(kind), starlark.String(text)}, nil
		})
	}
	group := starlark.NewBuiltin("group", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var delim string
		var children *starlark.List
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &delim, &children); err != nil {
			return nil, err
		}
		return starlark.Tuple{starlark.String("group"), starlark.String(delim), children}, nil
	})
	return starlark.StringDict{
		"ident":  leaf("ident"),
		"number": leaf("number"),
		"strlit": leaf("string"),
		"punct":  leaf("punct"),
		"group":  group,
	}
}

func starlarkMacro(path string, fn *starlark.Function) Func {
	return func(ctx Context, args tokenize.Stream) (tokenize.Stream, error) {
		thread := &starlark.Thread{Name: "macro " + fn.Name()}
		out, err := starlark.Call(thread, fn, starlark.Tuple{tokensToStarlark(args)}, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %s!: %w", path, fn.Name(), err)
		}
		toks, err := starlarkToTokens(out)
		if err != nil {
			return nil, fmt.Errorf("%s: %s! returned a bad value: %w", path, fn.Name(), err)
		}
		for i := range toks {
			toks[i].Pos = ctx.Pos()
		}
		return toks, nil
	}
}

func tokensToStarlark(s tokenize.Stream) *starlark.List {
	elems := make([]starlark.Value, len(s))
	for i, t := range s {
		elems[i] = tokenToStarlark(t)
	}
	return starlark.NewList(elems)
}

func tokenToStarlark(t tokenize.Token) starlark.Value {
	if t.Kind == tokenize.KindGroup {
		return starlark.Tuple{
			starlark.String("group"),
			starlark.String(t.Delim.Open()),
			tokensToStarlark(t.Children),
		}
	}
	return starlark.Tuple{starlark.String(wireKind(t.Kind)), starlark.String(t.Text)}
}

func starlarkToTokens(v starlark.Value) (tokenize.Stream, error) {
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, fmt.Errorf("want a list of token tuples, got %s", v.Type())
	}
	out := make(tokenize.Stream, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		t, err := starlarkToToken(list.Index(i))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func starlarkToToken(v starlark.Value) (tokenize.Token, error) {
	tup, ok := v.(starlark.Tuple)
	if !ok || len(tup) < 2 {
		return tokenize.Token{}, fmt.Errorf("want a (kind, text) tuple, got %s", v.Type())
	}
	kind, ok := starlark.AsString(tup[0])
	if !ok {
		return tokenize.Token{}, fmt.Errorf("tuple kind is %s, want a string", tup[0].Type())
	}
	text, ok := starlark.AsString(tup[1])
	if !ok {
		return tokenize.Token{}, fmt.Errorf("tuple text is %s, want a string", tup[1].Type())
	}

	if kind == "group" {
		if len(tup) != 3 {
			return tokenize.Token{}, fmt.Errorf("group tuple wants (\"group\", delim, children)")
		}
		delim, ok := openDelim(text)
		if !ok {
			return tokenize.Token{}, fmt.Errorf("unknown group delimiter %q", text)
		}
		children, err := starlarkToTokens(tup[2])
		if err != nil {
			return tokenize.Token{}, err
		}
		return tokenize.Token{Kind: tokenize.KindGroup, Delim: delim, Children: children}, nil
	}

	k, ok := parseWireKind(kind)
	if !ok {
		return tokenize.Token{}, fmt.Errorf("unknown token kind %q", kind)
	}
	return tokenize.Token{Kind: k, Text: text}, nil
}

func wireKind(k tokenize.Kind) string {
	switch k {
	case tokenize.KindIdent:
		return "ident"
	case tokenize.KindNumber:
		return "number"
	case tokenize.KindString:
		return "string"
	default:
		return "punct"
	}
}

func parseWireKind(s string) (tokenize.Kind, bool) {
	switch s {
	case "ident":
		return tokenize.KindIdent, true
	case "number":
		return tokenize.KindNumber, true
	case "string":
		return tokenize.KindString, true
	case "punct":
		return tokenize.KindPunct, true
	}
	return tokenize.KindNone, false
}

func openDelim(s string) (tokenize.Delim, bool) {
	switch s {
	case "(":
		return tokenize.DelimParen, true
	case "[":
		return tokenize.DelimBracket, true
	case "{":
		return tokenize.DelimBrace, true
	}
	return tokenize.DelimNone, false
}
