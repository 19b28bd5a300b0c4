package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/macrolang/macroc/internal/tokenize"
)

// MismatchError reports a template repetition whose variables repeat
// different numbers of times, so no iteration count is right.
type MismatchError struct {
	Macro  string
	Pos    tokenize.Pos // of the repetition in the template
	Counts map[string]int
}

func (e *MismatchError) Error() string {
	names := make([]string, 0, len(e.Counts))
	for name := range e.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("$%s %d times", name, e.Counts[name])
	}
	return fmt.Sprintf("macro %s: variables in one repetition repeat different numbers of times: %s",
		e.Macro, strings.Join(parts, ", "))
}

// instantiate renders a template with the bindings of a matched pattern.
func instantiate(name string, elems []Elem, binds Bindings) (tokenize.Stream, error) {
	var out tokenize.Stream
	for _, e := range elems {
		switch e := e.(type) {
		case Lit:
			out = append(out, e.Tok)

		case Capture:
			b, ok := binds[e.Name]
			if !ok {
				return nil, defErrorf(e.Pos, "macro %s: $%s is not bound", name, e.Name)
			}
			if !b.Leaf {
				return nil, defErrorf(e.Pos, "macro %s: $%s repeats and must be used inside $(...)", name, e.Name)
			}
			out = appendSplice(out, b.Tokens, e.NL)

		case Group:
			body, err := instantiate(name, e.Body, binds)
			if err != nil {
				return nil, err
			}
			out = append(out, tokenize.Token{
				Kind:     tokenize.KindGroup,
				Delim:    e.Delim,
				Children: body,
				Pos:      e.Pos,
				NL:       e.NL,
			})

		case Rep:
			bodyVars := make(map[string]bool)
			vars(e.Body, bodyVars)
			n, err := repCount(name, e, bodyVars, binds)
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				if i > 0 && e.Sep != nil {
					sep := *e.Sep
					sep.NL = false
					out = append(out, sep)
				}
				body, err := instantiate(name, e.Body, projectBindings(binds, bodyVars, i))
				if err != nil {
					return nil, err
				}
				nl := len(body) > 0 && body[0].NL
				if i == 0 {
					nl = nl || e.NL
				}
				out = appendSplice(out, body, nl)
			}
		}
	}
	return out, nil
}

// appendSplice appends a fragment, giving its first token the line-break
// flag of the slot it fills. The rest of the fragment keeps its own layout.
func appendSplice(out, frag tokenize.Stream, nl bool) tokenize.Stream {
	if len(frag) == 0 {
		return out
	}
	head := frag[0]
	head.NL = nl
	out = append(out, head)
	return append(out, frag[1:]...)
}

// repCount determines how many times a template repetition runs: the shared
// list length of every repeating variable used in its body.
func repCount(name string, e Rep, bodyVars map[string]bool, binds Bindings) (int, error) {
	counts := make(map[string]int)
	n, found, mismatch := 0, false, false
	for v := range bodyVars {
		b, ok := binds[v]
		if !ok || b.Leaf {
			continue
		}
		counts[v] = len(b.List)
		switch {
		case !found:
			n, found = len(b.List), true
		case len(b.List) != n:
			mismatch = true
		}
	}
	if !found {
		return 0, defErrorf(e.Pos, "macro %s: repetition has no repeating variable", name)
	}
	if mismatch {
		return 0, &MismatchError{Macro: name, Pos: e.Pos, Counts: counts}
	}
	if e.Op == RepZeroOrOne && n > 1 {
		return 0, defErrorf(e.Pos, "macro %s: a ? repetition cannot run %d times", name, n)
	}
	return n, nil
}

// projectBindings narrows list bindings used by a repetition body to their
// i-th element. Leaf bindings pass through unchanged, so a variable captured
// outside the repetition stays usable inside it.
func projectBindings(binds Bindings, bodyVars map[string]bool, i int) Bindings {
	out := make(Bindings, len(binds))
	for name, b := range binds {
		if bodyVars[name] && !b.Leaf {
			out[name] = b.List[i]
		} else {
			out[name] = b
		}
	}
	return out
}
