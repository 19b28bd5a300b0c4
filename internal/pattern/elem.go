// Package pattern implements declarative, rule-based macros.
//
// A macro is an ordered list of rules. Each rule pairs a pattern with a
// template: invocation arguments are matched against the patterns in
// definition order, the first pattern that matches the whole argument stream
// wins, and its template is instantiated with the captured fragments. No
// rule matching is backtracked across fragments; repetitions speculate with
// cursor marks and commit per iteration.
package pattern

import (
	"fmt"

	"github.com/macrolang/macroc/internal/tokenize"
)

// FragmentKind classifies what a capture variable may match.
type FragmentKind int

const (
	FragNone FragmentKind = iota // template substitution, no constraint
	FragExpr
	FragIdent
	FragType
	FragLit
	FragToken // a single token tree
	FragBlock
)

func (k FragmentKind) String() string {
	switch k {
	case FragExpr:
		return "expr"
	case FragIdent:
		return "ident"
	case FragType:
		return "ty"
	case FragLit:
		return "lit"
	case FragToken:
		return "tt"
	case FragBlock:
		return "block"
	default:
		return "none"
	}
}

// ParseFragmentKind turns a specifier name from a pattern into a
// FragmentKind. The ok result is false for unknown names.
func ParseFragmentKind(s string) (FragmentKind, bool) {
	switch s {
	case "expr":
		return FragExpr, true
	case "ident":
		return FragIdent, true
	case "ty":
		return FragType, true
	case "lit":
		return FragLit, true
	case "tt":
		return FragToken, true
	case "block":
		return FragBlock, true
	}
	return FragNone, false
}

// RepOp is the quantifier of a repetition group.
type RepOp int

const (
	RepZeroOrMore RepOp = iota // $(...)*
	RepOneOrMore               // $(...)+
	RepZeroOrOne               // $(...)?
)

func (op RepOp) String() string {
	switch op {
	case RepOneOrMore:
		return "+"
	case RepZeroOrOne:
		return "?"
	default:
		return "*"
	}
}

// Elem is one element of a parsed pattern or template.
type Elem interface {
	fmt.Stringer
	elemPos() tokenize.Pos
}

// Lit matches (or emits) one literal token.
type Lit struct {
	Tok tokenize.Token
}

func (e Lit) String() string { return e.Tok.String() }

func (e Lit) elemPos() tokenize.Pos { return e.Tok.Pos }

// Capture is a $name:kind fragment in a pattern, or a bare $name
// substitution in a template (Kind == FragNone there).
type Capture struct {
	Name string
	Kind FragmentKind
	Pos  tokenize.Pos
	NL   bool
}

func (e Capture) String() string {
	if e.Kind == FragNone {
		return "$" + e.Name
	}
	return fmt.Sprintf("$%s:%s", e.Name, e.Kind)
}

func (e Capture) elemPos() tokenize.Pos { return e.Pos }

// Group matches (or emits) a delimited group whose children match Body.
type Group struct {
	Delim tokenize.Delim
	Body  []Elem
	Pos   tokenize.Pos
	NL    bool
}

func (e Group) String() string {
	return e.Delim.Open() + elemsString(e.Body) + e.Delim.Close()
}

func (e Group) elemPos() tokenize.Pos { return e.Pos }

// Rep is a $(...)op repetition, optionally with a single separator token
// between iterations.
type Rep struct {
	Body []Elem
	Sep  *tokenize.Token
	Op   RepOp
	Pos  tokenize.Pos
	NL   bool
}

func (e Rep) String() string {
	s := "$(" + elemsString(e.Body) + ")"
	if e.Sep != nil {
		s += e.Sep.Text
	}
	return s + e.Op.String()
}

func (e Rep) elemPos() tokenize.Pos { return e.Pos }

func elemsString(elems []Elem) string {
	out := ""
	for i, e := range elems {
		if i > 0 {
			out += " "
		}
		out += e.String()
	}
	return out
}

// vars collects the names of every capture below elems, including captures
// nested inside repetitions and groups.
func vars(elems []Elem, into map[string]bool) {
	for _, e := range elems {
		switch e := e.(type) {
		case Capture:
			into[e.Name] = true
		case Group:
			vars(e.Body, into)
		case Rep:
			vars(e.Body, into)
		}
	}
}
