// Package tokenize turns macro source text into token trees.
//
// The stream is a tree rather than a flat list: the tokens between a matched
// pair of (), [] or {} are children of a single Group token. Delimiter
// matching therefore happens once, in the lexer, and everything downstream
// (pattern matching, template substitution, procedural macros) can treat a
// group as one value without ever counting brackets.
package tokenize

import (
	"fmt"
	"go/token"
)

// Kind classifies a token.
type Kind uint8

const (
	KindNone Kind = iota // zero value; absence of a token
	KindIdent
	KindNumber
	KindString // double-quoted, raw, or rune literal; Text includes the quotes
	KindPunct
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindIdent:
		return "identifier"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindPunct:
		return "punctuation"
	case KindGroup:
		return "group"
	default:
		return "none"
	}
}

// Delim identifies the delimiter pair of a Group token.
type Delim uint8

const (
	DelimNone Delim = iota
	DelimParen
	DelimBracket
	DelimBrace
)

func (d Delim) Open() string {
	switch d {
	case DelimParen:
		return "("
	case DelimBracket:
		return "["
	case DelimBrace:
		return "{"
	}
	return ""
}

func (d Delim) Close() string {
	switch d {
	case DelimParen:
		return ")"
	case DelimBracket:
		return "]"
	case DelimBrace:
		return "}"
	}
	return ""
}

// Pos is a position in a source file. Line and Col are 1-based; Col counts
// bytes, matching go/token.Position.
type Pos struct {
	Filename string
	Offset   int
	Line     int
	Col      int
}

func (p Pos) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Col)
}

// Position converts p to a go/token.Position for use in diagnostics.
func (p Pos) Position() token.Position {
	return token.Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Col}
}

// IsValid reports whether p refers to an actual source location.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Token is one node of a token tree. Leaf tokens carry their source text;
// Group tokens carry a delimiter and the tokens lexed between the pair.
type Token struct {
	Kind     Kind
	Text     string // leaf tokens only; exact source text
	Delim    Delim  // group tokens only
	Children Stream // group tokens only
	Pos      Pos
	NL       bool // a line break appeared before this token in its source
}

// IsIdent reports whether t is the identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Kind == KindIdent && t.Text == name
}

// IsPunct reports whether t is the punctuation text.
func (t Token) IsPunct(text string) bool {
	return t.Kind == KindPunct && t.Text == text
}

// IsGroup reports whether t is a group with the given delimiter.
func (t Token) IsGroup(d Delim) bool {
	return t.Kind == KindGroup && t.Delim == d
}

// Describe returns a short human form of the token for diagnostics,
// e.g. `identifier "foo"` or "`(...)` group".
func (t Token) Describe() string {
	switch t.Kind {
	case KindGroup:
		return fmt.Sprintf("`%s...%s` group", t.Delim.Open(), t.Delim.Close())
	case KindNone:
		return "end of input"
	default:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
}

func (t Token) String() string {
	if t.Kind == KindGroup {
		return t.Delim.Open() + t.Children.String() + t.Delim.Close()
	}
	return t.Text
}

// Stream is an ordered sequence of sibling tokens.
type Stream []Token

// Error is a lexical or structural error at a known position.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func errorf(pos Pos, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
