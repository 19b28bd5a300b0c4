package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer scans macro source text into a token tree.
type Lexer struct {
	filename string
	src      string
	pos      int // byte offset of the next unread byte
	line     int
	lineOff  int  // byte offset of the start of the current line
	sawNL    bool // a line break occurred since the last emitted token
}

// NewLexer returns a lexer for src. The filename is only used in positions.
func NewLexer(filename, src string) *Lexer {
	return &Lexer{filename: filename, src: src, line: 1}
}

// Lex lexes a whole file. It stops at the first error; every error is fatal
// for the file, there is no recovery.
func Lex(filename, src string) (Stream, error) {
	return NewLexer(filename, src).Lex()
}

// Lex consumes the entire input and returns the top-level token stream.
func (l *Lexer) Lex() (Stream, error) {
	toks, err := l.lexUntil(DelimNone, Pos{})
	if err != nil {
		return nil, err
	}
	return toks, nil
}

// lexUntil scans tokens until the closing delimiter of open (or end of input
// for DelimNone). openPos is the position of the opening delimiter, used for
// the unclosed-group diagnostic.
func (l *Lexer) lexUntil(open Delim, openPos Pos) (Stream, error) {
	var toks Stream
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			if open != DelimNone {
				return nil, errorf(openPos, "unclosed %q", open.Open())
			}
			return toks, nil
		}

		start := l.here()
		c := l.src[l.pos]

		if d := closeDelim(c); d != DelimNone {
			l.pos++
			if d != open {
				return nil, errorf(start, "unexpected %q", string(c))
			}
			return toks, nil
		}

		nl := l.sawNL
		l.sawNL = false

		var tok Token
		switch {
		case openDelim(c) != DelimNone:
			d := openDelim(c)
			l.pos++
			children, err := l.lexUntil(d, start)
			if err != nil {
				return nil, err
			}
			tok = Token{Kind: KindGroup, Delim: d, Children: children, Pos: start}

		case c < utf8.RuneSelf && isIdentStart(rune(c)):
			tok = l.lexIdent(start)

		case c >= utf8.RuneSelf:
			r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
			if !isIdentStart(r) {
				return nil, errorf(start, "unexpected character %q", r)
			}
			tok = l.lexIdent(start)

		case c >= '0' && c <= '9':
			tok = l.lexNumber(start)

		case c == '"' || c == '`' || c == '\'':
			t, err := l.lexString(start)
			if err != nil {
				return nil, err
			}
			tok = t

		default:
			t, err := l.lexPunct(start)
			if err != nil {
				return nil, err
			}
			tok = t
		}

		tok.NL = nl
		toks = append(toks, tok)
	}
}

func (l *Lexer) here() Pos {
	return Pos{Filename: l.filename, Offset: l.pos, Line: l.line, Col: l.pos - l.lineOff + 1}
}

// skipSpace consumes whitespace and comments, recording line breaks.
func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; {
		case c == '\n':
			l.pos++
			l.line++
			l.lineOff = l.pos
			l.sawNL = true
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.pos += 2
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
					l.pos += 2
					break
				}
				if l.src[l.pos] == '\n' {
					l.line++
					l.lineOff = l.pos + 1
					l.sawNL = true
				}
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) lexIdent(start Pos) Token {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	return Token{Kind: KindIdent, Text: l.src[start.Offset:l.pos], Pos: start}
}

func (l *Lexer) lexNumber(start Pos) Token {
	digits := "0123456789_"
	if l.src[l.pos] == '0' && l.pos+1 < len(l.src) {
		switch l.src[l.pos+1] {
		case 'x', 'X':
			digits = "0123456789abcdefABCDEF_"
			l.pos += 2
		case 'b', 'B':
			digits = "01_"
			l.pos += 2
		case 'o', 'O':
			digits = "01234567_"
			l.pos += 2
		}
	}
	for l.pos < len(l.src) && strings.IndexByte(digits, l.src[l.pos]) >= 0 {
		l.pos++
	}
	// Fraction and exponent for base-10 literals.
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		next := l.pos + 1
		if next < len(l.src) && (l.src[next] == '+' || l.src[next] == '-') {
			next++
		}
		if next < len(l.src) && isDigit(l.src[next]) {
			l.pos = next
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}
	return Token{Kind: KindNumber, Text: l.src[start.Offset:l.pos], Pos: start}
}

func (l *Lexer) lexString(start Pos) (Token, error) {
	quote := l.src[l.pos]
	l.pos++
	if quote == '`' {
		for l.pos < len(l.src) {
			if l.src[l.pos] == '`' {
				l.pos++
				return Token{Kind: KindString, Text: l.src[start.Offset:l.pos], Pos: start}, nil
			}
			if l.src[l.pos] == '\n' {
				l.line++
				l.lineOff = l.pos + 1
			}
			l.pos++
		}
		return Token{}, errorf(start, "unterminated raw string literal")
	}
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
		case quote:
			l.pos++
			return Token{Kind: KindString, Text: l.src[start.Offset:l.pos], Pos: start}, nil
		case '\n':
			return Token{}, errorf(start, "unterminated %s literal", quoteName(quote))
		default:
			l.pos++
		}
	}
	return Token{}, errorf(start, "unterminated %s literal", quoteName(quote))
}

// puncts lists every punctuation token, longest first so that maximal munch
// falls out of a linear scan. `=>` and `$` are not Go operators; they belong
// to the macro rule syntax.
var puncts = []string{
	"<<=", ">>=", "&^=", "...",
	"&&", "||", "<-", "++", "--", "==", "!=", "<=", ">=", ":=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "&^", "=>",
	"+", "-", "*", "/", "%", "&", "|", "^", "<", ">", "=", "!",
	".", ",", ";", ":", "$", "?", "~", "@", "#",
}

func (l *Lexer) lexPunct(start Pos) (Token, error) {
	rest := l.src[l.pos:]
	for _, p := range puncts {
		if strings.HasPrefix(rest, p) {
			l.pos += len(p)
			return Token{Kind: KindPunct, Text: p, Pos: start}, nil
		}
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return Token{}, errorf(start, "unexpected character %q", r)
}

func openDelim(c byte) Delim {
	switch c {
	case '(':
		return DelimParen
	case '[':
		return DelimBracket
	case '{':
		return DelimBrace
	}
	return DelimNone
}

func closeDelim(c byte) Delim {
	switch c {
	case ')':
		return DelimParen
	case ']':
		return DelimBracket
	case '}':
		return DelimBrace
	}
	return DelimNone
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func quoteName(q byte) string {
	if q == '\'' {
		return "rune"
	}
	return "string"
}
