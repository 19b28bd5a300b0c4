package tokenize

import (
	"go/token"
	"strings"
)

// Render renders a stream back to source text. Line structure follows the NL
// flags recorded at lex time, with one tab of indentation per group depth.
// Spacing between tokens is conservative rather than pretty: output that is a
// whole Go file is expected to go through go/format before being written.
func Render(s Stream) string {
	var b strings.Builder
	r := renderer{multiline: true}
	r.stream(&b, s, 0)
	out := b.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// String renders the stream on a single line, ignoring recorded line breaks.
// This is the form used by stringify!, test failure messages and diagnostics.
func (s Stream) String() string {
	var b strings.Builder
	r := renderer{}
	r.stream(&b, s, 0)
	return b.String()
}

type renderer struct {
	multiline bool
	prev      boundary
	atLineStart bool
}

// boundary is the visible edge of the previously written token, reduced to
// what spacing decisions need.
type boundary struct {
	kind Kind
	text string
}

func (r *renderer) stream(b *strings.Builder, s Stream, depth int) bool {
	wroteNL := false
	for i, t := range s {
		if r.multiline && t.NL && !(depth == 0 && i == 0 && b.Len() == 0) {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat("\t", depth))
			r.atLineStart = true
			wroteNL = true
		}
		if r.token(b, t, depth) {
			wroteNL = true
		}
	}
	return wroteNL
}

func (r *renderer) token(b *strings.Builder, t Token, depth int) bool {
	if t.Kind == KindGroup {
		if len(t.Children) == 0 {
			if !r.atLineStart && needSpace(r.prev, boundary{KindPunct, t.Delim.Open()}) {
				b.WriteByte(' ')
			}
			b.WriteString(t.Delim.Open())
			b.WriteString(t.Delim.Close())
			r.prev = boundary{KindPunct, t.Delim.Close()}
			r.atLineStart = false
			return false
		}
		r.write(b, boundary{KindPunct, t.Delim.Open()}, t.Delim.Open())
		inner := r.stream(b, t.Children, depth+1)
		if inner {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat("\t", depth))
			r.atLineStart = true
		}
		r.write(b, boundary{KindPunct, t.Delim.Close()}, t.Delim.Close())
		return inner
	}
	r.write(b, boundary{t.Kind, t.Text}, t.Text)
	return false
}

func (r *renderer) write(b *strings.Builder, next boundary, text string) {
	if !r.atLineStart && needSpace(r.prev, next) {
		b.WriteByte(' ')
	}
	b.WriteString(text)
	r.prev = next
	r.atLineStart = false
}

func needSpace(prev, next boundary) bool {
	if prev.kind == KindNone {
		return false
	}
	switch prev.text {
	case "(", "[", ".", "$", "!":
		return false
	}
	switch next.text {
	case ",", ";", ".", ":", ")", "]", "...", "++", "--":
		return false
	}
	// A bang straight after a plain identifier is a macro invocation
	// bang; after a keyword or an operator it is unary not.
	if next.text == "!" && prev.kind == KindIdent && !token.Lookup(prev.text).IsKeyword() {
		return false
	}
	// Calls, indexing and func-literal invocation glue the opener to
	// whatever produced the value.
	if next.text == "(" || next.text == "[" {
		switch prev.kind {
		case KindIdent, KindNumber, KindString:
			return false
		}
		switch prev.text {
		case ")", "]", "}":
			return false
		}
	}
	return true
}
