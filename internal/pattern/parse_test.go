package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolang/macroc/internal/tokenize"
)

func parseBody(t *testing.T, body string) (*Macro, error) {
	t.Helper()
	s, err := tokenize.Lex("macros.gom", body)
	require.NoError(t, err)
	return ParseMacro("m", tokenize.Pos{Filename: "macros.gom", Line: 1, Col: 1}, s)
}

func TestParseMacro(t *testing.T) {
	t.Parallel()
	m, err := parseBody(t, `
		($x:expr) => { $x };
		($x:expr, $($rest:expr),+) => { min($x, find_min!($($rest),+)) };
	`)
	require.NoError(t, err)
	assert.Equal(t, "m", m.Name)
	require.Len(t, m.Rules, 2)
	assert.Len(t, m.Rules[0].Pattern, 1)
	assert.Len(t, m.Rules[0].Template, 1)

	capture, ok := m.Rules[0].Pattern[0].(Capture)
	require.True(t, ok, "pattern element is %T", m.Rules[0].Pattern[0])
	assert.Equal(t, "x", capture.Name)
	assert.Equal(t, FragExpr, capture.Kind)
}

func TestParseMacroNoTrailingSemicolon(t *testing.T) {
	t.Parallel()
	m, err := parseBody(t, `() => { f() }`)
	require.NoError(t, err)
	assert.Len(t, m.Rules, 1)
}

func TestParseMacroRepetitions(t *testing.T) {
	t.Parallel()
	m, err := parseBody(t, `($($x:expr),*) => { $($x)+ }; ($($y:ident) and *) => { $($y)? }`)
	require.NoError(t, err)
	require.Len(t, m.Rules, 2)

	rep, ok := m.Rules[0].Pattern[0].(Rep)
	require.True(t, ok)
	assert.Equal(t, RepZeroOrMore, rep.Op)
	require.NotNil(t, rep.Sep)
	assert.Equal(t, ",", rep.Sep.Text)

	rep, ok = m.Rules[1].Pattern[0].(Rep)
	require.True(t, ok)
	assert.Equal(t, RepZeroOrMore, rep.Op)
	require.NotNil(t, rep.Sep)
	assert.True(t, rep.Sep.IsIdent("and"), "separator %v", rep.Sep)
}

func TestParseMacroErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"no rules", "", "has no rules"},
		{"missing arrow", "(a) { a }", "expected => after the pattern"},
		{"missing template", "(a) => ;", "expected a delimited template"},
		{"missing semicolon", "(a) => { a } (b) => { b }", "expected ; between rules"},
		{"bare capture", "($x) => { $x }", "needs a fragment kind"},
		{"unknown fragment", "($x:foo) => { $x }", `unknown fragment kind "foo"`},
		{"duplicate capture", "($x:expr, $x:ident) => { $x }", "appears twice"},
		{"unbound template var", "($x:expr) => { $y }", "template uses $y"},
		{"stray dollar", "($ 1) => { }", "stray $"},
		{"empty repetition", "($()*) => { }", "empty repetition"},
		{"repetition without operator", "($($x:expr)) => { }", "repetition needs *, + or ?"},
		{"separator on question mark", "($($x:expr),?) => { }", "does not take a separator"},
		{"separator without operator", "($($x:expr), ) => { }", `separator "," must be followed by`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseBody(t, tt.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var defErr *DefError
			require.ErrorAs(t, err, &defErr)
			assert.True(t, defErr.Pos.IsValid())
		})
	}
}
