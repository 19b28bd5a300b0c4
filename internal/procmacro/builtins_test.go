package procmacro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolang/macroc/internal/tokenize"
)

// identityCtx hands argument streams back unexpanded, which is enough for
// builtins operating on plain tokens.
type identityCtx struct{ pos tokenize.Pos }

func (c identityCtx) Expand(s tokenize.Stream) (tokenize.Stream, error) { return s, nil }

func (c identityCtx) Pos() tokenize.Pos { return c.pos }

func runBuiltin(t *testing.T, name, args string) (tokenize.Stream, error) {
	t.Helper()
	fn, ok := Builtins().Lookup(name)
	require.True(t, ok, "builtin %s not registered", name)
	s, err := tokenize.Lex("call.gom", args)
	require.NoError(t, err)
	return fn(identityCtx{pos: tokenize.Pos{Filename: "call.gom", Line: 1, Col: 1}}, s)
}

func TestBuiltins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "reverse_exprs", args: "1, 3, 5", want: "(5, 3, 1)"},
		{name: "reverse_exprs", args: "a + 1, f(2, 3)", want: "(f(2, 3), a + 1)"},
		{name: "reverse_exprs", args: "x", want: "(x)"},
		{name: "reverse_exprs", args: "", want: "()"},
		{name: "splat", args: "(1, 2)", want: "1, 2"},
		{name: "splat", args: "1, 2", want: "1, 2"},
		{name: "stringify", args: "1 + 2", want: `"1 + 2"`},
		{name: "stringify", args: "", want: `""`},
		{name: "const_eval", args: "2 + 3 * 4", want: "14"},
		{name: "const_eval", args: "min(5, 2*3, 4)", want: "4"},
		{name: "const_eval", args: "1 + 1 == 2", want: "true"},
		{name: "const_eval", args: `"foo" + "bar"`, want: `"foobar"`},
		{name: "const_repeat", args: "1; 3", want: "1, 1, 1"},
		{name: "const_repeat", args: "f(x); 2", want: "f(x), f(x)"},
		{name: "const_repeat", args: "7; 1 + 2", want: "7, 7, 7"},
		{name: "const_repeat", args: "1; 0", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name+" "+tt.args, func(t *testing.T) {
			t.Parallel()
			out, err := runBuiltin(t, tt.name, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		args    string
		wantMsg string
	}{
		{name: "reverse_exprs", args: "1,,2", wantMsg: "empty element"},
		{name: "const_eval", args: "1 / 0", wantMsg: "division by zero"},
		{name: "const_eval", args: "x + 1", wantMsg: "unknown identifier"},
		{name: "const_repeat", args: "5", wantMsg: "want elem; count"},
		{name: "const_repeat", args: "; 3", wantMsg: "want elem; count"},
		{name: "const_repeat", args: "5; -1", wantMsg: "count is -1"},
		{name: "const_repeat", args: "5; x", wantMsg: "unknown identifier"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name+" "+tt.args, func(t *testing.T) {
			t.Parallel()
			_, err := runBuiltin(t, tt.name, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestStringifyQuotesInvocationsAsWritten(t *testing.T) {
	t.Parallel()
	out, err := runBuiltin(t, "stringify", "find_min!(1, 2)")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, tokenize.KindString, out[0].Kind)
	assert.Equal(t, `"find_min!(1, 2)"`, out[0].Text)
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	fn := func(Context, tokenize.Stream) (tokenize.Stream, error) { return nil, nil }

	require.NoError(t, r.Register("one", fn, "first"))
	require.NoError(t, r.Register("two", fn, "second"))

	err := r.Register("one", fn, "again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Equal(t, []string{"one", "two"}, r.Names())
	assert.Equal(t, "first", r.Doc("one"))

	_, ok := r.Lookup("one")
	assert.True(t, ok)
	_, ok = r.Lookup("three")
	assert.False(t, ok)
}

func TestBuiltinNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		[]string{"const_eval", "const_repeat", "reverse_exprs", "splat", "stringify"},
		Builtins().Names())
}
