package procmacro

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolang/macroc/internal/tokenize"
)

const starSource = `def _helper(t):
    return t

def dup(tokens):
    "duplicate the argument tokens"
    return tokens + tokens

def rev(tokens):
    return list(reversed(tokens))

def parenthesize(tokens):
    return [group("(", tokens)]

def count_tokens(tokens):
    n = 0
    for t in tokens:
        if t[0] == "punct" and t[1] == ",":
            continue
        n += 1
    return [number(str(n))]

def shout(tokens):
    return [strlit('"' + "LOUD" + '"'), punct(","), ident("ok")]
`

func loadStarRegistry(t *testing.T, source string) (*Registry, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "macros.star")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	r := NewRegistry()
	return r, r.LoadStarlarkFile(path)
}

func runStar(t *testing.T, r *Registry, name, args string) (tokenize.Stream, error) {
	t.Helper()
	fn, ok := r.Lookup(name)
	require.True(t, ok, "macro %s not registered", name)
	s, err := tokenize.Lex("call.gom", args)
	require.NoError(t, err)
	return fn(identityCtx{pos: tokenize.Pos{Filename: "call.gom", Line: 3, Col: 1}}, s)
}

func TestLoadStarlarkFile(t *testing.T) {
	t.Parallel()
	r, err := loadStarRegistry(t, starSource)
	require.NoError(t, err)

	assert.Equal(t, []string{"count_tokens", "dup", "parenthesize", "rev", "shout"}, r.Names())
	assert.Equal(t, "duplicate the argument tokens", r.Doc("dup"))

	_, ok := r.Lookup("_helper")
	assert.False(t, ok, "underscore names must stay private")
}

func TestStarlarkMacros(t *testing.T) {
	t.Parallel()
	r, err := loadStarRegistry(t, starSource)
	require.NoError(t, err)

	tests := []struct {
		macro string
		args  string
		want  string
	}{
		{macro: "dup", args: "a b", want: "a b a b"},
		{macro: "rev", args: "a b c", want: "c b a"},
		{macro: "rev", args: "f(1)", want: "(1) f"},
		{macro: "parenthesize", args: "1, 2", want: "(1, 2)"},
		{macro: "count_tokens", args: "1, 2, 3", want: "3"},
		{macro: "shout", args: "", want: `"LOUD", ok`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.macro, func(t *testing.T) {
			t.Parallel()
			out, err := runStar(t, r, tt.macro, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestStarlarkMacroPositions(t *testing.T) {
	t.Parallel()
	r, err := loadStarRegistry(t, starSource)
	require.NoError(t, err)

	out, err := runStar(t, r, "dup", "x")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].Pos.Line)
	assert.Equal(t, 3, out[1].Pos.Line)
}

func TestStarlarkErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		source  string
		macro   string
		wantMsg string
	}{
		{
			name:    "syntax error",
			source:  "def broken(:\n",
			wantMsg: "loading",
		},
		{
			name:    "no macros",
			source:  "x = 1\n",
			wantMsg: "defines no macro functions",
		},
		{
			name:    "bad return value",
			source:  "def bad(tokens):\n    return 42\n",
			macro:   "bad",
			wantMsg: "bad value",
		},
		{
			name:    "bad tuple kind",
			source:  "def bad(tokens):\n    return [(\"widget\", \"x\")]\n",
			macro:   "bad",
			wantMsg: `unknown token kind "widget"`,
		},
		{
			name:    "runtime failure",
			source:  "def boom(tokens):\n    fail(\"no args allowed\")\n",
			macro:   "boom",
			wantMsg: "no args allowed",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := loadStarRegistry(t, tt.source)
			if tt.macro == "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			_, err = runStar(t, r, tt.macro, "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestStarlarkCannotShadowBuiltin(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "macros.star")
	require.NoError(t, os.WriteFile(path, []byte("def splat(tokens):\n    return tokens\n"), 0o644))

	err := Builtins().LoadStarlarkFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}
