package expand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolang/macroc/internal/pattern"
	"github.com/macrolang/macroc/internal/procmacro"
	"github.com/macrolang/macroc/internal/tokenize"
	"github.com/macrolang/macroc/internal/types"
)

const demoDefs = `
macro say_hello {
	() => { fmt.Println("Hello!") };
}

macro find_min {
	($x:expr) => { $x };
	($x:expr, $($rest:expr),+) => { min($x, find_min!($($rest),+)) };
}

macro print_result {
	($e:expr) => { fmt.Println(stringify!($e), "=", $e) };
}

macro build_vec {
	($($x:expr),+) => { []int{$($x),+} };
	($elem:expr; $n:expr) => { []int{const_repeat!($elem; $n)} };
}

macro zip_calls {
	($($a:expr),*; $($b:expr),*) => { $(pair($a, $b));* };
}
`

func setup(t *testing.T, defs string) *Expander {
	t.Helper()
	e := New(procmacro.Builtins(), 0)
	if defs == "" {
		return e
	}
	s, err := tokenize.Lex("macros.gom", defs)
	require.NoError(t, err)
	ms, rest, err := ExtractDefinitions(s)
	require.NoError(t, err)
	require.Empty(t, rest, "definition source should contain only definitions")
	for _, m := range ms {
		require.NoError(t, e.Define(m))
	}
	return e
}

func run(t *testing.T, e *Expander, src string) (tokenize.Stream, error) {
	t.Helper()
	s, err := tokenize.Lex("input.gom", src)
	require.NoError(t, err)
	return e.Expand(s)
}

func mustRun(t *testing.T, e *Expander, src string) string {
	t.Helper()
	out, err := run(t, e, src)
	require.NoError(t, err)
	return out.String()
}

func TestExpandFixedPoint(t *testing.T) {
	t.Parallel()
	e := setup(t, demoDefs)
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "no arguments",
			src:  "say_hello!()",
			want: `fmt.Println("Hello!")`,
		},
		{
			name: "bracket and brace invocations",
			src:  "say_hello![] say_hello!{}",
			want: `fmt.Println("Hello!") fmt.Println("Hello!")`,
		},
		{
			name: "recursive macro reaches a fixed point",
			src:  "x := find_min!(5, 2*3, 4)",
			want: "x := min(5, min(2 * 3, 4))",
		},
		{
			name: "single argument recursion",
			src:  "find_min!(4)",
			want: "4",
		},
		{
			name: "stringify sees tokens as written",
			src:  "print_result!(1 + 2)",
			want: `fmt.Println("1 + 2", "=", 1 + 2)`,
		},
		{
			name: "list form",
			src:  "build_vec!(1, 3, 5, 5, 6, 3)",
			want: "[] int { 1, 3, 5, 5, 6, 3 }",
		},
		{
			name: "repeat form",
			src:  "build_vec!(1; 3)",
			want: "[] int { 1, 1, 1 }",
		},
		{
			name: "equal length zip",
			src:  "zip_calls!(1, 2; 3, 4)",
			want: "pair(1, 3); pair(2, 4)",
		},
		{
			name: "eager context composes procedural macros",
			src:  "f(splat!(reverse_exprs!(1, 2, 3)))",
			want: "f(3, 2, 1)",
		},
		{
			name: "invocation inside nested groups",
			src:  "if ok { use(find_min!(2, 1)) }",
			want: "if ok { use(min(2, 1)) }",
		},
		{
			name: "negation of a parenthesised expression is not an invocation",
			src:  "return !(ok)",
			want: "return !(ok)",
		},
		{
			name: "bang without a group is not an invocation",
			src:  "x := a != b",
			want: "x := a != b",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mustRun(t, e, tt.src))
		})
	}
}

func TestExpandErrors(t *testing.T) {
	t.Parallel()
	e := setup(t, demoDefs)
	tests := []struct {
		name     string
		src      string
		wantRule string
		wantMsg  string
	}{
		{
			name:     "undefined macro",
			src:      "nope!(1)",
			wantRule: types.RuleUndefinedMacro,
			wantMsg:  "no macro named nope!",
		},
		{
			name:     "undefined macro deep inside groups",
			src:      "f(g(h(nope!(1))))",
			wantRule: types.RuleUndefinedMacro,
			wantMsg:  "no macro named nope!",
		},
		{
			name:     "no rule matches",
			src:      "find_min!()",
			wantRule: types.RulePatternMismatch,
			wantMsg:  "no rule of find_min!",
		},
		{
			name:     "repetition counts disagree",
			src:      "zip_calls!(1, 2, 3, 4, 5, 6; 7, 8, 9)",
			wantRule: types.RuleRepetitionMismatch,
			wantMsg:  "$a 6 times, $b 3 times",
		},
		{
			name:     "procedural macro argument does not fold",
			src:      "x := const_eval!(1 / 0)",
			wantRule: types.RuleMalformedInput,
			wantMsg:  "division by zero",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := run(t, e, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			rule, pos := Classify(err)
			assert.Equal(t, tt.wantRule, rule)
			assert.True(t, pos.IsValid(), "classified position should point at the invocation")
		})
	}
}

func TestExpandRecursionLimit(t *testing.T) {
	t.Parallel()
	e := New(procmacro.Builtins(), 5)
	s, err := tokenize.Lex("macros.gom", "macro forever { () => { forever!() }; }")
	require.NoError(t, err)
	ms, _, err := ExtractDefinitions(s)
	require.NoError(t, err)
	require.NoError(t, e.Define(ms[0]))

	_, err = run(t, e, "forever!()")
	require.Error(t, err)

	var rec *RecursionError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, "forever", rec.Macro)
	assert.Equal(t, 5, rec.Limit)

	rule, _ := Classify(err)
	assert.Equal(t, types.RuleRecursionLimit, rule)
}

func TestExpandDepthCountsNestingNotVolume(t *testing.T) {
	t.Parallel()
	e := setup(t, "macro id { ($x:expr) => { $x }; }")
	e.limit = 3

	src := strings.TrimSpace(strings.Repeat("id!(7)\n", 200))
	out, err := run(t, e, src)
	require.NoError(t, err)
	assert.Len(t, out, 200)
}

func TestExtractDefinitions(t *testing.T) {
	t.Parallel()
	src := `
package main

macro twice {
	($x:expr) => { $x + $x };
}

func main() {
	y := twice!(3)
	_ = y
}
`
	s, err := tokenize.Lex("demo.gom", src)
	require.NoError(t, err)
	defs, rest, err := ExtractDefinitions(s)
	require.NoError(t, err)

	require.Len(t, defs, 1)
	assert.Equal(t, "twice", defs[0].Name)
	assert.NotContains(t, rest.String(), "macro twice")
	assert.Contains(t, rest.String(), "package main")
}

func TestExtractDefinitionsSkipsNested(t *testing.T) {
	t.Parallel()
	s, err := tokenize.Lex("demo.gom", "func f() { macro inner { () => { 1 }; } }")
	require.NoError(t, err)
	defs, rest, err := ExtractDefinitions(s)
	require.NoError(t, err)
	assert.Empty(t, defs)
	assert.Contains(t, rest.String(), "macro inner")
}

func TestExtractDefinitionsBadBody(t *testing.T) {
	t.Parallel()
	s, err := tokenize.Lex("demo.gom", "macro broken { (a) oops { } }")
	require.NoError(t, err)
	_, _, err = ExtractDefinitions(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected => after the pattern")
}

func TestDefineRejectsCollisions(t *testing.T) {
	t.Parallel()
	e := New(procmacro.Builtins(), 0)

	m1 := &pattern.Macro{Name: "dup", Pos: tokenize.Pos{Filename: "a.gom", Line: 1, Col: 1}}
	require.NoError(t, e.Define(m1))
	err := e.Define(&pattern.Macro{Name: "dup", Pos: tokenize.Pos{Filename: "b.gom", Line: 9, Col: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")

	err = e.Define(&pattern.Macro{Name: "splat", Pos: tokenize.Pos{Filename: "b.gom", Line: 2, Col: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shadows a procedural macro")

	rule, _ := Classify(err)
	assert.Equal(t, types.RuleBadDefinition, rule)

	assert.Equal(t, []string{"dup"}, e.Macros())
}

func TestExpandKeepsLineStructure(t *testing.T) {
	t.Parallel()
	e := setup(t, demoDefs)
	out, err := run(t, e, "x := 1\nsay_hello!()\ny := 2")
	require.NoError(t, err)
	assert.Equal(t, "x := 1\nfmt.Println(\"Hello!\")\ny := 2\n", tokenize.Render(out))
}
