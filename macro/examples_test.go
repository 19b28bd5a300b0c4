package macro

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The trees under examples/ are checked in together with their
// generated output. These tests keep each pair in sync.

func readExample(t *testing.T, parts ...string) []byte {
	t.Helper()
	path := filepath.Join(append([]string{"..", "examples"}, parts...)...)
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	return src
}

func TestExamplesMacroDemo(t *testing.T) {
	t.Parallel()

	engine := defaultEngine(t)
	src := readExample(t, "macros", "demo.gom")
	out, issues, err := engine.ExpandSource("demo.gom", src)
	require.NoError(t, err)
	require.Empty(t, issues)

	text := string(out)
	mustParseGo(t, []byte(text))
	assert.True(t, strings.HasPrefix(text, "// Code generated by macroc. DO NOT EDIT.\n"))
	assert.Contains(t, text, "func greetOnce() {")
	assert.Contains(t, text, `fmt.Println("hello from", "greetOnce")`)
	assert.Contains(t, text, "min(8, min(3, 9))")
	assert.Contains(t, text, "[]int{1, 3, 5, 5, 6, 3}")
	assert.Contains(t, text, "[]int{1, 1, 1}")
	assert.Contains(t, text, `"const_eval!(2 + 3 * 4)", "=", 14`)
	assert.Contains(t, text, "pair(1, 10), pair(2, 20)")
	assert.NotContains(t, text, "=>")
	assert.NotContains(t, text, "$")
}

func TestExamplesDeriveGolden(t *testing.T) {
	t.Parallel()

	engine := defaultEngine(t)
	src := readExample(t, "derive", "shapes.go")
	out, issues, err := engine.DeriveSource("shapes.go", src)
	require.NoError(t, err)
	require.Empty(t, issues)
	assert.Equal(t, string(readExample(t, "derive", "shapes_debug_gen.go")), string(out))
}

func TestExamplesWrap(t *testing.T) {
	t.Parallel()

	engine := defaultEngine(t)
	src := readExample(t, "wrap", "calc.go")
	out, issues, err := engine.WrapSource("calc.go", src)
	require.NoError(t, err)
	require.Empty(t, issues)

	text := string(out)
	mustParseGo(t, []byte(text))

	// calc.go.wrapped documents the rewrite; both it and the live
	// output carry the same instrumentation.
	golden := string(readExample(t, "wrap", "calc.go.wrapped"))
	for _, line := range []string{
		`fmt.Printf("calling function %q\n", "Add")`,
		"r0 := func() int {",
		"return r0",
		`fmt.Printf("function %q returned\n", "Greet")`,
	} {
		assert.Contains(t, text, line)
		assert.Contains(t, golden, line)
	}
}
