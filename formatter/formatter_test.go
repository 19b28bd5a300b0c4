package formatter

import (
	"go/token"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	tt "github.com/macrolang/macroc/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestGenerateFormattedIssue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		issue    tt.Issue
		source   string
		expected string
	}{
		{
			name: "mismatch without extras",
			issue: tt.Issue{
				Rule:     tt.RulePatternMismatch,
				Filename: "test.gom",
				Start:    token.Position{Line: 1, Column: 6},
				End:      token.Position{Line: 1, Column: 15},
				Message:  "no rule of transform! matches this invocation",
			},
			source: "x := transform!(1; 2)",
			expected: `error: pattern-mismatch
 --> test.gom:1:6
  |
1 | x := transform!(1; 2)
  |      ~~~~~~~~~~
  = no rule of transform! matches this invocation

`,
		},
		{
			name: "mismatch with suggestion and note",
			issue: tt.Issue{
				Rule:       tt.RulePatternMismatch,
				Filename:   "test.gom",
				Start:      token.Position{Line: 1, Column: 6},
				End:        token.Position{Line: 1, Column: 15},
				Message:    "no rule of transform! matches this invocation",
				Suggestion: "x := transform!(1, 2)",
				Note:       "separators inside one repetition group must agree",
			},
			source: "x := transform!(1; 2)",
			expected: `error: pattern-mismatch
 --> test.gom:1:6
  |
1 | x := transform!(1; 2)
  |      ~~~~~~~~~~
  = no rule of transform! matches this invocation

Suggestion:
  |
1 | x := transform!(1, 2)
  |

Note: separators inside one repetition group must agree

`,
		},
		{
			name: "warning severity changes the header",
			issue: tt.Issue{
				Rule:     tt.RuleDirectiveError,
				Filename: "shapes.go",
				Start:    token.Position{Line: 1, Column: 1},
				End:      token.Position{Line: 1, Column: 14},
				Message:  "directive is not attached to a declaration",
				Severity: tt.SeverityWarning,
			},
			source: "//macro:derive",
			expected: `warning: directive-error
 --> shapes.go:1:1
  |
1 | //macro:derive
  | ~~~~~~~~~~~~~~
  = directive is not attached to a declaration

`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snippet := tt.NewSourceCode([]byte(tc.source))
			got := GenerateFormattedIssue([]tt.Issue{tc.issue}, snippet)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestGenerateFormattedIssueMultiLine(t *testing.T) {
	t.Parallel()
	source := "func demo() {\n\trows := build!(1, 2;\n\t\t3)\n}"
	issue := tt.Issue{
		Rule:     tt.RuleRepetitionMismatch,
		Filename: "demo.gom",
		Start:    token.Position{Line: 2, Column: 10},
		End:      token.Position{Line: 3, Column: 4},
		Message:  "co-repeated fragments bound 2 and 1 items",
	}

	expected := "error: repetition-mismatch\n" +
		" --> demo.gom:2:10\n" +
		"  |\n" +
		"2 | rows := build!(1, 2;\n" +
		"3 | \t3)\n" +
		"  |         ~~\n" +
		"  = co-repeated fragments bound 2 and 1 items\n" +
		"\n"

	got := GenerateFormattedIssue([]tt.Issue{issue}, tt.NewSourceCode([]byte(source)))
	assert.Equal(t, expected, got)
}

func TestGenerateFormattedIssueRecursionLimit(t *testing.T) {
	t.Parallel()
	issue := tt.Issue{
		Rule:     tt.RuleRecursionLimit,
		Filename: "loop.gom",
		Start:    token.Position{Line: 1, Column: 6},
		End:      token.Position{Line: 1, Column: 10},
		Message:  "expansion of boom! exceeded the recursion limit (64)",
	}

	expected := `error: recursion-limit
 --> loop.gom:1:6
  |
1 | v := boom!()
  |      ~~~~~
  = expansion of boom! exceeded the recursion limit (64)
  | Expansion limit: 64

`

	got := GenerateFormattedIssue([]tt.Issue{issue}, tt.NewSourceCode([]byte("v := boom!()")))
	assert.Equal(t, expected, got)
}

func TestGenerateFormattedIssueUnknownPosition(t *testing.T) {
	t.Parallel()
	issue := tt.Issue{
		Rule:     tt.RuleMalformedInput,
		Filename: "broken.gom",
		Message:  "unexpected end of file",
	}

	expected := `error: malformed-input
 --> broken.gom:0:0
  |
  | unexpected end of file

`

	got := GenerateFormattedIssue([]tt.Issue{issue}, tt.NewSourceCode([]byte("v := 1")))
	assert.Equal(t, expected, got)
}

func TestGenerateFormattedIssueConcatenates(t *testing.T) {
	t.Parallel()
	source := "a := one!()\nb := two!()"
	issues := []tt.Issue{
		{
			Rule:     tt.RuleUndefinedMacro,
			Filename: "pair.gom",
			Start:    token.Position{Line: 1, Column: 6},
			End:      token.Position{Line: 1, Column: 9},
			Message:  "no macro named one! is defined",
		},
		{
			Rule:     tt.RuleUndefinedMacro,
			Filename: "pair.gom",
			Start:    token.Position{Line: 2, Column: 6},
			End:      token.Position{Line: 2, Column: 9},
			Message:  "no macro named two! is defined",
		},
	}

	expected := `error: undefined-macro
 --> pair.gom:1:6
  |
1 | a := one!()
  |      ~~~~
  = no macro named one! is defined

error: undefined-macro
 --> pair.gom:2:6
  |
2 | b := two!()
  |      ~~~~
  = no macro named two! is defined

`

	got := GenerateFormattedIssue(issues, tt.NewSourceCode([]byte(source)))
	assert.Equal(t, expected, got)
}

func TestFindCommonIndent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{
			name:     "tab indent",
			lines:    []string{"\tx := 1", "\ty := 2"},
			expected: "\t",
		},
		{
			name:     "mixed indent has no common prefix",
			lines:    []string{"\tx := 1", "    y := 2"},
			expected: "",
		},
		{
			name:     "empty lines are skipped",
			lines:    []string{"\tx := 1", "", "\ty := 2"},
			expected: "\t",
		},
		{
			name:     "uneven depth keeps the shallow indent",
			lines:    []string{"\t\tx := 1", "\ty := 2"},
			expected: "\t",
		},
		{
			name:     "no indent",
			lines:    []string{"x := 1", "y := 2"},
			expected: "",
		},
		{
			name:     "no lines",
			lines:    nil,
			expected: "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, findCommonIndent(tc.lines))
		})
	}
}

func TestCalculateVisualColumn(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		line     string
		column   int
		expected int
	}{
		{name: "plain ascii", line: "abc", column: 2, expected: 1},
		{name: "tab expands to the next stop", line: "\tx", column: 2, expected: 8},
		{name: "tab mid line", line: "ab\tc", column: 4, expected: 8},
		{name: "column past the end", line: "ab", column: 10, expected: 2},
		{name: "column zero", line: "abc", column: 0, expected: 0},
		{name: "multibyte rune is one column", line: "héllo", column: 4, expected: 2},
		{name: "wide runes are two columns", line: "世界x", column: 7, expected: 4},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, calculateVisualColumn(tc.line, tc.column))
		})
	}
}
