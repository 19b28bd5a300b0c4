// Package macro ties the generators together behind one engine. The engine
// loads configuration, preloads shared macro definitions and Starlark
// macros, and exposes per-file expand, derive, wrap and check operations
// that report source problems as issues rather than errors: an error from
// an engine method means the operation could not run at all.
package macro

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/macrolang/macroc/analyzer"
	"github.com/macrolang/macroc/internal/derive"
	"github.com/macrolang/macroc/internal/expand"
	"github.com/macrolang/macroc/internal/pattern"
	"github.com/macrolang/macroc/internal/procmacro"
	"github.com/macrolang/macroc/internal/tokenize"
	tt "github.com/macrolang/macroc/internal/types"
	"github.com/macrolang/macroc/internal/wrap"
)

// Engine manages macro expansion and code generation.
type Engine struct {
	config      Config
	procs       *procmacro.Registry
	defs        []*pattern.Macro
	ignorePaths []string
}

// New creates an engine from the configuration at configPath. An empty
// path uses DefaultConfigPath when present and built-in defaults
// otherwise.
func New(configPath string) (*Engine, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      config,
		procs:       procmacro.Builtins(),
		ignorePaths: config.IgnorePaths,
	}

	for _, path := range config.StarlarkMacros {
		if err := engine.procs.LoadStarlarkFile(path); err != nil {
			return nil, fmt.Errorf("failed to load starlark macro: %w", err)
		}
	}
	for _, path := range config.Includes {
		if err := engine.loadInclude(path); err != nil {
			return nil, err
		}
	}

	// validate the preloaded definitions against each other once
	if _, err := engine.expander(); err != nil {
		return nil, err
	}
	return engine, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.config }

// Registry returns the procedural macro registry.
func (e *Engine) Registry() *procmacro.Registry { return e.procs }

// DefinedMacros returns the names of the preloaded pattern macros, sorted.
func (e *Engine) DefinedMacros() []string {
	names := make([]string, 0, len(e.defs))
	for _, def := range e.defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

// IgnorePath excludes paths matching the glob pattern from directory
// walks.
func (e *Engine) IgnorePath(pattern string) {
	e.ignorePaths = append(e.ignorePaths, pattern)
}

func (e *Engine) ignored(path string) bool {
	for _, pat := range e.ignorePaths {
		if ok, err := doublestar.Match(pat, filepath.ToSlash(path)); err == nil && ok {
			return true
		}
	}
	return false
}

// generated reports whether path is one of this tool's own outputs.
func (e *Engine) generated(path string) bool {
	suffix := e.config.OutputSuffix
	if suffix != "" && suffix != ".go" && strings.HasSuffix(path, suffix) {
		return true
	}
	return strings.HasSuffix(path, "_debug_gen.go")
}

// loadInclude preloads the macro definitions of one .gom file. Tokens
// outside definitions are ignored.
func (e *Engine) loadInclude(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read include: %w", err)
	}
	stream, err := tokenize.Lex(path, string(src))
	if err != nil {
		return fmt.Errorf("failed to lex include %s: %w", path, err)
	}
	defs, _, err := expand.ExtractDefinitions(stream)
	if err != nil {
		return fmt.Errorf("failed to parse include %s: %w", path, err)
	}
	e.defs = append(e.defs, defs...)
	return nil
}

// expander builds a fresh expander carrying the preloaded definitions, so
// one file's own definitions never leak into the next.
func (e *Engine) expander() (*expand.Expander, error) {
	exp := expand.New(e.procs, e.config.RecursionLimit)
	for _, def := range e.defs {
		if err := exp.Define(def); err != nil {
			return nil, err
		}
	}
	return exp, nil
}

// ExpandSource expands every macro invocation in src and returns the
// generated Go file. All expansion problems are fatal for the file: on the
// first one the output is nil and the problem is returned as an issue.
func (e *Engine) ExpandSource(filename string, src []byte) ([]byte, []tt.Issue, error) {
	stream, err := tokenize.Lex(filename, string(src))
	if err != nil {
		return nil, []tt.Issue{expandIssue(filename, err)}, nil
	}
	defs, rest, err := expand.ExtractDefinitions(stream)
	if err != nil {
		return nil, []tt.Issue{expandIssue(filename, err)}, nil
	}

	exp, err := e.expander()
	if err != nil {
		return nil, nil, err
	}
	for _, def := range defs {
		if err := exp.Define(def); err != nil {
			return nil, []tt.Issue{expandIssue(filename, err)}, nil
		}
	}

	out, err := exp.Expand(rest)
	if err != nil {
		return nil, []tt.Issue{expandIssue(filename, err)}, nil
	}
	return emit(out), nil, nil
}

// ExpandFile is ExpandSource over a file on disk.
func (e *Engine) ExpandFile(path string) ([]byte, []tt.Issue, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return e.ExpandSource(path, src)
}

// DeriveSource applies the derive directives in src. Output is nil when
// the file has none.
func (e *Engine) DeriveSource(filename string, src []byte) ([]byte, []tt.Issue, error) {
	out, err := derive.Source(filename, src)
	if err != nil {
		var derr *derive.Error
		if errors.As(err, &derr) {
			return nil, []tt.Issue{{
				Rule:     derr.Rule,
				Category: "derive",
				Filename: filename,
				Message:  derr.Msg,
				Start:    derr.Pos,
				End:      derr.Pos,
				Severity: tt.SeverityError,
			}}, nil
		}
		return nil, nil, err
	}
	return out, nil, nil
}

// DeriveFile is DeriveSource over a file on disk.
func (e *Engine) DeriveFile(path string) ([]byte, []tt.Issue, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return e.DeriveSource(path, src)
}

// WrapSource applies the wrap directives in src and returns the whole
// rewritten file. Output is nil when the file has no wrap directives.
func (e *Engine) WrapSource(filename string, src []byte) ([]byte, []tt.Issue, error) {
	out, err := wrap.Source(filename, src)
	if err != nil {
		var werr *wrap.Error
		if errors.As(err, &werr) {
			return nil, []tt.Issue{{
				Rule:     werr.Rule,
				Category: "wrap",
				Filename: filename,
				Message:  werr.Msg,
				Start:    werr.Pos,
				End:      werr.Pos,
				Severity: tt.SeverityError,
			}}, nil
		}
		return nil, nil, err
	}
	return out, nil, nil
}

// WrapFile is WrapSource over a file on disk.
func (e *Engine) WrapFile(path string) ([]byte, []tt.Issue, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return e.WrapSource(path, src)
}

// CheckSource reports problems without generating anything. Macro files
// get a dry-run expansion; Go files get the directive analyzer, which
// reports every problem instead of stopping at the first.
func (e *Engine) CheckSource(filename string, src []byte) ([]tt.Issue, error) {
	if strings.HasSuffix(filename, ".gom") {
		_, issues, err := e.ExpandSource(filename, src)
		return issues, err
	}
	return analyzer.Check(filename, src)
}

// CheckFile is CheckSource over a file on disk.
func (e *Engine) CheckFile(path string) ([]tt.Issue, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return e.CheckSource(path, src)
}

// OutputPath returns where the generated form of path is written: the
// configured suffix for macro files, the derive companion for Go files.
func (e *Engine) OutputPath(path string) string {
	if strings.HasSuffix(path, ".gom") {
		return strings.TrimSuffix(path, ".gom") + e.config.OutputSuffix
	}
	return derive.OutputPath(path)
}

const generatedHeader = "// Code generated by macroc. DO NOT EDIT.\n\n"

// emit renders an expanded stream as a generated file. Output that does
// not parse as Go is returned unformatted; broken expansion output is
// easier to debug raw.
func emit(s tokenize.Stream) []byte {
	var b bytes.Buffer
	b.WriteString(generatedHeader)
	b.WriteString(tokenize.Render(s))
	src := b.Bytes()
	formatted, err := format.Source(src)
	if err != nil {
		return src
	}
	return formatted
}

func expandIssue(filename string, err error) tt.Issue {
	rule, pos := expand.Classify(err)
	issue := tt.Issue{
		Rule:     rule,
		Category: "expand",
		Filename: filename,
		Message:  expand.Message(err),
		Severity: tt.SeverityError,
	}
	if pos.IsValid() {
		issue.Start = pos.Position()
		issue.End = issue.Start
	}
	return issue
}
