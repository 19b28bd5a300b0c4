// Package analyzer validates //macro: directive comments in plain Go
// packages, for use with any go/analysis driver.
package analyzer

import (
	"fmt"
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/analysis"

	"github.com/macrolang/macroc/internal/derive"
	"github.com/macrolang/macroc/internal/directive"
	"github.com/macrolang/macroc/internal/types"
	"github.com/macrolang/macroc/internal/wrap"
)

const doc = `check macro directive comments

Reports //macro: comments with an unknown verb, a derive or wrap
directive naming an unknown generator, and directives not attached to
the kind of declaration they transform.`

// Analyzer reports invalid macro directives. Unlike the transformers,
// which stop at the first failure, it reports every problem in a pass.
var Analyzer = &analysis.Analyzer{
	Name: "macrodirective",
	Doc:  doc,
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	for _, f := range pass.Files {
		for _, d := range directive.Scan(f, pass.Fset) {
			switch d.Verb {
			case directive.VerbDerive:
				checkDerive(pass, d)
			case directive.VerbWrap:
				checkWrap(pass, d)
			default:
				report(pass, d, "unknown macro directive %q", d.Verb)
			}
		}
	}
	return nil, nil
}

func checkDerive(pass *analysis.Pass, d directive.Found) {
	if len(d.Args) == 0 {
		report(pass, d, "derive directive names no generator")
		return
	}
	for _, name := range d.Args {
		if !derive.Known(name) {
			report(pass, d, "unknown derive generator %q", name)
		}
	}
	switch n := d.Node.(type) {
	case *ast.TypeSpec:
		return
	case *ast.GenDecl:
		if n.Tok == token.TYPE {
			return
		}
	}
	report(pass, d, "derive directive is not attached to a type declaration")
}

func checkWrap(pass *analysis.Pass, d directive.Found) {
	if len(d.Args) == 0 {
		report(pass, d, "wrap directive names no wrapper")
		return
	}
	for _, name := range d.Args {
		if !wrap.Known(name) {
			report(pass, d, "unknown wrapper %q", name)
		}
	}
	fn, ok := d.Node.(*ast.FuncDecl)
	if !ok {
		report(pass, d, "wrap directive is not attached to a function")
		return
	}
	if fn.Body == nil {
		report(pass, d, "cannot wrap %s: function has no body", fn.Name.Name)
	}
}

func report(pass *analysis.Pass, d directive.Found, format string, args ...any) {
	pass.Report(analysis.Diagnostic{
		Pos:      d.Comment.Pos(),
		End:      d.Comment.End(),
		Category: types.RuleDirectiveError,
		Message:  fmt.Sprintf(format, args...),
	})
}
