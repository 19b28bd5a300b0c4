package analyzer

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"

	"golang.org/x/tools/go/analysis"

	"github.com/macrolang/macroc/internal/types"
)

// Check runs the analyzer over one source file and returns its
// findings as issues. A file that does not parse yields one
// malformed-input issue per parse error instead of failing.
func Check(filename string, src []byte) ([]types.Issue, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) {
			issues := make([]types.Issue, 0, len(list))
			for _, e := range list {
				issues = append(issues, types.Issue{
					Rule:     types.RuleMalformedInput,
					Category: "parse",
					Filename: filename,
					Message:  e.Msg,
					Start:    e.Pos,
					End:      e.Pos,
					Severity: types.SeverityError,
				})
			}
			return issues, nil
		}
		return nil, err
	}

	var issues []types.Issue
	pass := &analysis.Pass{
		Analyzer: Analyzer,
		Fset:     fset,
		Files:    []*ast.File{file},
		Report: func(d analysis.Diagnostic) {
			// diagnostic ends are exclusive, issue spans are inclusive
			end := d.Pos
			if d.End > d.Pos {
				end = d.End - 1
			}
			issues = append(issues, types.Issue{
				Rule:     d.Category,
				Category: "directive",
				Filename: filename,
				Message:  d.Message,
				Start:    fset.Position(d.Pos),
				End:      fset.Position(end),
				Severity: types.SeverityError,
			})
		},
	}
	if _, err := Analyzer.Run(pass); err != nil {
		return nil, err
	}
	return issues, nil
}
