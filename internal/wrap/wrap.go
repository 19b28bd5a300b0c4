package wrap

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"strconv"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"

	"github.com/macrolang/macroc/internal/directive"
	"github.com/macrolang/macroc/internal/types"
)

// Log is the only wrapper currently shipped.
const Log = "log"

// Known reports whether name is a wrapper this package can apply.
func Known(name string) bool { return name == Log }

// Wrappers lists the available wrapper names.
func Wrappers() []string { return []string{Log} }

// Error is a fatal wrap failure tied to a source position. Rule is one
// of the identifiers in internal/types.
type Error struct {
	Rule string
	Pos  token.Position
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func errorf(rule string, pos token.Position, format string, args ...any) *Error {
	return &Error{Rule: rule, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Source rewrites every function a //macro:wrap directive names and
// returns the whole transformed file. Output is nil when src carries
// no wrap directives. The directive comment is preserved in the
// output, so the result belongs in a new file rather than back over
// the input.
func Source(filename string, src []byte) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, parseError(filename, err)
	}

	indexes, err := targets(f, fset)
	if err != nil {
		return nil, err
	}
	if len(indexes) == 0 {
		return nil, nil
	}

	qual, addImport := fmtQualifier(f)

	df, err := decorator.Parse(src)
	if err != nil {
		return nil, parseError(filename, err)
	}
	for _, i := range indexes {
		rewrite(df.Decls[i].(*dst.FuncDecl), qual)
	}

	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, df); err != nil {
		return nil, fmt.Errorf("failed to print rewritten file: %w", err)
	}
	if addImport {
		return ensureImport(buf.Bytes(), "fmt")
	}
	return format.Source(buf.Bytes())
}

// File is Source over a file on disk.
func File(filename string) ([]byte, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Source(filename, src)
}

// targets validates every macro directive in f and returns the indexes
// in f.Decls of the functions to wrap, in source order.
func targets(f *ast.File, fset *token.FileSet) ([]int, error) {
	index := make(map[ast.Decl]int, len(f.Decls))
	for i, d := range f.Decls {
		index[d] = i
	}

	var out []int
	seen := make(map[*ast.FuncDecl]bool)
	for _, d := range directive.Scan(f, fset) {
		if d.Verb != directive.VerbWrap {
			if d.Verb == directive.VerbDerive {
				continue // handled by internal/derive
			}
			return nil, errorf(types.RuleDirectiveError, d.Pos, "unknown macro directive %q", d.Verb)
		}
		if len(d.Args) == 0 {
			return nil, errorf(types.RuleDirectiveError, d.Pos, "wrap directive names no wrapper")
		}
		for _, name := range d.Args {
			if !Known(name) {
				return nil, errorf(types.RuleDirectiveError, d.Pos, "unknown wrapper %q", name)
			}
		}
		fn, ok := d.Node.(*ast.FuncDecl)
		if !ok {
			return nil, errorf(types.RuleDirectiveError, d.Pos, "wrap directive is not attached to a function")
		}
		if fn.Body == nil {
			return nil, errorf(types.RuleDirectiveError, d.Pos, "cannot wrap %s: function has no body", fn.Name.Name)
		}
		if seen[fn] {
			return nil, errorf(types.RuleDirectiveError, d.Pos, "function %s is wrapped twice", fn.Name.Name)
		}
		seen[fn] = true
		out = append(out, index[fn])
	}
	return out, nil
}

// fmtQualifier picks the identifier the injected calls use for the fmt
// package and reports whether an import must be added.
func fmtQualifier(f *ast.File) (string, bool) {
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != "fmt" {
			continue
		}
		if imp.Name == nil {
			return "fmt", false
		}
		switch imp.Name.Name {
		case "_", ".":
			continue
		default:
			return imp.Name.Name, false
		}
	}
	return "fmt", true
}

// rewrite replaces fn's body with the logged form: an entry diagnostic,
// the original body as an immediately invoked literal bound to
// temporaries, an exit diagnostic, and a return of the temporaries.
// The literal keeps the original result list so naked returns inside
// the moved body still bind named results.
func rewrite(fn *dst.FuncDecl, qual string) {
	name := fn.Name.Name
	n := resultCount(fn.Type)
	temps := tempNames(n, sigNames(fn))

	lit := &dst.FuncLit{
		Type: &dst.FuncType{
			Params:  &dst.FieldList{Opening: true, Closing: true},
			Results: cloneFieldList(fn.Type.Results),
		},
		Body: fn.Body,
	}
	call := &dst.CallExpr{Fun: lit}

	stmts := []dst.Stmt{logStmt(qual, "calling function %q\n", name)}
	if n == 0 {
		stmts = append(stmts, &dst.ExprStmt{
			X:    call,
			Decs: dst.ExprStmtDecorations{NodeDecs: dst.NodeDecs{Before: dst.NewLine}},
		})
	} else {
		lhs := make([]dst.Expr, n)
		for i, t := range temps {
			lhs[i] = dst.NewIdent(t)
		}
		stmts = append(stmts, &dst.AssignStmt{
			Lhs:  lhs,
			Tok:  token.DEFINE,
			Rhs:  []dst.Expr{call},
			Decs: dst.AssignStmtDecorations{NodeDecs: dst.NodeDecs{Before: dst.NewLine}},
		})
	}
	stmts = append(stmts, logStmt(qual, "function %q returned\n", name))
	if n > 0 {
		results := make([]dst.Expr, n)
		for i, t := range temps {
			results[i] = dst.NewIdent(t)
		}
		stmts = append(stmts, &dst.ReturnStmt{
			Results: results,
			Decs:    dst.ReturnStmtDecorations{NodeDecs: dst.NodeDecs{Before: dst.NewLine}},
		})
	}
	fn.Body = &dst.BlockStmt{List: stmts}
}

func logStmt(qual, format, name string) *dst.ExprStmt {
	return &dst.ExprStmt{
		X: &dst.CallExpr{
			Fun: &dst.SelectorExpr{X: dst.NewIdent(qual), Sel: dst.NewIdent("Printf")},
			Args: []dst.Expr{
				&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(format)},
				&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(name)},
			},
		},
		Decs: dst.ExprStmtDecorations{NodeDecs: dst.NodeDecs{Before: dst.NewLine}},
	}
}

func resultCount(ft *dst.FuncType) int {
	if ft.Results == nil {
		return 0
	}
	n := 0
	for _, f := range ft.Results.List {
		if len(f.Names) == 0 {
			n++
		} else {
			n += len(f.Names)
		}
	}
	return n
}

// tempNames allocates n result temporaries that collide with nothing
// in the signature.
func tempNames(n int, taken map[string]bool) []string {
	names := make([]string, n)
	for i := range names {
		name := fmt.Sprintf("r%d", i)
		for taken[name] {
			name += "_"
		}
		names[i] = name
		taken[name] = true
	}
	return names
}

func sigNames(fn *dst.FuncDecl) map[string]bool {
	taken := make(map[string]bool)
	add := func(fl *dst.FieldList) {
		if fl == nil {
			return
		}
		for _, f := range fl.List {
			for _, id := range f.Names {
				taken[id.Name] = true
			}
		}
	}
	add(fn.Recv)
	add(fn.Type.TypeParams)
	add(fn.Type.Params)
	add(fn.Type.Results)
	return taken
}

func cloneFieldList(fl *dst.FieldList) *dst.FieldList {
	if fl == nil {
		return nil
	}
	return dst.Clone(fl).(*dst.FieldList)
}

func parseError(filename string, err error) *Error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return errorf(types.RuleMalformedInput, list[0].Pos, "%s", list[0].Msg)
	}
	return errorf(types.RuleMalformedInput, token.Position{Filename: filename}, "%v", err)
}
