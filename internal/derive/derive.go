package derive

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"strconv"
	"strings"

	"github.com/macrolang/macroc/internal/directive"
	"github.com/macrolang/macroc/internal/types"
)

// Debug is the only generator currently shipped.
const Debug = "Debug"

// Known reports whether name is a generator this package can emit.
func Known(name string) bool { return name == Debug }

// Generators lists the available generator names.
func Generators() []string { return []string{Debug} }

// Error is a fatal derive failure tied to a source position. Rule is
// one of the identifiers in internal/types.
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

type shape int

const (
	shapeNamed shape = iota
	shapePositional
	shapeUnit
)

// field is one rendered line of a target: its display label and the
// accessor that follows the receiver.
type field struct {
	Label  string
	Access string
}

// target is the declaration descriptor a derive directive resolved to.
type target struct {
	Name   string
	Shape  shape
	Fields []field
}

// Source applies every //macro:derive directive in src and returns the
// generated companion file. Output is nil when src carries no derive
// directives. Any failure aborts the whole file; partial output is
// never produced.
func Source(filename string, src []byte) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, parseError(filename, err)
	}

	var targets []target
	seen := make(map[string]bool)
	for _, d := range directive.Scan(f, fset) {
		if d.Verb != directive.VerbDerive {
			if d.Verb == directive.VerbWrap {
				continue // handled by internal/wrap
			}
			return nil, errorf(types.RuleDirectiveError, d.Pos, "unknown macro directive %q", d.Verb)
		}
		if len(d.Args) == 0 {
			return nil, errorf(types.RuleDirectiveError, d.Pos, "derive directive names no generator")
		}
		for _, name := range d.Args {
			if !Known(name) {
				return nil, errorf(types.RuleDirectiveError, d.Pos, "unknown derive generator %q", name)
			}
		}
		specs, err := specsFor(d)
		if err != nil {
			return nil, err
		}
		for _, ts := range specs {
			if seen[ts.Name.Name] {
				return nil, errorf(types.RuleDirectiveError, d.Pos, "type %s derives %s twice", ts.Name.Name, Debug)
			}
			seen[ts.Name.Name] = true
			tgt, err := buildTarget(ts, fset)
			if err != nil {
				return nil, err
			}
			targets = append(targets, tgt)
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}
	return render(f.Name.Name, targets)
}

// File is Source over a file on disk.
func File(filename string) ([]byte, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Source(filename, src)
}

// OutputPath returns the companion filename generated code is written
// to: shapes.go becomes shapes_debug_gen.go.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, ".go") + "_debug_gen.go"
}

// specsFor resolves a derive directive to the type specs it covers. A
// directive on a grouped type declaration covers every spec in the
// group.
func specsFor(d directive.Found) ([]*ast.TypeSpec, error) {
	switch n := d.Node.(type) {
	case *ast.TypeSpec:
		return []*ast.TypeSpec{n}, nil
	case *ast.GenDecl:
		if n.Tok != token.TYPE {
			break
		}
		specs := make([]*ast.TypeSpec, 0, len(n.Specs))
		for _, spec := range n.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				specs = append(specs, ts)
			}
		}
		return specs, nil
	}
	return nil, errorf(types.RuleDirectiveError, d.Pos, "derive directive is not attached to a type declaration")
}

func buildTarget(ts *ast.TypeSpec, fset *token.FileSet) (target, error) {
	pos := fset.Position(ts.Pos())
	name := ts.Name.Name
	if ts.Assign.IsValid() {
		return target{}, errorf(types.RuleUnsupportedShape, pos, "cannot derive %s for %s: type aliases are not supported", Debug, name)
	}
	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		return target{}, errorf(types.RuleUnsupportedShape, pos, "cannot derive %s for %s: generic types are not supported", Debug, name)
	}
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return target{}, errorf(types.RuleUnsupportedShape, pos, "cannot derive %s for %s: %s is not a struct", Debug, name, describe(ts.Type))
	}

	var (
		fields []field
		named  int
	)
	for _, fl := range st.Fields.List {
		if len(fl.Names) == 0 {
			access := embeddedName(fl.Type)
			if access == "" {
				return target{}, errorf(types.RuleUnsupportedShape, fset.Position(fl.Pos()), "cannot derive %s for %s: unrecognized embedded field", Debug, name)
			}
			fields = append(fields, field{Label: access, Access: access})
			continue
		}
		for _, id := range fl.Names {
			if id.Name == "_" {
				continue
			}
			fields = append(fields, field{Label: id.Name, Access: id.Name})
			named++
		}
	}

	switch {
	case len(fields) == 0:
		return target{Name: name, Shape: shapeUnit}, nil
	case named == 0:
		// every field is embedded: label by index
		for i := range fields {
			fields[i].Label = strconv.Itoa(i)
		}
		return target{Name: name, Shape: shapePositional, Fields: fields}, nil
	default:
		return target{Name: name, Shape: shapeNamed, Fields: fields}, nil
	}
}

// embeddedName returns the implicit field name of an embedded field
// type, or "" when the type has none.
func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	}
	return ""
}

func describe(expr ast.Expr) string {
	switch expr.(type) {
	case *ast.InterfaceType:
		return "an interface"
	case *ast.MapType:
		return "a map"
	case *ast.ArrayType:
		return "an array or slice"
	case *ast.ChanType:
		return "a channel"
	case *ast.FuncType:
		return "a function type"
	case *ast.StarExpr:
		return "a pointer type"
	case *ast.Ident, *ast.SelectorExpr:
		return "a named type"
	}
	return "an unsupported declaration"
}

func parseError(filename string, err error) *Error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return errorf(types.RuleMalformedInput, list[0].Pos, "%s", list[0].Msg)
	}
	return errorf(types.RuleMalformedInput, token.Position{Filename: filename}, "%v", err)
}
