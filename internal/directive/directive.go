package directive

import (
	"go/ast"
	"go/token"
	"strings"
)

// Prefix starts every macro directive comment.
const Prefix = "//macro:"

// Verbs recognized after the prefix.
const (
	VerbDerive = "derive"
	VerbWrap   = "wrap"
)

// Directive is one parsed //macro:<verb> <args...> comment.
type Directive struct {
	Verb string
	Args []string
	Pos  token.Position
}

// Found pairs a directive with the node whose doc comment holds it.
// Node is a *ast.FuncDecl, *ast.GenDecl, *ast.TypeSpec or *ast.ValueSpec,
// or nil for a directive floating outside any doc comment.
type Found struct {
	Directive
	Node    ast.Node
	Comment *ast.Comment
}

// Parse splits a comment into verb and arguments. ok is false when the
// comment is not a macro directive at all. A bare "//macro:" comment is
// a directive with an empty verb; callers report it.
func Parse(text string) (verb string, args []string, ok bool) {
	if !strings.HasPrefix(text, Prefix) {
		return "", nil, false
	}
	fields := strings.Fields(text[len(Prefix):])
	if len(fields) == 0 {
		return "", nil, true
	}
	return fields[0], fields[1:], true
}

// Scan collects the macro directives in a parsed file in source order.
// A directive inside a declaration's doc comment carries that
// declaration; inside a grouped decl, the individual spec wins.
func Scan(f *ast.File, fset *token.FileSet) []Found {
	owner := make(map[*ast.Comment]ast.Node)
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			claim(owner, d.Doc, d)
		case *ast.GenDecl:
			claim(owner, d.Doc, d)
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					claim(owner, s.Doc, s)
				case *ast.ValueSpec:
					claim(owner, s.Doc, s)
				}
			}
		}
	}

	var found []Found
	for _, cg := range f.Comments {
		for _, c := range cg.List {
			verb, args, ok := Parse(c.Text)
			if !ok {
				continue
			}
			found = append(found, Found{
				Directive: Directive{Verb: verb, Args: args, Pos: fset.Position(c.Slash)},
				Node:      owner[c],
				Comment:   c,
			})
		}
	}
	return found
}

func claim(owner map[*ast.Comment]ast.Node, doc *ast.CommentGroup, node ast.Node) {
	if doc == nil {
		return
	}
	for _, c := range doc.List {
		owner[c] = node
	}
}
