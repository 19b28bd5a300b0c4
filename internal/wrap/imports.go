package wrap

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// ensureImport adds an import to already-rewritten source and returns
// the formatted result.
func ensureImport(src []byte, path string) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rewritten file: %w", err)
	}
	astutil.AddImport(fset, file, path)

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("failed to format rewritten file: %w", err)
	}
	return buf.Bytes(), nil
}
