package derive

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"
)

type fileData struct {
	Package     string
	NeedStrings bool
	Targets     []targetData
}

type targetData struct {
	Name   string
	Unit   bool
	Fields []field
}

// debugTemplate lays out the companion file. Its raw output must stay
// gofmt-shaped so format.Source leaves it unchanged.
const debugTemplate = `// Code generated by macroc derive; DO NOT EDIT.

package {{.Package}}

import (
	"fmt"
{{- if .NeedStrings}}
	"strings"
{{- end}}
)
{{range .Targets}}
{{- if .Unit}}
// DebugString renders {{.Name}}.
func (v {{.Name}}) DebugString() string {
	return "{{.Name}} (unit struct)"
}
{{- else}}
// DebugString renders {{.Name}} field by field.
func (v {{.Name}}) DebugString() string {
	var b strings.Builder
	b.WriteString("{{.Name}} {\n")
{{- range .Fields}}
	fmt.Fprintf(&b, "  {{.Label}}: %v\n", v.{{.Access}})
{{- end}}
	b.WriteString("}")
	return b.String()
}
{{- end}}

// DebugPrint writes the {{.Name}} rendering to standard output.
func (v {{.Name}}) DebugPrint() {
	fmt.Println(v.DebugString())
}
{{end}}`

var fileTemplate = template.Must(template.New("debug").Parse(debugTemplate))

func render(pkg string, targets []target) ([]byte, error) {
	data := fileData{Package: pkg}
	for _, t := range targets {
		if t.Shape != shapeUnit {
			data.NeedStrings = true
		}
		data.Targets = append(data.Targets, targetData{
			Name:   t.Name,
			Unit:   t.Shape == shapeUnit,
			Fields: t.Fields,
		})
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render debug implementation: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return out, nil
}
