package formatter

import "strings"

// RecursionLimitFormatter adds the configured expansion limit below the
// message so a runaway macro is distinguishable from a merely deep one.
type RecursionLimitFormatter struct{}

func (f *RecursionLimitFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{limitInfo .Padding .Message }}

{{- if .Suggestion }}
{{suggestion .Suggestion .Padding .MaxLineNumWidth .StartLine}}
{{- end }}

{{- if .Note }}
{{note .Note}}
{{- end }}
`
}

// limitInfo pulls the "(N)" limit out of the message. The message always
// carries it, but a rewritten one without it just drops the extra line.
func limitInfo(padding string, message string) string {
	open := strings.LastIndex(message, "(")
	end := strings.LastIndex(message, ")")
	if open == -1 || end < open {
		return ""
	}

	var endString string
	endString = lineStyle.Sprintf("%s| ", padding)
	endString += messageStyle.Sprintf("Expansion limit: %s\n", message[open+1:end])

	return endString
}
