package types

import "go/token"

// Rule identifiers for every way a macro expansion can fail. Expansion
// failures are fatal for the file being processed and are never retried;
// the author fixes the source or the macro definition and reruns.
const (
	RulePatternMismatch    = "pattern-mismatch"    // no rule of the macro matched the invocation
	RuleRepetitionMismatch = "repetition-mismatch" // co-repeated variables bound unequal counts
	RuleUndefinedMacro     = "undefined-macro"     // invocation of a name with no definition
	RuleMalformedInput     = "malformed-input"     // a procedural macro rejected its argument grammar
	RuleUnsupportedShape   = "unsupported-shape"   // derive applied to a declaration it cannot handle
	RuleDirectiveError     = "directive-error"     // unknown or misplaced //macro: directive
	RuleLexError           = "lex-error"           // unbalanced delimiter, unterminated literal, etc.
	RuleRecursionLimit     = "recursion-limit"     // expansion did not reach a fixed point in time
	RuleBadDefinition      = "bad-definition"      // a macro block itself does not parse
)

// Issue represents a problem found while expanding or generating code.
type Issue struct {
	Rule       string
	Category   string
	Filename   string
	Message    string
	Suggestion string
	Note       string
	Start      token.Position
	End        token.Position
	Severity   Severity
}

// Severity is the reporting level of an issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// MarshalYAML implements the yaml.Marshaler interface.
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (s *Severity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	switch str {
	case "ERROR":
		*s = SeverityError
	case "WARNING":
		*s = SeverityWarning
	case "INFO":
		*s = SeverityInfo
	case "OFF":
		*s = SeverityOff
	default:
		*s = SeverityError
	}
	return nil
}
