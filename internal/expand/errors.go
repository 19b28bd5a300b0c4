package expand

import (
	"errors"
	"fmt"

	"github.com/macrolang/macroc/internal/pattern"
	"github.com/macrolang/macroc/internal/tokenize"
	"github.com/macrolang/macroc/internal/types"
)

// ExpandError wraps an error reported by a macro with its invocation site.
type ExpandError struct {
	Pos   tokenize.Pos
	Macro string
	Err   error
}

func (e *ExpandError) Error() string {
	return fmt.Sprintf("%s: in expansion of %s!: %v", e.Pos, e.Macro, e.Err)
}

func (e *ExpandError) Unwrap() error { return e.Err }

// UndefinedError is an invocation of a name with no definition.
type UndefinedError struct {
	Pos  tokenize.Pos
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%s: no macro named %s! is defined", e.Pos, e.Name)
}

// RecursionError is an expansion that never reached a fixed point.
type RecursionError struct {
	Pos   tokenize.Pos
	Macro string
	Limit int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("%s: expansion of %s! exceeded the recursion limit (%d)", e.Pos, e.Macro, e.Limit)
}

// Message returns the human text of an expansion error without the leading
// position, which diagnostics carry separately.
func Message(err error) string {
	var (
		expErr *ExpandError
		undef  *UndefinedError
		rec    *RecursionError
		defErr *pattern.DefError
		lexErr *tokenize.Error
	)
	switch {
	case errors.As(err, &undef):
		return fmt.Sprintf("no macro named %s! is defined", undef.Name)
	case errors.As(err, &rec):
		return fmt.Sprintf("expansion of %s! exceeded the recursion limit (%d)", rec.Macro, rec.Limit)
	case errors.As(err, &expErr):
		return fmt.Sprintf("in expansion of %s!: %s", expErr.Macro, Message(expErr.Err))
	case errors.As(err, &defErr):
		return defErr.Msg
	case errors.As(err, &lexErr):
		return lexErr.Msg
	default:
		return err.Error()
	}
}

// Classify maps an expansion error to its diagnostic rule and the position
// the diagnostic should point at.
func Classify(err error) (rule string, pos tokenize.Pos) {
	var (
		expErr   *ExpandError
		undef    *UndefinedError
		rec      *RecursionError
		noMatch  *pattern.NoMatchError
		mismatch *pattern.MismatchError
		defErr   *pattern.DefError
		lexErr   *tokenize.Error
	)
	if errors.As(err, &expErr) {
		pos = expErr.Pos
	}
	switch {
	case errors.As(err, &undef):
		return types.RuleUndefinedMacro, undef.Pos
	case errors.As(err, &rec):
		return types.RuleRecursionLimit, rec.Pos
	case errors.As(err, &noMatch):
		return types.RulePatternMismatch, pos
	case errors.As(err, &mismatch):
		return types.RuleRepetitionMismatch, pos
	case errors.As(err, &defErr):
		if !pos.IsValid() {
			pos = defErr.Pos
		}
		return types.RuleBadDefinition, pos
	case errors.As(err, &lexErr):
		if !pos.IsValid() {
			pos = lexErr.Pos
		}
		return types.RuleLexError, pos
	default:
		return types.RuleMalformedInput, pos
	}
}
